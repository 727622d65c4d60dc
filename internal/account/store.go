package account

import (
	"os"
	"sync"

	"github.com/leengari/vaultdb/internal/crypto"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// Store is the flat accounts file plus its in-memory username index.
// Mutations are serialized under a single store-wide mutex, mu.
type Store struct {
	mu      sync.Mutex
	file    *os.File
	byName  map[string]*Account
	byIndex map[int64]*Account
}

// Open loads an existing accounts file, reading it end-to-end and
// skipping inactive entries to build the in-memory index. It creates an
// empty file if none exists.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "open accounts file: %v", err)
	}

	s := &Store{
		file:    f,
		byName:  make(map[string]*Account),
		byIndex: make(map[int64]*Account),
	}
	if err := s.load(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return vaulterrors.New(vaulterrors.Internal, "stat accounts file: %v", err)
	}
	size := info.Size()
	if size%recordSize != 0 {
		return vaulterrors.New(vaulterrors.Internal, "accounts file size %d is not a multiple of record size %d", size, recordSize)
	}

	count := size / recordSize
	buf := make([]byte, recordSize)
	for i := int64(0); i < count; i++ {
		offset := i * recordSize
		if _, err := s.file.ReadAt(buf, offset); err != nil {
			return vaulterrors.New(vaulterrors.Internal, "read account record at %d: %v", offset, err)
		}
		a := decodeAccount(buf, offset)
		s.byIndex[offset] = a
		if a.Active {
			s.byName[a.Username] = a
		}
	}
	return nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Lookup returns the active account with the given username.
func (s *Store) Lookup(username string) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[username]
	return a, ok
}

// ByIndex returns the account at the given internal_index, active or not
// (used when resolving permission-row owners during table open).
func (s *Store) ByIndex(index int64) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byIndex[index]
	return a, ok
}

// All returns every active account, for fetch_database_accounts.
func (s *Store) All() []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Account, 0, len(s.byName))
	for _, a := range s.byName {
		out = append(out, a)
	}
	return out
}

// Create appends a new active account, rejecting a username already in
// use (account_username_in_use).
func (s *Store) Create(username string, password string, hierarchyIndex uint32, perms GlobalPermission) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[username]; exists {
		return nil, vaulterrors.Wrap(vaulterrors.AccountUsernameInUse)
	}

	salt, hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "hash password: %v", err)
	}

	info, err := s.file.Stat()
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "stat accounts file: %v", err)
	}
	offset := info.Size()

	a := &Account{
		Active:         true,
		InternalIndex:  offset,
		Username:       username,
		PasswordHash:   hash,
		PasswordSalt:   salt,
		HierarchyIndex: hierarchyIndex,
		Permissions:    perms,
	}
	if err := s.writeRecord(a); err != nil {
		return nil, err
	}
	s.byName[username] = a
	s.byIndex[offset] = a
	return a, nil
}

// Delete soft-deletes an account by clearing its active flag.
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byName[username]
	if !ok {
		return vaulterrors.Wrap(vaulterrors.UsernameNotFound)
	}
	a.Active = false
	if err := s.writeRecord(a); err != nil {
		return err
	}
	delete(s.byName, username)
	return nil
}

// UpdatePassword rewrites an account's password slot in place.
func (s *Store) UpdatePassword(username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byName[username]
	if !ok {
		return vaulterrors.Wrap(vaulterrors.UsernameNotFound)
	}
	salt, hash, err := crypto.HashPassword(password)
	if err != nil {
		return vaulterrors.New(vaulterrors.Internal, "hash password: %v", err)
	}
	a.PasswordSalt = salt
	a.PasswordHash = hash
	return s.writeRecord(a)
}

// SetGlobalPermissions rewrites an account's global bitset in place.
func (s *Store) SetGlobalPermissions(username string, perms GlobalPermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byName[username]
	if !ok {
		return vaulterrors.Wrap(vaulterrors.UsernameNotFound)
	}
	a.Permissions = perms
	return s.writeRecord(a)
}

func (s *Store) writeRecord(a *Account) error {
	if _, err := s.file.WriteAt(encodeAccount(a), a.InternalIndex); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "write account record: %v", err)
	}
	return nil
}

// VerifyPassword checks a plaintext password against an account's stored
// PBKDF2 slot using constant-time comparison.
func VerifyPassword(a *Account, password string) bool {
	return crypto.VerifyPassword(password, a.PasswordSalt, a.PasswordHash)
}
