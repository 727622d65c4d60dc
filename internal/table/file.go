package table

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

const (
	metaFileName    = "meta.bin"
	dataFileName    = "data.bin"
	dynamicFileName = "dynamic.bin"
)

// ReservedPrefix marks system tables, e.g. "--internal-table-permissions".
// Table names with this prefix are only ever created internally.
const ReservedPrefix = "--internal"

// PermissionsTableName is the reserved table backing per-account,
// per-table permission rows.
const PermissionsTableName = "--internal-table-permissions"

// Table is one open table: its schema plus the open data.bin/dynamic.bin
// handles, guarded by its own mutex (Lock/Unlock/RLock/RUnlock). All reads
// and writes on a table are serialized by its own mutex.
type Table struct {
	mu sync.RWMutex

	Name   string
	Path   string
	Schema *Schema

	data    *os.File
	dynamic *os.File

	// permissions caches the reserved permissions table's rows for THIS
	// table, keyed by account.InternalIndex. It is nil for the permissions
	// table itself and is populated by internal/vault after Open via
	// SetPermissionsCache.
	permissions map[int64]byte
}

func (t *Table) Lock()    { t.mu.Lock() }
func (t *Table) Unlock()  { t.mu.Unlock() }
func (t *Table) RLock()   { t.mu.RLock() }
func (t *Table) RUnlock() { t.mu.RUnlock() }

// SetPermissionsCache installs the cached per-account permission bitset
// for this table. Must be called with the table unlocked; it takes its
// own lock.
func (t *Table) SetPermissionsCache(perms map[int64]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.permissions = perms
}

// PermissionBits returns the cached permission byte for accountIndex, and
// whether an override row exists at all.
func (t *Table) PermissionBits(accountIndex int64) (byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.permissions == nil {
		return 0, false
	}
	b, ok := t.permissions[accountIndex]
	return b, ok
}

func tableDir(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}

// Create makes a new table directory with a populated meta.bin and empty
// data.bin/dynamic.bin. It rejects an existing directory of the same
// name (table_conflict) — reserved-prefix rejection is a caller-level
// (dispatcher) check, not this function's.
func Create(dataDir, name string, schema *Schema) error {
	dir := tableDir(dataDir, name)
	if _, err := os.Stat(dir); err == nil {
		return vaulterrors.Wrap(vaulterrors.TableConflict)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "create table directory: %v", err)
	}

	if err := writeMetaFile(filepath.Join(dir, metaFileName), name, schema); err != nil {
		os.RemoveAll(dir)
		return vaulterrors.New(vaulterrors.Internal, "write meta.bin: %v", err)
	}
	for _, fname := range []string{dataFileName, dynamicFileName} {
		f, err := os.Create(filepath.Join(dir, fname))
		if err != nil {
			os.RemoveAll(dir)
			return vaulterrors.New(vaulterrors.Internal, "create %s: %v", fname, err)
		}
		f.Close()
	}
	return nil
}

// Open reads meta.bin, builds the column-name index (already done by
// NewSchema within decodeMeta), and opens data.bin/dynamic.bin
// read-write.
func Open(dataDir, name string) (*Table, error) {
	dir := tableDir(dataDir, name)
	metaPath := filepath.Join(dir, metaFileName)

	storedName, schema, err := readMetaFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.Wrap(vaulterrors.TableNotFound)
		}
		return nil, err
	}

	data, err := os.OpenFile(filepath.Join(dir, dataFileName), os.O_RDWR, 0o644)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "open data.bin: %v", err)
	}
	dynamic, err := os.OpenFile(filepath.Join(dir, dynamicFileName), os.O_RDWR, 0o644)
	if err != nil {
		data.Close()
		return nil, vaulterrors.New(vaulterrors.Internal, "open dynamic.bin: %v", err)
	}

	return &Table{
		Name:    storedName,
		Path:    dir,
		Schema:  schema,
		data:    data,
		dynamic: dynamic,
	}, nil
}

// Exists reports whether a table directory for name is present.
func Exists(dataDir, name string) bool {
	_, err := os.Stat(filepath.Join(tableDir(dataDir, name), metaFileName))
	return err == nil
}

// Close flushes and closes the table's file handles. The caller is
// responsible for removing it from any open-tables map.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if err := t.data.Close(); err != nil {
		firstErr = err
	}
	if err := t.dynamic.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// RecordCount returns the number of record slots in data.bin (active or
// not), derived from the file size divided by the schema's record size.
func (t *Table) RecordCount() (int64, error) {
	info, err := t.data.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	rs := int64(t.Schema.RecordSize)
	if size%rs != 0 {
		return 0, vaulterrors.New(vaulterrors.Internal, "data.bin size %d is not a multiple of record size %d", size, rs)
	}
	return size / rs, nil
}
