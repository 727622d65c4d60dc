// Package account implements the flat account file, the in-memory
// account index, and the permission-decision algorithm.
package account

import "encoding/binary"

var byteOrder = binary.LittleEndian

const (
	usernameSlot   = 33
	recordSize     = 1 + 8 + usernameSlot + 32 + 32 + 4 + 1
	maxUsernameLen = 32
)

// RootUsername is reserved: it can never be created via create_account.
const RootUsername = "root"

// GlobalPermission is one bit of an account's global permission bitset.
type GlobalPermission byte

const (
	PermOpenCloseTables GlobalPermission = 1 << iota
	PermCreateTables
	PermDeleteTables
	PermCreateAccounts
	PermUpdateAccounts
	PermDeleteAccounts
	PermTableAdmin
)

// MinHierarchyIndex, MaxHierarchyIndex bound a non-root account's
// hierarchy_index; a value outside this range is rejected as
// value_reserved.
const (
	MinHierarchyIndex  = 1
	MaxHierarchyIndex  = 1_000_000
	RootHierarchyIndex = 0
)

// Account is one in-memory account record.
type Account struct {
	Active         bool
	InternalIndex  int64 // equal to its byte offset in accounts.bin
	Username       string
	PasswordHash   [32]byte
	PasswordSalt   [32]byte
	HierarchyIndex uint32
	Permissions    GlobalPermission
}

// Has reports whether the account's global bitset includes p.
func (a *Account) Has(p GlobalPermission) bool {
	return a.Permissions&p != 0
}

func encodeAccount(a *Account) []byte {
	buf := make([]byte, recordSize)
	if a.Active {
		buf[0] = 1
	}
	byteOrder.PutUint64(buf[1:9], uint64(a.InternalIndex))
	putFixedString(buf[9:9+usernameSlot], a.Username)
	off := 9 + usernameSlot
	copy(buf[off:off+32], a.PasswordHash[:])
	off += 32
	copy(buf[off:off+32], a.PasswordSalt[:])
	off += 32
	byteOrder.PutUint32(buf[off:off+4], a.HierarchyIndex)
	off += 4
	buf[off] = byte(a.Permissions)
	return buf
}

func decodeAccount(buf []byte, offset int64) *Account {
	a := &Account{
		Active:        buf[0] != 0,
		InternalIndex: offset,
		Username:      readFixedString(buf[9 : 9+usernameSlot]),
	}
	off := 9 + usernameSlot
	copy(a.PasswordHash[:], buf[off:off+32])
	off += 32
	copy(a.PasswordSalt[:], buf[off:off+32])
	off += 32
	a.HierarchyIndex = byteOrder.Uint32(buf[off : off+4])
	off += 4
	a.Permissions = GlobalPermission(buf[off])
	return a
}

func putFixedString(slot []byte, s string) {
	n := copy(slot, s)
	for i := n; i < len(slot); i++ {
		slot[i] = 0
	}
}

func readFixedString(slot []byte) string {
	n := 0
	for n < len(slot) && slot[n] != 0 {
		n++
	}
	return string(slot[:n])
}
