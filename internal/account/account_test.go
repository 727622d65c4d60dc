package account

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "vaultdb-accounts")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	s, err := Open(filepath.Join(dir, "accounts.bin"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, dir
}

func TestCreateLookupDelete(t *testing.T) {
	s, dir := openTestStore(t)
	defer os.RemoveAll(dir)
	defer s.Close()

	a, err := s.Create("alice", "hunter2", MinHierarchyIndex, PermOpenCloseTables)
	assert.NilError(t, err)
	assert.Assert(t, VerifyPassword(a, "hunter2"))
	assert.Assert(t, !VerifyPassword(a, "wrong"))

	found, ok := s.Lookup("alice")
	assert.Assert(t, ok)
	assert.Equal(t, found.Username, "alice")

	_, err = s.Create("alice", "other", MinHierarchyIndex, 0)
	assert.ErrorContains(t, err, "account_username_in_use")

	assert.NilError(t, s.Delete("alice"))
	_, ok = s.Lookup("alice")
	assert.Assert(t, !ok)
}

func TestStoreReopenPreservesActiveAccounts(t *testing.T) {
	s, dir := openTestStore(t)
	defer os.RemoveAll(dir)

	_, err := s.Create("bob", "pw", MinHierarchyIndex, PermCreateTables)
	assert.NilError(t, err)
	_, err = s.Create("carol", "pw", MinHierarchyIndex, PermDeleteTables)
	assert.NilError(t, err)
	assert.NilError(t, s.Delete("carol"))
	assert.NilError(t, s.Close())

	reopened, err := Open(filepath.Join(dir, "accounts.bin"))
	assert.NilError(t, err)
	defer reopened.Close()

	_, ok := reopened.Lookup("bob")
	assert.Assert(t, ok)
	_, ok = reopened.Lookup("carol")
	assert.Assert(t, !ok)
}

func TestDecideGlobalDoesNotHonorTableAdmin(t *testing.T) {
	admin := &Account{Permissions: PermTableAdmin}
	assert.Equal(t, DecideGlobal(admin, PermCreateAccounts), Denied)

	plain := &Account{Permissions: PermCreateTables}
	assert.Equal(t, DecideGlobal(plain, PermCreateAccounts), Denied)
	assert.Equal(t, DecideGlobal(plain, PermCreateTables), Granted)
}

func TestDecideTableMatrix(t *testing.T) {
	admin := &Account{Permissions: PermTableAdmin}
	assert.Equal(t, DecideTable(admin, 0, false, TableRead), Granted)

	plain := &Account{}

	// No override row at all: hidden as not-found.
	assert.Equal(t, DecideTable(plain, 0, false, TableRead), NotFound)

	// Override exists but view bit unset: still not-found.
	assert.Equal(t, DecideTable(plain, byte(TableRead), true, TableRead), NotFound)

	// View granted, requesting view itself succeeds.
	assert.Equal(t, DecideTable(plain, byte(TableView), true, TableView), Granted)

	// View granted but write not: denied, not hidden.
	assert.Equal(t, DecideTable(plain, byte(TableView), true, TableWrite), Denied)

	// View and write both granted.
	assert.Equal(t, DecideTable(plain, byte(TableView|TableWrite), true, TableWrite), Granted)
}
