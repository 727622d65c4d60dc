package vault

import (
	"os"
	"path/filepath"

	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/table"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

const accountsFileName = "accounts.bin"

// rootPassword is the fixed bootstrap credential for the seeded root
// account. No operation in the closed wire operation set changes it;
// this mirrors a first-boot scaffolding step explicitly left outside
// engine scope.
const rootPassword = "root"

// Bootstrap creates the data directory if missing, opens (or creates)
// accounts.bin, seeds the root account when configured to, and opens
// the reserved permissions table, returning a ready Context.
func Bootstrap(cfg Config) (*Context, error) {
	if err := os.MkdirAll(cfg.DataDirectory, 0o755); err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "create data directory: %v", err)
	}

	accounts, err := account.Open(filepath.Join(cfg.DataDirectory, accountsFileName))
	if err != nil {
		return nil, err
	}

	if cfg.EnableRootAccount {
		if _, ok := accounts.Lookup(account.RootUsername); !ok {
			rootPerms := account.PermOpenCloseTables | account.PermCreateTables | account.PermDeleteTables |
				account.PermCreateAccounts | account.PermUpdateAccounts | account.PermDeleteAccounts |
				account.PermTableAdmin
			if _, err := accounts.Create(account.RootUsername, rootPassword, account.RootHierarchyIndex, rootPerms); err != nil {
				return nil, err
			}
		}
	}

	ctx := newContext(cfg, accounts)

	if err := ctx.bootstrapPermissionsTable(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// bootstrapPermissionsTable ensures the reserved permissions table
// exists and is open before any user table is opened, since opening a
// user table reads its cached permission rows from this one.
func (c *Context) bootstrapPermissionsTable() error {
	if table.Exists(c.Config.DataDirectory, table.PermissionsTableName) {
		_, err := c.OpenTable(table.PermissionsTableName)
		return err
	}

	schema, err := permissionsSchema()
	if err != nil {
		return err
	}
	_, err = c.CreateTable(table.PermissionsTableName, schema)
	return err
}

// Shutdown closes every open table and the account store, for a clean
// SIGINT/SIGTERM exit: flush and close the accounts file, release every
// open table.
func (c *Context) Shutdown() error {
	var firstErr error
	for _, name := range c.OpenTableNames() {
		if err := c.CloseTable(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.Accounts.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
