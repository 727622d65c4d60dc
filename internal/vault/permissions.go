package vault

import (
	"github.com/leengari/vaultdb/internal/table"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// permissionsSchema is the fixed layout of the reserved
// --internal-table-permissions table.
func permissionsSchema() (*table.Schema, error) {
	return table.NewSchema([]table.Column{
		{Name: "index", Kind: table.KindLong},
		{Name: "table", Kind: table.KindString},
		{Name: "permissions", Kind: table.KindByte},
	})
}

// loadPermissionsCacheLocked scans the already-open permissions table
// for rows belonging to t and installs them as t's cache, keyed by
// account.internal_index. Called from openLocked with tableOpenMu held,
// and from SetTablePermission without it.
func (c *Context) loadPermissionsCacheLocked(t *table.Table) error {
	c.tablesMu.RLock()
	permsTable, ok := c.tables[table.PermissionsTableName]
	c.tablesMu.RUnlock()
	if !ok {
		t.SetPermissionsCache(map[int64]byte{})
		return nil
	}

	permsTable.RLock()
	defer permsTable.RUnlock()

	cache := map[int64]byte{}
	err := permsTable.Scan(table.ScanOptions{Direction: 1}, func(_ int64, rec []byte) (bool, error) {
		m, err := permsTable.RecordToMap(rec, nil)
		if err != nil {
			return false, err
		}
		if m["table"].(string) != t.Name {
			return true, nil
		}
		cache[m["index"].(int64)] = m["permissions"].(byte)
		return true, nil
	})
	if err != nil {
		return err
	}
	t.SetPermissionsCache(cache)
	return nil
}

// SetTablePermission inserts or overwrites the permission row for
// (accountIndex, tableName) and refreshes the target table's cache if it
// is currently open, backing set_table_account_privileges.
func (c *Context) SetTablePermission(accountIndex int64, tableName string, perms byte) error {
	c.tablesMu.RLock()
	permsTable, ok := c.tables[table.PermissionsTableName]
	c.tablesMu.RUnlock()
	if !ok {
		return vaulterrors.New(vaulterrors.Internal, "permissions table is not open")
	}

	permsTable.Lock()
	var existingIndex int64
	found := false
	err := permsTable.Scan(table.ScanOptions{Direction: 1}, func(idx int64, rec []byte) (bool, error) {
		m, err := permsTable.RecordToMap(rec, nil)
		if err != nil {
			return false, err
		}
		if m["index"].(int64) == accountIndex && m["table"].(string) == tableName {
			existingIndex = idx
			found = true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		permsTable.Unlock()
		return err
	}

	if found {
		err = permsTable.UpdateOne(existingIndex, map[string]any{"permissions": float64(perms)})
	} else {
		_, err = permsTable.Insert(map[string]any{
			"index":       float64(accountIndex),
			"table":       tableName,
			"permissions": float64(perms),
		})
	}
	permsTable.Unlock()
	if err != nil {
		return err
	}

	if target, ok := c.LookupTable(tableName); ok {
		return c.loadPermissionsCacheLocked(target)
	}
	return nil
}
