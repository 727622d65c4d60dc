package vault

import (
	"strings"

	"github.com/leengari/vaultdb/internal/table"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// IsReservedName reports whether name uses the reserved --internal
// prefix; such names are only ever created internally and are rejected
// as name_reserved if requested by a client.
func IsReservedName(name string) bool {
	return strings.HasPrefix(name, table.ReservedPrefix)
}

// LookupTable returns an already-open table, without opening it.
func (c *Context) LookupTable(name string) (*table.Table, bool) {
	c.tablesMu.RLock()
	defer c.tablesMu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

// OpenTableNames returns the names of every currently open table.
func (c *Context) OpenTableNames() []string {
	c.tablesMu.RLock()
	defer c.tablesMu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// CreateTable creates a new table directory and opens it, caching its
// permission rows.
func (c *Context) CreateTable(name string, schema *table.Schema) (*table.Table, error) {
	c.tableOpenMu.Lock()
	defer c.tableOpenMu.Unlock()

	if err := table.Create(c.Config.DataDirectory, name, schema); err != nil {
		return nil, err
	}
	return c.openLocked(name)
}

// OpenTable opens an existing table and registers it, rejecting a table
// that is already open with table_already_open.
func (c *Context) OpenTable(name string) (*table.Table, error) {
	c.tableOpenMu.Lock()
	defer c.tableOpenMu.Unlock()

	c.tablesMu.RLock()
	_, already := c.tables[name]
	c.tablesMu.RUnlock()
	if already {
		return nil, vaulterrors.Wrap(vaulterrors.TableAlreadyOpen)
	}

	return c.openLocked(name)
}

func (c *Context) openLocked(name string) (*table.Table, error) {
	t, err := table.Open(c.Config.DataDirectory, name)
	if err != nil {
		return nil, err
	}

	if name != table.PermissionsTableName {
		if err := c.loadPermissionsCacheLocked(t); err != nil {
			t.Close()
			return nil, err
		}
	}

	c.tablesMu.Lock()
	c.tables[name] = t
	c.tablesMu.Unlock()
	return t, nil
}

// CloseTable flushes and closes a table, dropping it from the
// open-tables map.
func (c *Context) CloseTable(name string) error {
	c.tableOpenMu.Lock()
	defer c.tableOpenMu.Unlock()

	c.tablesMu.Lock()
	t, ok := c.tables[name]
	if ok {
		delete(c.tables, name)
	}
	c.tablesMu.Unlock()

	if !ok {
		return vaulterrors.Wrap(vaulterrors.TableNotOpen)
	}
	return t.Close()
}
