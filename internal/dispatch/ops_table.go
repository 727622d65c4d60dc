package dispatch

import (
	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/table"
	"github.com/leengari/vaultdb/internal/vault"
	"github.com/leengari/vaultdb/internal/vaulterrors"
	"github.com/leengari/vaultdb/internal/wire"
)

// dispatchOp routes one already-nonce/op-validated request to its
// handler: authorize, validate params, then execute.
func dispatchOp(ctx *vault.Context, acct *account.Account, op wire.Op, data map[string]any) (any, error) {
	switch op {
	case wire.OpNoOp:
		return nil, nil
	case wire.OpCreateTable:
		return handleCreateTable(ctx, acct, data)
	case wire.OpOpenTable:
		return handleOpenTable(ctx, acct, data)
	case wire.OpCloseTable:
		return handleCloseTable(ctx, acct, data)
	case wire.OpFetchTableMeta:
		return handleFetchTableMeta(ctx, acct, data)
	case wire.OpInsertRecord:
		return handleInsertRecord(ctx, acct, data)
	case wire.OpFindOneRecord:
		return handleFindOneRecord(ctx, acct, data)
	case wire.OpFindAllRecords:
		return handleFindAllRecords(ctx, acct, data)
	case wire.OpEraseAllRecords:
		return handleEraseAllRecords(ctx, acct, data)
	case wire.OpUpdateAllRecords:
		return handleUpdateAllRecords(ctx, acct, data)
	case wire.OpRebuildTable:
		return handleRebuildTable(ctx, acct, data)
	case wire.OpCreateDatabaseAccount:
		return handleCreateDatabaseAccount(ctx, acct, data)
	case wire.OpDeleteDatabaseAccount:
		return handleDeleteDatabaseAccount(ctx, acct, data)
	case wire.OpSetTableAccountPrivileges:
		return handleSetTableAccountPrivileges(ctx, acct, data)
	case wire.OpFetchAccountTablePermissions:
		return handleFetchAccountTablePermissions(ctx, acct, data)
	case wire.OpFetchDatabaseTables:
		return handleFetchDatabaseTables(ctx, acct, data)
	case wire.OpFetchDatabaseAccounts:
		return handleFetchDatabaseAccounts(ctx, acct, data)
	case wire.OpFetchAccountPrivileges:
		return handleFetchAccountPrivileges(ctx, acct, data)
	default:
		return nil, vaulterrors.Wrap(vaulterrors.OpNotFound)
	}
}

func requireGlobal(acct *account.Account, perm account.GlobalPermission) error {
	if account.DecideGlobal(acct, perm) != account.Granted {
		return vaulterrors.Wrap(vaulterrors.InsufficientPrivileges)
	}
	return nil
}

// openTableFor resolves data.table, enforcing the reserved-prefix rule
// and that the table is currently open, then checks the per-table
// permission required for the op, translating a missing-view decision
// into table_not_found so a denied account cannot distinguish "denied"
// from "does not exist".
func openTableFor(ctx *vault.Context, acct *account.Account, data map[string]any, required account.TablePermission) (*table.Table, string, error) {
	name, err := getString(data, "table")
	if err != nil {
		return nil, "", err
	}
	if vault.IsReservedName(name) {
		return nil, "", vaulterrors.Wrap(vaulterrors.NameReserved)
	}

	t, ok := ctx.LookupTable(name)
	if !ok {
		return nil, "", vaulterrors.Wrap(vaulterrors.TableNotFound)
	}

	perm, hasOverride := t.PermissionBits(acct.InternalIndex)
	switch account.DecideTable(acct, perm, hasOverride, required) {
	case account.Granted:
		return t, name, nil
	case account.NotFound:
		return nil, "", vaulterrors.Wrap(vaulterrors.TableNotFound)
	default:
		return nil, "", vaulterrors.Wrap(vaulterrors.InsufficientPrivileges)
	}
}

func handleCreateTable(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermCreateTables); err != nil {
		return nil, err
	}
	name, err := getString(data, "table")
	if err != nil {
		return nil, err
	}
	if vault.IsReservedName(name) {
		return nil, vaulterrors.Wrap(vaulterrors.NameReserved)
	}

	columns, err := parseColumnsParam(data)
	if err != nil {
		return nil, err
	}
	schema, err := table.NewSchema(columns)
	if err != nil {
		return nil, err
	}

	if _, err := ctx.CreateTable(name, schema); err != nil {
		return nil, err
	}
	return nil, nil
}

func parseColumnsParam(data map[string]any) ([]table.Column, error) {
	raw, ok := data["columns"]
	if !ok {
		return nil, paramsInvalid("missing field %q", "columns")
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, paramsInvalid("field %q must be an array", "columns")
	}

	columns := make([]table.Column, 0, len(arr))
	for _, e := range arr {
		obj, ok := e.(map[string]any)
		if !ok {
			return nil, paramsInvalid("each column must be an object")
		}
		name, err := getString(obj, "name")
		if err != nil {
			return nil, err
		}
		kindName, err := getString(obj, "kind")
		if err != nil {
			return nil, err
		}
		kind, ok := table.ParseKind(kindName)
		if !ok {
			return nil, paramsInvalid("unknown column kind %q", kindName)
		}
		columns = append(columns, table.Column{Name: name, Kind: kind})
	}
	return columns, nil
}

func handleOpenTable(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermOpenCloseTables); err != nil {
		return nil, err
	}
	name, err := getString(data, "table")
	if err != nil {
		return nil, err
	}
	if vault.IsReservedName(name) {
		return nil, vaulterrors.Wrap(vaulterrors.NameReserved)
	}
	if _, err := ctx.OpenTable(name); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleCloseTable(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermOpenCloseTables); err != nil {
		return nil, err
	}
	name, err := getString(data, "table")
	if err != nil {
		return nil, err
	}
	if err := ctx.CloseTable(name); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleFetchTableMeta(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, name, err := openTableFor(ctx, acct, data, account.TableView)
	if err != nil {
		return nil, err
	}
	t.RLock()
	defer t.RUnlock()

	cols := make([]map[string]any, 0, len(t.Schema.Columns))
	for _, c := range t.Schema.Columns {
		cols = append(cols, map[string]any{"name": c.Name, "kind": c.Kind.String()})
	}
	return map[string]any{"table": name, "columns": cols, "record_size": t.Schema.RecordSize}, nil
}

func handleFetchDatabaseTables(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	return map[string]any{"tables": ctx.OpenTableNames()}, nil
}
