package dispatch

import (
	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/vault"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

var globalPermissionNames = map[string]account.GlobalPermission{
	"open_close_tables": account.PermOpenCloseTables,
	"create_tables":     account.PermCreateTables,
	"delete_tables":     account.PermDeleteTables,
	"create_accounts":   account.PermCreateAccounts,
	"update_accounts":   account.PermUpdateAccounts,
	"delete_accounts":   account.PermDeleteAccounts,
	"table_admin":       account.PermTableAdmin,
}

var tablePermissionNames = map[string]account.TablePermission{
	"view":   account.TableView,
	"read":   account.TableRead,
	"write":  account.TableWrite,
	"update": account.TableUpdate,
	"erase":  account.TableErase,
}

func parseGlobalPermissions(data map[string]any) (account.GlobalPermission, error) {
	names, _, err := getStringArray(data, "permissions")
	if err != nil {
		return 0, err
	}
	var perms account.GlobalPermission
	for _, n := range names {
		bit, ok := globalPermissionNames[n]
		if !ok {
			return 0, paramsInvalid("unknown global permission %q", n)
		}
		perms |= bit
	}
	return perms, nil
}

func parseTablePermissions(data map[string]any) (account.TablePermission, error) {
	names, _, err := getStringArray(data, "permissions")
	if err != nil {
		return 0, err
	}
	var perms account.TablePermission
	for _, n := range names {
		bit, ok := tablePermissionNames[n]
		if !ok {
			return 0, paramsInvalid("unknown table permission %q", n)
		}
		perms |= bit
	}
	return perms, nil
}

func globalPermissionList(perms account.GlobalPermission) []string {
	names := make([]string, 0, len(globalPermissionNames))
	for n, bit := range globalPermissionNames {
		if perms&bit != 0 {
			names = append(names, n)
		}
	}
	return names
}

func tablePermissionList(perms account.TablePermission) []string {
	names := make([]string, 0, len(tablePermissionNames))
	for n, bit := range tablePermissionNames {
		if perms&bit != 0 {
			names = append(names, n)
		}
	}
	return names
}

// handleCreateDatabaseAccount enforces the reserved-username,
// hierarchy_index range, and "may not grant a bit you lack" delegation
// checks before ever touching the account store.
func handleCreateDatabaseAccount(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermCreateAccounts); err != nil {
		return nil, err
	}
	username, err := getString(data, "username")
	if err != nil {
		return nil, err
	}
	if username == account.RootUsername {
		return nil, vaulterrors.Wrap(vaulterrors.NameReserved)
	}
	password, err := getString(data, "password")
	if err != nil {
		return nil, err
	}
	hIdx, err := getNumber(data, "hierarchy_index")
	if err != nil {
		return nil, err
	}
	hierarchyIndex := uint32(hIdx)
	if hIdx < account.MinHierarchyIndex || hIdx > account.MaxHierarchyIndex {
		return nil, vaulterrors.Wrap(vaulterrors.ValueReserved)
	}

	perms, err := parseGlobalPermissions(data)
	if err != nil {
		return nil, err
	}
	if perms&^acct.Permissions != 0 {
		return nil, vaulterrors.Wrap(vaulterrors.InsufficientPrivileges)
	}

	created, err := ctx.Accounts.Create(username, password, hierarchyIndex, perms)
	if err != nil {
		return nil, err
	}
	return map[string]any{"index": created.InternalIndex}, nil
}

func handleDeleteDatabaseAccount(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermDeleteAccounts); err != nil {
		return nil, err
	}
	username, err := getString(data, "username")
	if err != nil {
		return nil, err
	}
	if username == account.RootUsername {
		return nil, vaulterrors.Wrap(vaulterrors.NameReserved)
	}
	if err := ctx.Accounts.Delete(username); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleSetTableAccountPrivileges(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermUpdateAccounts); err != nil {
		return nil, err
	}
	username, err := getString(data, "username")
	if err != nil {
		return nil, err
	}
	target, ok := ctx.Accounts.Lookup(username)
	if !ok {
		return nil, vaulterrors.Wrap(vaulterrors.UsernameNotFound)
	}
	tableName, err := getString(data, "table")
	if err != nil {
		return nil, err
	}
	if vault.IsReservedName(tableName) {
		return nil, vaulterrors.Wrap(vaulterrors.NameReserved)
	}
	perms, err := parseTablePermissions(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.SetTablePermission(target.InternalIndex, tableName, byte(perms)); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleFetchAccountTablePermissions(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermUpdateAccounts); err != nil {
		return nil, err
	}
	username, err := getString(data, "username")
	if err != nil {
		return nil, err
	}
	target, ok := ctx.Accounts.Lookup(username)
	if !ok {
		return nil, vaulterrors.Wrap(vaulterrors.UsernameNotFound)
	}
	tableName, err := getString(data, "table")
	if err != nil {
		return nil, err
	}
	t, ok := ctx.LookupTable(tableName)
	if !ok {
		return nil, vaulterrors.Wrap(vaulterrors.TableNotFound)
	}
	perm, hasOverride := t.PermissionBits(target.InternalIndex)
	if !hasOverride {
		return map[string]any{"permissions": []string{}}, nil
	}
	return map[string]any{"permissions": tablePermissionList(account.TablePermission(perm))}, nil
}

func handleFetchDatabaseAccounts(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	if err := requireGlobal(acct, account.PermUpdateAccounts); err != nil {
		return nil, err
	}
	accounts := ctx.Accounts.All()
	out := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, map[string]any{
			"username":        a.Username,
			"hierarchy_index": a.HierarchyIndex,
			"permissions":     globalPermissionList(a.Permissions),
		})
	}
	return map[string]any{"accounts": out}, nil
}

func handleFetchAccountPrivileges(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	username, ok := getOptionalString(data, "username")
	target := acct
	if ok && username != acct.Username {
		if err := requireGlobal(acct, account.PermUpdateAccounts); err != nil {
			return nil, err
		}
		found, ok := ctx.Accounts.Lookup(username)
		if !ok {
			return nil, vaulterrors.Wrap(vaulterrors.UsernameNotFound)
		}
		target = found
	}
	return map[string]any{
		"username":        target.Username,
		"hierarchy_index": target.HierarchyIndex,
		"permissions":     globalPermissionList(target.Permissions),
	}, nil
}
