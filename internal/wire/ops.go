package wire

// Op is one of the closed set of dispatchable operation codes.
type Op string

const (
	OpNoOp                         Op = "no_op"
	OpCreateTable                  Op = "create_table"
	OpOpenTable                    Op = "open_table"
	OpCloseTable                   Op = "close_table"
	OpFetchTableMeta               Op = "fetch_table_meta"
	OpInsertRecord                 Op = "insert_record"
	OpFindOneRecord                Op = "find_one_record"
	OpFindAllRecords               Op = "find_all_records"
	OpEraseAllRecords              Op = "erase_all_records"
	OpUpdateAllRecords             Op = "update_all_records"
	OpRebuildTable                 Op = "rebuild_table"
	OpCreateDatabaseAccount        Op = "create_database_account"
	OpDeleteDatabaseAccount        Op = "delete_database_account"
	OpSetTableAccountPrivileges    Op = "set_table_account_privileges"
	OpFetchAccountTablePermissions Op = "fetch_account_table_permissions"
	OpFetchDatabaseTables          Op = "fetch_database_tables"
	OpFetchDatabaseAccounts        Op = "fetch_database_accounts"
	OpFetchAccountPrivileges       Op = "fetch_account_privileges"
)

var validOps = map[Op]bool{
	OpNoOp: true, OpCreateTable: true, OpOpenTable: true, OpCloseTable: true,
	OpFetchTableMeta: true, OpInsertRecord: true, OpFindOneRecord: true,
	OpFindAllRecords: true, OpEraseAllRecords: true, OpUpdateAllRecords: true,
	OpRebuildTable: true, OpCreateDatabaseAccount: true, OpDeleteDatabaseAccount: true,
	OpSetTableAccountPrivileges: true, OpFetchAccountTablePermissions: true,
	OpFetchDatabaseTables: true, OpFetchDatabaseAccounts: true, OpFetchAccountPrivileges: true,
}

// Valid reports whether op is a member of the closed operation set.
func (op Op) Valid() bool { return validOps[op] }
