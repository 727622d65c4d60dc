package dispatch

import (
	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/table"
	"github.com/leengari/vaultdb/internal/vault"
)

func handleInsertRecord(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableWrite)
	if err != nil {
		return nil, err
	}
	values, err := getObject(data, "columns")
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	index, err := t.Insert(values)
	if err != nil {
		return nil, err
	}
	return map[string]any{"index": index}, nil
}

func handleFindOneRecord(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableRead)
	if err != nil {
		return nil, err
	}
	preds, returnCols, err := parseFindParams(t, data)
	if err != nil {
		return nil, err
	}

	t.RLock()
	defer t.RUnlock()
	record, found, err := t.FindOne(preds, returnCols)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]any{"found": false}, nil
	}
	return map[string]any{"found": true, "record": record}, nil
}

func handleFindAllRecords(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableRead)
	if err != nil {
		return nil, err
	}
	opts, returnCols, err := parseScanParams(t, data)
	if err != nil {
		return nil, err
	}

	t.RLock()
	defer t.RUnlock()
	records, err := t.FindMany(opts, returnCols)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []map[string]any{}
	}
	return map[string]any{"records": records}, nil
}

func handleEraseAllRecords(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableErase)
	if err != nil {
		return nil, err
	}
	opts, _, err := parseScanParams(t, data)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	count, err := t.EraseMany(opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{"erased": count}, nil
}

func handleUpdateAllRecords(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableUpdate)
	if err != nil {
		return nil, err
	}
	opts, _, err := parseScanParams(t, data)
	if err != nil {
		return nil, err
	}
	changes, err := getObject(data, "changes")
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	count, err := t.UpdateMany(opts, changes)
	if err != nil {
		return nil, err
	}
	return map[string]any{"updated": count}, nil
}

func handleRebuildTable(ctx *vault.Context, acct *account.Account, data map[string]any) (any, error) {
	t, _, err := openTableFor(ctx, acct, data, account.TableWrite)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	stats, err := t.Rebuild()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"record_count":        stats.RecordCount,
		"dead_record_count":   stats.DeadRecordCount,
		"short_dynamic_count": stats.ShortDynamicCount,
	}, nil
}

// parseFindParams reads the where/return fields shared by find_one_record.
func parseFindParams(t *table.Table, data map[string]any) ([]table.Predicate, []string, error) {
	where := getOptionalObject(data, "where")
	preds, err := table.ParseWhere(t.Schema, where)
	if err != nil {
		return nil, nil, err
	}
	returnCols, _, err := getStringArray(data, "return")
	if err != nil {
		return nil, nil, err
	}
	return preds, returnCols, nil
}

// parseScanParams reads the where/seek_where/seek_direction/limit/return
// fields shared by find_all_records, erase_all_records and
// update_all_records.
func parseScanParams(t *table.Table, data map[string]any) (table.ScanOptions, []string, error) {
	where := getOptionalObject(data, "where")
	preds, err := table.ParseWhere(t.Schema, where)
	if err != nil {
		return table.ScanOptions{}, nil, err
	}

	seekWhere := getOptionalObject(data, "seek_where")
	seekPreds, err := table.ParseWhere(t.Schema, seekWhere)
	if err != nil {
		return table.ScanOptions{}, nil, err
	}

	direction := 1
	if d, ok := getOptionalNumber(data, "seek_direction"); ok {
		if d == -1 {
			direction = -1
		} else if d != 1 {
			return table.ScanOptions{}, nil, paramsInvalid("seek_direction must be +1 or -1")
		}
	}

	limit := int64(0)
	if l, ok := getOptionalNumber(data, "limit"); ok {
		limit = int64(l)
	}

	returnCols, _, err := getStringArray(data, "return")
	if err != nil {
		return table.ScanOptions{}, nil, err
	}

	opts := table.ScanOptions{
		Direction: direction,
		Limit:     limit,
		Where:     preds,
		SeekWhere: seekPreds,
	}
	return opts, returnCols, nil
}
