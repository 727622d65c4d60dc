package table

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"
)

func createTestTable(t *testing.T, columns []Column) (*Table, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "vaultdb-table")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}

	schema, err := NewSchema(columns)
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	if err := Create(dir, "widgets", schema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	tbl, err := Open(dir, "widgets")
	if err != nil {
		t.Fatalf("open table: %v", err)
	}
	return tbl, dir
}

func widgetColumns() []Column {
	return []Column{
		{Name: "id", Kind: KindLong},
		{Name: "count", Kind: KindInteger},
		{Name: "label", Kind: KindString},
	}
}

func TestRecordSizeIdentity(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	if _, err := tbl.Insert(map[string]any{"id": float64(1), "count": float64(10), "label": "alpha"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := tbl.Insert(map[string]any{"id": float64(2), "count": float64(20), "label": "beta"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err := tbl.RecordCount()
	assert.NilError(t, err)
	assert.Equal(t, int64(2), count)

	info, err := os.Stat(tbl.Path + "/data.bin")
	assert.NilError(t, err)
	assert.Equal(t, info.Size(), int64(tbl.Schema.RecordSize)*count)
}

func TestInsertThenFindOne(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	_, err := tbl.Insert(map[string]any{"id": float64(7), "count": float64(3), "label": "gizmo"})
	assert.NilError(t, err)

	preds, err := ParseWhere(tbl.Schema, map[string]any{"label": "gizmo"})
	assert.NilError(t, err)

	rec, found, err := tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Equal(t, rec["id"], int64(7))
	assert.Equal(t, rec["label"], "gizmo")
}

func TestEraseThenFind(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	idx, err := tbl.Insert(map[string]any{"id": float64(1), "count": float64(1), "label": "sole"})
	assert.NilError(t, err)

	assert.NilError(t, tbl.EraseOne(idx))

	preds, err := ParseWhere(tbl.Schema, map[string]any{"label": "sole"})
	assert.NilError(t, err)
	_, found, err := tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, !found)
}

func TestUpdateInPlaceVsRelocate(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	idx, err := tbl.Insert(map[string]any{"id": float64(1), "count": float64(1), "label": "short"})
	assert.NilError(t, err)

	// Shrinking in place should flag available_optimisation but keep the
	// record findable under its new value.
	assert.NilError(t, tbl.UpdateOne(idx, map[string]any{"label": "s"}))
	preds, err := ParseWhere(tbl.Schema, map[string]any{"label": "s"})
	assert.NilError(t, err)
	_, found, err := tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, found)

	// Growing beyond the allocation relocates to a fresh dynamic record.
	assert.NilError(t, tbl.UpdateOne(idx, map[string]any{"label": "a much longer replacement value"}))
	preds, err = ParseWhere(tbl.Schema, map[string]any{"label": "a much longer replacement value"})
	assert.NilError(t, err)
	_, found, err = tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, found)
}

func TestRebuildPreservesData(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	keep, err := tbl.Insert(map[string]any{"id": float64(1), "count": float64(1), "label": "keeper"})
	assert.NilError(t, err)
	drop, err := tbl.Insert(map[string]any{"id": float64(2), "count": float64(2), "label": "dropped"})
	assert.NilError(t, err)
	_ = drop
	assert.NilError(t, tbl.EraseOne(drop))

	_ = keep
	stats, err := tbl.Rebuild()
	assert.NilError(t, err)
	assert.Equal(t, int64(1), stats.RecordCount)
	assert.Equal(t, int64(1), stats.DeadRecordCount)

	count, err := tbl.RecordCount()
	assert.NilError(t, err)
	assert.Equal(t, int64(1), count)

	preds, err := ParseWhere(tbl.Schema, map[string]any{"label": "keeper"})
	assert.NilError(t, err)
	rec, found, err := tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Equal(t, rec["label"], "keeper")
}

func TestStringHashFastPath(t *testing.T) {
	tbl, dir := createTestTable(t, widgetColumns())
	defer os.RemoveAll(dir)
	defer tbl.Close()

	_, err := tbl.Insert(map[string]any{"id": float64(1), "count": float64(1), "label": "needle"})
	assert.NilError(t, err)

	preds, err := ParseWhere(tbl.Schema, map[string]any{"label": "haystack"})
	assert.NilError(t, err)
	_, found, err := tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, !found)

	preds, err = ParseWhere(tbl.Schema, map[string]any{"label": map[string]any{"contains": "eed"}})
	assert.NilError(t, err)
	_, found, err = tbl.FindOne(preds, nil)
	assert.NilError(t, err)
	assert.Assert(t, found)
}

func TestTooManyColumnsRejected(t *testing.T) {
	cols := make([]Column, MaxColumns+1)
	for i := range cols {
		cols[i] = Column{Name: "col_" + string(rune('a'+i)), Kind: KindByte}
	}
	_, err := NewSchema(cols)
	assert.ErrorContains(t, err, "too_many_columns")
}

func TestDuplicateColumnNameRejected(t *testing.T) {
	_, err := NewSchema([]Column{
		{Name: "dup", Kind: KindByte},
		{Name: "dup", Kind: KindInteger},
	})
	assert.ErrorContains(t, err, "duplicate column name")
}
