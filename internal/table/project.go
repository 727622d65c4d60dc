package table

import "github.com/leengari/vaultdb/internal/vaulterrors"

// RecordToMap assembles a record's columns into a JSON-friendly map. If
// only is non-empty, the result is restricted to those column names,
// backing the request's optional "return" column list.
func (t *Table) RecordToMap(rec []byte, only []string) (map[string]any, error) {
	cols := t.Schema.Columns
	if len(only) > 0 {
		cols = make([]Column, 0, len(only))
		for _, name := range only {
			idx, ok := t.Schema.ColumnByName(name)
			if !ok {
				return nil, vaulterrors.New(vaulterrors.ParamsInvalid, "unknown column %q", name)
			}
			cols = append(cols, t.Schema.Columns[idx])
		}
	}

	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if c.Kind == KindString {
			entry := readHashedEntry(rec, c.Offset)
			content, err := t.readDynamicContent(entry.Location, entry.Size)
			if err != nil {
				return nil, err
			}
			out[c.Name] = string(content[:len(content)-1])
			continue
		}
		out[c.Name] = readColumnValue(rec, c)
	}
	return out, nil
}
