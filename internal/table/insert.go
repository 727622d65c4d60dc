package table

import "github.com/leengari/vaultdb/internal/crypto"

// Insert writes one new active record. Only columns present in values
// are written; string columns get a fresh dynamic record. The caller
// holds the table's write lock.
func (t *Table) Insert(values map[string]any) (int64, error) {
	rec := t.newRecordBuffer()
	setActive(rec, true)

	for name, raw := range values {
		idx, ok := t.Schema.ColumnByName(name)
		if !ok {
			return 0, unknownColumnErr(name)
		}
		c := t.Schema.Columns[idx]

		if c.Kind != KindString {
			if err := writeColumnValue(rec, c, raw); err != nil {
				return 0, err
			}
			continue
		}

		s, err := valueToString(c, raw)
		if err != nil {
			return 0, err
		}
		content := stringWithTerminator(s)
		location, _, err := t.appendDynamic(0, content)
		if err != nil {
			return 0, err
		}
		writeHashedEntry(rec, c.Offset, hashedEntry{
			Hash:     crypto.HashString([]byte(s)),
			Size:     uint32(len(content)),
			Location: location,
		})
	}

	index, err := t.appendRecord(rec)
	if err != nil {
		return 0, err
	}

	// The dynamic record's back-pointer is the owning record's byte
	// offset in data.bin, known only once the record has been placed.
	for _, c := range t.Schema.Columns {
		if c.Kind != KindString {
			continue
		}
		if _, present := values[c.Name]; !present {
			continue
		}
		entry := readHashedEntry(rec, c.Offset)
		if err := t.rewriteDynamicBackPointer(entry.Location, index*int64(t.Schema.RecordSize)); err != nil {
			return 0, err
		}
	}

	return index, nil
}
