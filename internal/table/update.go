package table

import "github.com/leengari/vaultdb/internal/crypto"

// UpdateOne applies changes to the record at index: numeric columns
// write in place; string columns overwrite in place when they fit the
// existing dynamic allocation, shrink in place
// (flagging available_optimisation) when strictly shorter, or relocate
// to a fresh dynamic record at EOF otherwise, orphaning the old one for
// rebuild to reclaim. The caller holds the table's write lock and has
// already confirmed index is active.
func (t *Table) UpdateOne(index int64, changes map[string]any) error {
	rec := t.newRecordBuffer()
	if err := t.readRecordAt(index, rec); err != nil {
		return err
	}

	dirty := false
	for name, raw := range changes {
		idx, ok := t.Schema.ColumnByName(name)
		if !ok {
			return unknownColumnErr(name)
		}
		c := t.Schema.Columns[idx]

		if c.Kind != KindString {
			if err := writeColumnValue(rec, c, raw); err != nil {
				return err
			}
			dirty = true
			continue
		}

		s, err := valueToString(c, raw)
		if err != nil {
			return err
		}
		if err := t.updateStringColumn(index, rec, c, s); err != nil {
			return err
		}
		dirty = true
	}

	if !dirty {
		return nil
	}
	return t.writeRecordAt(index, rec)
}

// updateStringColumn implements the in-place/shrink/relocate decision
// for one string column of one record, mutating rec's hashed-entry as
// needed; the record itself is written back by the caller.
func (t *Table) updateStringColumn(recordIndex int64, rec []byte, c Column, newValue string) error {
	entry := readHashedEntry(rec, c.Offset)
	content := stringWithTerminator(newValue)
	newSize := uint32(len(content))

	capacity, err := t.dynamicCapacity(entry.Location)
	if err != nil {
		return err
	}
	available := capacity - dynamicHeaderSize

	if newSize <= available {
		if err := t.writeDynamicContentInPlace(entry.Location, content); err != nil {
			return err
		}
		if newSize < entry.Size {
			setAvailableOptimisation(rec, true)
		}
		writeHashedEntry(rec, c.Offset, hashedEntry{
			Hash:     crypto.HashString([]byte(newValue)),
			Size:     newSize,
			Location: entry.Location,
		})
		return nil
	}

	ownerOffset := recordIndex * int64(t.Schema.RecordSize)
	location, _, err := t.appendDynamic(ownerOffset, content)
	if err != nil {
		return err
	}
	writeHashedEntry(rec, c.Offset, hashedEntry{
		Hash:     crypto.HashString([]byte(newValue)),
		Size:     newSize,
		Location: location,
	})
	return nil
}
