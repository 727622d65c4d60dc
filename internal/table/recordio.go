package table

import "github.com/leengari/vaultdb/internal/vaulterrors"

// readRecordAt reads the record at slot index into buf, which must be at
// least Schema.RecordSize bytes (a reusable, caller-owned scratch buffer
// — callers grow their own buffer on demand instead of allocating per
// record).
func (t *Table) readRecordAt(index int64, buf []byte) error {
	rs := int64(t.Schema.RecordSize)
	if _, err := t.data.ReadAt(buf[:rs], index*rs); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "read record %d: %v", index, err)
	}
	return nil
}

// writeRecordAt writes buf (exactly RecordSize bytes) to slot index.
func (t *Table) writeRecordAt(index int64, buf []byte) error {
	rs := int64(t.Schema.RecordSize)
	if int64(len(buf)) != rs {
		return vaulterrors.New(vaulterrors.Internal, "record buffer size %d != record size %d", len(buf), rs)
	}
	if _, err := t.data.WriteAt(buf, index*rs); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "write record %d: %v", index, err)
	}
	return nil
}

// writeFlagAt rewrites just the one-byte flag prefix of slot index, used
// by Erase so the rest of the record (including its dynamic pointers) is
// left untouched until rebuild reclaims it.
func (t *Table) writeFlagAt(index int64, flags byte) error {
	rs := int64(t.Schema.RecordSize)
	if _, err := t.data.WriteAt([]byte{flags}, index*rs); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "write flag for record %d: %v", index, err)
	}
	return nil
}

// appendRecord appends buf as a new record slot and returns its index.
func (t *Table) appendRecord(buf []byte) (int64, error) {
	count, err := t.RecordCount()
	if err != nil {
		return 0, err
	}
	if err := t.writeRecordAt(count, buf); err != nil {
		return 0, err
	}
	return count, nil
}

// newRecordBuffer allocates a zeroed scratch buffer sized for this
// table's record layout.
func (t *Table) newRecordBuffer() []byte {
	return make([]byte, t.Schema.RecordSize)
}
