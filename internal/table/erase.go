package table

// EraseOne tombstones the record at index: clears active, sets
// available_optimisation, and rewrites only the flag byte. Dynamic bytes
// are left in place for rebuild to reclaim.
// The caller holds the table's write lock and has confirmed index is
// currently active.
func (t *Table) EraseOne(index int64) error {
	return t.writeFlagAt(index, flagAvailableOptimisation)
}
