package table

// ScanOptions configures a full scan over a table's active records.
type ScanOptions struct {
	// Direction is +1 for forward, -1 for reverse.
	Direction int
	// Limit caps the number of matching records visited; 0 means
	// unlimited.
	Limit int64
	// Where is the conjunction of predicates a record must satisfy.
	Where []Predicate
	// SeekWhere, if non-empty, locates the first record matching it in
	// scan order and resumes the main scan from there; if no record
	// matches, the scan falls back to the start.
	SeekWhere []Predicate
}

// VisitFunc is called for each matching active record. index is its slot
// index in data.bin; rec is a scratch buffer valid only for the duration
// of the call. Returning false stops the scan early.
type VisitFunc func(index int64, rec []byte) (keepGoing bool, err error)

// Scan walks data.bin in the requested direction, skipping inactive
// records, evaluating Where against each active record, and invoking
// visit for matches up to Limit.
func (t *Table) Scan(opts ScanOptions, visit VisitFunc) error {
	count, err := t.RecordCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	start := int64(0)
	if opts.Direction < 0 {
		start = count - 1
	}
	if len(opts.SeekWhere) > 0 {
		if idx, found, err := t.seek(count, opts.Direction, opts.SeekWhere); err != nil {
			return err
		} else if found {
			start = idx
		}
	}

	buf := t.newRecordBuffer()
	var visited int64

	for i := start; i >= 0 && i < count; i += int64(opts.Direction) {
		if err := t.readRecordAt(i, buf); err != nil {
			return err
		}
		if !isActive(buf) {
			continue
		}
		ok, err := t.matchAll(buf, opts.Where)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		keepGoing, err := visit(i, buf)
		if err != nil {
			return err
		}
		visited++
		if !keepGoing {
			return nil
		}
		if opts.Limit > 0 && visited >= opts.Limit {
			return nil
		}
	}
	return nil
}

// seek locates the first active record (in the given direction) matching
// seekWhere, returning its index and whether one was found.
func (t *Table) seek(count int64, direction int, seekWhere []Predicate) (int64, bool, error) {
	start := int64(0)
	if direction < 0 {
		start = count - 1
	}
	buf := t.newRecordBuffer()
	for i := start; i >= 0 && i < count; i += int64(direction) {
		if err := t.readRecordAt(i, buf); err != nil {
			return 0, false, err
		}
		if !isActive(buf) {
			continue
		}
		ok, err := t.matchAll(buf, seekWhere)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return i, true, nil
		}
	}
	return 0, false, nil
}
