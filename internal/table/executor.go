package table

// FindOne returns the first active record matching where, projected to
// returnCols (or all columns if empty), and whether a match was found.
// Scan direction is always forward for a single-result find.
func (t *Table) FindOne(where []Predicate, returnCols []string) (map[string]any, bool, error) {
	var found map[string]any
	err := t.Scan(ScanOptions{Direction: 1, Where: where}, func(index int64, rec []byte) (bool, error) {
		m, err := t.RecordToMap(rec, returnCols)
		if err != nil {
			return false, err
		}
		found = m
		return false, nil
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// FindMany returns every active record matching opts, in scan order, up
// to opts.Limit, projected to returnCols.
func (t *Table) FindMany(opts ScanOptions, returnCols []string) ([]map[string]any, error) {
	var results []map[string]any
	err := t.Scan(opts, func(index int64, rec []byte) (bool, error) {
		m, err := t.RecordToMap(rec, returnCols)
		if err != nil {
			return false, err
		}
		results = append(results, m)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateMany applies changes to every active record matching opts, up to
// opts.Limit, returning the number of records updated.
func (t *Table) UpdateMany(opts ScanOptions, changes map[string]any) (int64, error) {
	var indexes []int64
	err := t.Scan(opts, func(index int64, rec []byte) (bool, error) {
		indexes = append(indexes, index)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	for _, idx := range indexes {
		if err := t.UpdateOne(idx, changes); err != nil {
			return 0, err
		}
	}
	return int64(len(indexes)), nil
}

// EraseMany tombstones every active record matching opts, up to
// opts.Limit, returning the number of records erased.
func (t *Table) EraseMany(opts ScanOptions) (int64, error) {
	var indexes []int64
	err := t.Scan(opts, func(index int64, rec []byte) (bool, error) {
		indexes = append(indexes, index)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	for _, idx := range indexes {
		if err := t.EraseOne(idx); err != nil {
			return 0, err
		}
	}
	return int64(len(indexes)), nil
}
