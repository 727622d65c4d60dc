package table

import (
	"strings"

	"github.com/leengari/vaultdb/internal/crypto"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// Predicate is one column's compiled condition from a decoded `where`
// object. Exactly one of the numeric or string fields is populated,
// matching the column's Kind.
type Predicate struct {
	Column Column

	// numeric bounds (byte/integer/long columns are compared as int64,
	// float columns as float64 — kept separate rather than coerced
	// through a single numeric type, since a long value can exceed
	// float64's exact integer range).
	IntEq, IntGT, IntLT, IntGTE, IntLTE           *int64
	FloatEq, FloatGT, FloatLT, FloatGTE, FloatLTE *float64

	StrEq       *string
	StrContains *string
}

// ParseWhere compiles a decoded `where` object into predicates, one per
// named column. Unknown columns or ill-typed predicate shapes fail with
// params_invalid.
func ParseWhere(schema *Schema, where map[string]any) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(where))
	for name, raw := range where {
		idx, ok := schema.ColumnByName(name)
		if !ok {
			return nil, vaulterrors.New(vaulterrors.ParamsInvalid, "unknown column %q", name)
		}
		col := schema.Columns[idx]
		p, err := parsePredicate(col, raw)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func parsePredicate(col Column, raw any) (Predicate, error) {
	p := Predicate{Column: col}

	if col.Kind == KindString {
		switch v := raw.(type) {
		case string:
			p.StrEq = &v
			return p, nil
		case map[string]any:
			if c, ok := v["contains"]; ok {
				s, ok := c.(string)
				if !ok {
					return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: contains must be a string", col.Name)
				}
				p.StrContains = &s
				return p, nil
			}
			return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: unsupported string predicate", col.Name)
		default:
			return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: predicate must be a string or object", col.Name)
		}
	}

	// Numeric column: either a direct value (equality) or an object of
	// named bounds, any subset, all of which must hold.
	switch v := raw.(type) {
	case float64:
		return numericEquality(col, v)
	case map[string]any:
		return numericBounds(col, v)
	default:
		return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: predicate must be a number or object", col.Name)
	}
}

func numericEquality(col Column, v float64) (Predicate, error) {
	p := Predicate{Column: col}
	if col.Kind == KindFloat {
		f := v
		p.FloatEq = &f
		return p, nil
	}
	n := int64(v)
	if float64(n) != v {
		return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: non-integral value for %s column", col.Name, col.Kind)
	}
	p.IntEq = &n
	return p, nil
}

func numericBounds(col Column, obj map[string]any) (Predicate, error) {
	p := Predicate{Column: col}
	fields := map[string]**int64{
		"greater_than":          &p.IntGT,
		"less_than":             &p.IntLT,
		"greater_than_equal_to": &p.IntGTE,
		"less_than_equal_to":    &p.IntLTE,
	}
	floatFields := map[string]**float64{
		"greater_than":          &p.FloatGT,
		"less_than":             &p.FloatLT,
		"greater_than_equal_to": &p.FloatGTE,
		"less_than_equal_to":    &p.FloatLTE,
	}

	found := false
	for key, raw := range obj {
		f, ok := raw.(float64)
		if !ok {
			return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: bound %q must be a number", col.Name, key)
		}
		if col.Kind == KindFloat {
			slot, ok := floatFields[key]
			if !ok {
				return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: unsupported bound %q", col.Name, key)
			}
			val := f
			*slot = &val
		} else {
			slot, ok := fields[key]
			if !ok {
				return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: unsupported bound %q", col.Name, key)
			}
			n := int64(f)
			if float64(n) != f {
				return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: non-integral bound for %s column", col.Name, col.Kind)
			}
			*slot = &n
		}
		found = true
	}
	if !found {
		return p, vaulterrors.New(vaulterrors.ParamsInvalid, "column %q: empty predicate object", col.Name)
	}
	return p, nil
}

// matchAll reports whether rec satisfies every predicate (a conjunction),
// reading dynamic string bytes only when the cheap checks do not decide
// the outcome.
func (t *Table) matchAll(rec []byte, preds []Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := t.matchOne(rec, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (t *Table) matchOne(rec []byte, p Predicate) (bool, error) {
	c := p.Column
	switch c.Kind {
	case KindString:
		return t.matchString(rec, c, p)
	case KindFloat:
		v := float64(readFloat(rec, c))
		if p.FloatEq != nil && v != *p.FloatEq {
			return false, nil
		}
		if p.FloatGT != nil && !(v > *p.FloatGT) {
			return false, nil
		}
		if p.FloatLT != nil && !(v < *p.FloatLT) {
			return false, nil
		}
		if p.FloatGTE != nil && !(v >= *p.FloatGTE) {
			return false, nil
		}
		if p.FloatLTE != nil && !(v <= *p.FloatLTE) {
			return false, nil
		}
		return true, nil
	default:
		v := readColumnInt(rec, c)
		if p.IntEq != nil && v != *p.IntEq {
			return false, nil
		}
		if p.IntGT != nil && !(v > *p.IntGT) {
			return false, nil
		}
		if p.IntLT != nil && !(v < *p.IntLT) {
			return false, nil
		}
		if p.IntGTE != nil && !(v >= *p.IntGTE) {
			return false, nil
		}
		if p.IntLTE != nil && !(v <= *p.IntLTE) {
			return false, nil
		}
		return true, nil
	}
}

func readColumnInt(rec []byte, c Column) int64 {
	switch c.Kind {
	case KindByte:
		return int64(readByte(rec, c))
	case KindInteger:
		return int64(readInteger(rec, c))
	case KindLong:
		return readLong(rec, c)
	default:
		return 0
	}
}

// matchString implements the fast-pathed string comparison: length
// check, then hash check, then (only for a surviving candidate) a
// byte-for-byte read of the dynamic content.
func (t *Table) matchString(rec []byte, c Column, p Predicate) (bool, error) {
	entry := readHashedEntry(rec, c.Offset)

	if p.StrEq != nil {
		want := *p.StrEq
		if entry.Size != uint32(len(want)+1) {
			return false, nil
		}
		if entry.Hash != crypto.HashString([]byte(want)) {
			return false, nil
		}
		content, err := t.readDynamicContent(entry.Location, entry.Size)
		if err != nil {
			return false, err
		}
		return string(content[:len(content)-1]) == want, nil
	}

	if p.StrContains != nil {
		content, err := t.readDynamicContent(entry.Location, entry.Size)
		if err != nil {
			return false, err
		}
		s := string(content[:len(content)-1])
		return strings.Contains(s, *p.StrContains), nil
	}

	return true, nil
}
