package table

import "github.com/leengari/vaultdb/internal/vaulterrors"

// Kind is the closed set of column kinds a schema column can take.
type Kind byte

const (
	KindByte Kind = iota
	KindInteger
	KindFloat
	KindLong
	KindString
)

// width is the on-record byte width of each column kind. String is the
// fixed 20-byte hashed-entry (8-byte hash + 4-byte size + 8-byte
// location); the source material's "16-byte" label undercounts its own
// enumerated fields, which sum to 20 — this implementation treats the
// explicit field widths as ground truth over the rounded label (see
// DESIGN.md).
func (k Kind) width() uint32 {
	switch k {
	case KindByte:
		return 1
	case KindInteger:
		return 4
	case KindFloat:
		return 4
	case KindLong:
		return 8
	case KindString:
		return hashedEntrySize
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindLong:
		return "long"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire column-kind name onto a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "byte":
		return KindByte, true
	case "integer":
		return KindInteger, true
	case "float":
		return KindFloat, true
	case "long":
		return KindLong, true
	case "string":
		return KindString, true
	default:
		return 0, false
	}
}

// maxColumnNameLen and minColumnNameLen bound a column name's length, and
// the on-disk slot it is stored in (NUL padded).
const (
	minColumnNameLen = 2
	maxColumnNameLen = 32
	columnNameSlot   = 33 // room for a NUL terminator
)

// Column is one schema column: its kind and its offset into the fixed
// record layout. Index is implicit (position in Schema.Columns).
type Column struct {
	Name   string
	Kind   Kind
	Offset uint32
}

// Schema is a table's immutable, creation-time-fixed column list plus the
// derived record layout.
type Schema struct {
	Columns    []Column
	byName     map[string]int
	RecordSize uint32 // 1 flag byte + sum of column widths
}

// MaxColumns is the column-count boundary: creating a table with more
// columns than this fails with too_many_columns.
const MaxColumns = 20

// NewSchema validates and lays out columns in the order given, assigning
// each its byte offset. Column order fixes the binary record layout and
// is never revisited after creation.
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, vaulterrors.New(vaulterrors.DataInvalid, "table must have at least one column")
	}
	if len(columns) > MaxColumns {
		return nil, vaulterrors.Wrap(vaulterrors.TooManyColumns)
	}

	byName := make(map[string]int, len(columns))
	offset := uint32(1) // flag byte
	laidOut := make([]Column, len(columns))

	for i, c := range columns {
		if err := validateColumnName(c.Name); err != nil {
			return nil, err
		}
		if _, dup := byName[c.Name]; dup {
			return nil, vaulterrors.New(vaulterrors.DataInvalid, "duplicate column name %q", c.Name)
		}
		byName[c.Name] = i
		laidOut[i] = Column{Name: c.Name, Kind: c.Kind, Offset: offset}
		offset += c.Kind.width()
	}

	return &Schema{Columns: laidOut, byName: byName, RecordSize: offset}, nil
}

func validateColumnName(name string) error {
	if len(name) < minColumnNameLen || len(name) > maxColumnNameLen {
		return vaulterrors.New(vaulterrors.DataInvalid, "column name %q must be 2-32 characters", name)
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z')) {
			return vaulterrors.New(vaulterrors.DataInvalid, "column name %q must be lowercase letters and underscore", name)
		}
	}
	return nil
}

// ColumnByName looks up a column's index by name.
func (s *Schema) ColumnByName(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}
