package table

import (
	"fmt"
	"os"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// metaMagic identifies a valid meta.bin file.
const metaMagic uint32 = 0xE4286A24

const (
	tableNameSlot   = 33 // name[33], NUL padded
	columnDescSize  = columnNameSlot + 1
	metaFixedHeader = 4 /*magic*/ + tableNameSlot + 4 /*num_columns*/ + 4 /*record_size*/ + 1 /*options*/
)

// metaOptions is a reserved options byte (currently unused bits) kept for
// forward compatibility with the on-disk format.
type metaOptions byte

func encodeMeta(name string, schema *Schema) []byte {
	buf := make([]byte, metaFixedHeader+len(schema.Columns)*columnDescSize)

	byteOrder.PutUint32(buf[0:4], metaMagic)
	putFixedString(buf[4:4+tableNameSlot], name)

	off := 4 + tableNameSlot
	byteOrder.PutUint32(buf[off:off+4], uint32(len(schema.Columns)))
	off += 4
	byteOrder.PutUint32(buf[off:off+4], schema.RecordSize)
	off += 4
	buf[off] = 0 // options
	off++

	for _, c := range schema.Columns {
		putFixedString(buf[off:off+columnNameSlot], c.Name)
		buf[off+columnNameSlot] = byte(c.Kind)
		off += columnDescSize
	}
	return buf
}

func decodeMeta(buf []byte) (name string, schema *Schema, err error) {
	if len(buf) < metaFixedHeader {
		return "", nil, vaulterrors.New(vaulterrors.Internal, "meta.bin truncated")
	}
	if magic := byteOrder.Uint32(buf[0:4]); magic != metaMagic {
		return "", nil, vaulterrors.New(vaulterrors.Internal, "meta.bin bad magic %#x", magic)
	}
	name = readFixedString(buf[4 : 4+tableNameSlot])

	off := 4 + tableNameSlot
	numColumns := byteOrder.Uint32(buf[off : off+4])
	off += 4
	// recordSize is recomputed from the schema below; stored value is a
	// cross-check only.
	storedRecordSize := byteOrder.Uint32(buf[off : off+4])
	off += 4
	off++ // options, currently unused

	expected := metaFixedHeader + int(numColumns)*columnDescSize
	if len(buf) < expected {
		return "", nil, vaulterrors.New(vaulterrors.Internal, "meta.bin truncated column descriptors")
	}

	columns := make([]Column, numColumns)
	for i := range columns {
		nm := readFixedString(buf[off : off+columnNameSlot])
		kind := Kind(buf[off+columnNameSlot])
		columns[i] = Column{Name: nm, Kind: kind}
		off += columnDescSize
	}

	schema, err = NewSchema(columns)
	if err != nil {
		return "", nil, fmt.Errorf("decode meta: %w", err)
	}
	if schema.RecordSize != storedRecordSize {
		return "", nil, vaulterrors.New(vaulterrors.Internal, "meta.bin record size mismatch: stored %d, computed %d", storedRecordSize, schema.RecordSize)
	}
	return name, schema, nil
}

func putFixedString(slot []byte, s string) {
	n := copy(slot, s)
	for i := n; i < len(slot); i++ {
		slot[i] = 0
	}
}

func readFixedString(slot []byte) string {
	n := 0
	for n < len(slot) && slot[n] != 0 {
		n++
	}
	return string(slot[:n])
}

func writeMetaFile(path string, name string, schema *Schema) error {
	return os.WriteFile(path, encodeMeta(name, schema), 0o644)
}

func readMetaFile(path string) (string, *Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return decodeMeta(buf)
}
