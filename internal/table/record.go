package table

import (
	"encoding/binary"
	"math"
)

// byteOrder is used for every multi-byte field in a record buffer,
// matching the little-endian choice made for the wire frame length and
// applied consistently on disk too.
var byteOrder = binary.LittleEndian

// Record flag bits: active (occupied) and available_optimisation (hint
// for rebuild).
const (
	flagActive                byte = 1 << 0
	flagAvailableOptimisation byte = 1 << 1
)

// hashedEntrySize is the on-record width of a string column: 8-byte hash
// + 4-byte size + 8-byte location (see column.go's width() doc).
const hashedEntrySize = 8 + 4 + 8

// hashedEntry is the inline reference to a dynamic (string) record.
type hashedEntry struct {
	Hash     uint64
	Size     uint32 // logical size including the NUL terminator
	Location uint64 // byte offset into dynamic.bin
}

func readHashedEntry(rec []byte, offset uint32) hashedEntry {
	return hashedEntry{
		Hash:     byteOrder.Uint64(rec[offset : offset+8]),
		Size:     byteOrder.Uint32(rec[offset+8 : offset+12]),
		Location: byteOrder.Uint64(rec[offset+12 : offset+20]),
	}
}

func writeHashedEntry(rec []byte, offset uint32, e hashedEntry) {
	byteOrder.PutUint64(rec[offset:offset+8], e.Hash)
	byteOrder.PutUint32(rec[offset+8:offset+12], e.Size)
	byteOrder.PutUint64(rec[offset+12:offset+20], e.Location)
}

// isActive reports whether a record buffer's flag byte has the active bit.
func isActive(rec []byte) bool { return rec[0]&flagActive != 0 }

func setActive(rec []byte, active bool) {
	if active {
		rec[0] |= flagActive
	} else {
		rec[0] &^= flagActive
	}
}

func setAvailableOptimisation(rec []byte, set bool) {
	if set {
		rec[0] |= flagAvailableOptimisation
	} else {
		rec[0] &^= flagAvailableOptimisation
	}
}

// Typed accessors narrow a reference into the record buffer without
// copying.

func readByte(rec []byte, c Column) byte { return rec[c.Offset] }

func writeByte(rec []byte, c Column, v byte) { rec[c.Offset] = v }

func readInteger(rec []byte, c Column) int32 {
	return int32(byteOrder.Uint32(rec[c.Offset : c.Offset+4]))
}

func writeInteger(rec []byte, c Column, v int32) {
	byteOrder.PutUint32(rec[c.Offset:c.Offset+4], uint32(v))
}

func readFloat(rec []byte, c Column) float32 {
	return math.Float32frombits(byteOrder.Uint32(rec[c.Offset : c.Offset+4]))
}

func writeFloat(rec []byte, c Column, v float32) {
	byteOrder.PutUint32(rec[c.Offset:c.Offset+4], math.Float32bits(v))
}

func readLong(rec []byte, c Column) int64 {
	return int64(byteOrder.Uint64(rec[c.Offset : c.Offset+8]))
}

func writeLong(rec []byte, c Column, v int64) {
	byteOrder.PutUint64(rec[c.Offset:c.Offset+8], uint64(v))
}
