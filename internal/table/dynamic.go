package table

import "github.com/leengari/vaultdb/internal/vaulterrors"

// dynamicHeaderSize is the fixed prefix of every dynamic record: an 8-byte
// back-pointer to the owning data record's offset, plus a 4-byte
// physical_size. physical_size counts the header itself, so the string
// content capacity available in place is physical_size - dynamicHeaderSize,
// per the update rule "new_size must be <= physical_size - header".
const dynamicHeaderSize = 8 + 4

type dynamicHeader struct {
	BackPointer  uint64
	PhysicalSize uint32
}

func readDynamicHeader(buf []byte) dynamicHeader {
	return dynamicHeader{
		BackPointer:  byteOrder.Uint64(buf[0:8]),
		PhysicalSize: byteOrder.Uint32(buf[8:12]),
	}
}

func writeDynamicHeader(buf []byte, h dynamicHeader) {
	byteOrder.PutUint64(buf[0:8], h.BackPointer)
	byteOrder.PutUint32(buf[8:12], h.PhysicalSize)
}

// appendDynamic appends a fresh, tightly-sized dynamic record (no spare
// capacity) holding content (string bytes plus NUL terminator) and
// returns its location and physical size. Used by Insert and by Update
// when an in-place write or in-place shrink is not possible.
func (t *Table) appendDynamic(ownerOffset int64, content []byte) (location uint64, physicalSize uint32, err error) {
	info, err := t.dynamic.Stat()
	if err != nil {
		return 0, 0, vaulterrors.New(vaulterrors.Internal, "stat dynamic.bin: %v", err)
	}
	loc := uint64(info.Size())
	physicalSize = uint32(dynamicHeaderSize + len(content))

	buf := make([]byte, physicalSize)
	writeDynamicHeader(buf, dynamicHeader{BackPointer: uint64(ownerOffset), PhysicalSize: physicalSize})
	copy(buf[dynamicHeaderSize:], content)

	if _, err := t.dynamic.WriteAt(buf, int64(loc)); err != nil {
		return 0, 0, vaulterrors.New(vaulterrors.Internal, "append dynamic record: %v", err)
	}
	return loc, physicalSize, nil
}

// dynamicCapacity reads just the physical_size field at location, to
// decide whether an update can overwrite in place.
func (t *Table) dynamicCapacity(location uint64) (uint32, error) {
	var hdr [dynamicHeaderSize]byte
	if _, err := t.dynamic.ReadAt(hdr[:], int64(location)); err != nil {
		return 0, vaulterrors.New(vaulterrors.Internal, "read dynamic header at %d: %v", location, err)
	}
	return readDynamicHeader(hdr[:]).PhysicalSize, nil
}

// readDynamicContent reads the logicalSize bytes of string content
// (including the NUL terminator) for a hashed-entry pointing at location.
func (t *Table) readDynamicContent(location uint64, logicalSize uint32) ([]byte, error) {
	buf := make([]byte, logicalSize)
	if _, err := t.dynamic.ReadAt(buf, int64(location)+dynamicHeaderSize); err != nil {
		return nil, vaulterrors.New(vaulterrors.Internal, "read dynamic content at %d: %v", location, err)
	}
	return buf, nil
}

// writeDynamicContentInPlace overwrites the leading len(content) bytes of
// a dynamic record's content area without touching its physical_size
// (capacity), used when an update fits in the existing allocation.
func (t *Table) writeDynamicContentInPlace(location uint64, content []byte) error {
	if _, err := t.dynamic.WriteAt(content, int64(location)+dynamicHeaderSize); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "write dynamic content at %d: %v", location, err)
	}
	return nil
}

// rewriteDynamicBackPointer updates the owner offset stored in a dynamic
// record's header, used by rebuild once the owning record has been
// copied to its new position in the compacted data file.
func (t *Table) rewriteDynamicBackPointer(location uint64, newOwnerOffset int64) error {
	var b [8]byte
	byteOrder.PutUint64(b[:], uint64(newOwnerOffset))
	if _, err := t.dynamic.WriteAt(b[:], int64(location)); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "rewrite dynamic back-pointer at %d: %v", location, err)
	}
	return nil
}

// stringWithTerminator appends the NUL terminator every stored string
// carries on disk.
func stringWithTerminator(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
