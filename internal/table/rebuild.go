package table

import (
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

const (
	newDataFileName    = "data.new.bin"
	newDynamicFileName = "dynamic.new.bin"
)

// RebuildStats is the report returned by Rebuild.
type RebuildStats struct {
	RecordCount       int64
	DeadRecordCount   int64
	ShortDynamicCount int64
}

// Rebuild copy-compacts the table to new data/dynamic files and swaps
// them in atomically: new files are written under .new names and only
// renamed after successful completion; on failure, the .new files are
// removed and the original files are reopened. The caller holds the
// table's write lock; rebuild is not online.
func (t *Table) Rebuild() (RebuildStats, error) {
	newDataPath := filepath.Join(t.Path, newDataFileName)
	newDynamicPath := filepath.Join(t.Path, newDynamicFileName)

	stats, err := t.copyCompact(newDataPath, newDynamicPath)
	if err != nil {
		cleanupErr := multierr.Combine(
			os.Remove(newDataPath),
			os.Remove(newDynamicPath),
		)
		if cleanupErr != nil {
			return RebuildStats{}, vaulterrors.New(vaulterrors.Internal, "rebuild failed (%v) and cleanup failed (%v)", err, cleanupErr)
		}
		return RebuildStats{}, err
	}

	if err := t.swapIn(newDataPath, newDynamicPath); err != nil {
		return RebuildStats{}, err
	}

	return stats, nil
}

// copyCompact iterates every record, copying active ones (and their
// string columns' dynamic bytes, tightly sized) into the new files.
func (t *Table) copyCompact(newDataPath, newDynamicPath string) (RebuildStats, error) {
	count, err := t.RecordCount()
	if err != nil {
		return RebuildStats{}, err
	}

	newData, err := os.Create(newDataPath)
	if err != nil {
		return RebuildStats{}, vaulterrors.New(vaulterrors.Internal, "create %s: %v", newDataFileName, err)
	}
	defer newData.Close()

	newDynamic, err := os.Create(newDynamicPath)
	if err != nil {
		return RebuildStats{}, vaulterrors.New(vaulterrors.Internal, "create %s: %v", newDynamicFileName, err)
	}
	defer newDynamic.Close()

	rs := int64(t.Schema.RecordSize)
	stats := RebuildStats{}
	buf := t.newRecordBuffer()
	var writeIndex int64

	for i := int64(0); i < count; i++ {
		if err := t.readRecordAt(i, buf); err != nil {
			return RebuildStats{}, err
		}
		if !isActive(buf) {
			stats.DeadRecordCount++
			continue
		}
		if buf[0]&flagAvailableOptimisation != 0 {
			stats.ShortDynamicCount++
		}

		for _, c := range t.Schema.Columns {
			if c.Kind != KindString {
				continue
			}
			entry := readHashedEntry(buf, c.Offset)
			content, err := t.readDynamicContent(entry.Location, entry.Size)
			if err != nil {
				return RebuildStats{}, err
			}

			loc, err := appendDynamicTo(newDynamic, writeIndex*rs, content)
			if err != nil {
				return RebuildStats{}, err
			}
			writeHashedEntry(buf, c.Offset, hashedEntry{Hash: entry.Hash, Size: entry.Size, Location: loc})
		}

		buf[0] &^= flagAvailableOptimisation
		if _, err := newData.WriteAt(buf, writeIndex*rs); err != nil {
			return RebuildStats{}, vaulterrors.New(vaulterrors.Internal, "write compacted record: %v", err)
		}
		writeIndex++
		stats.RecordCount++
	}

	return stats, nil
}

// appendDynamicTo writes a tightly-sized dynamic record for content at
// the end of dst, whose owning record will live at data-file offset
// ownerOffset, returning the new record's location.
func appendDynamicTo(dst *os.File, ownerOffset int64, content []byte) (uint64, error) {
	info, err := dst.Stat()
	if err != nil {
		return 0, vaulterrors.New(vaulterrors.Internal, "stat new dynamic file: %v", err)
	}
	loc := uint64(info.Size())
	physicalSize := uint32(dynamicHeaderSize + len(content))

	buf := make([]byte, physicalSize)
	writeDynamicHeader(buf, dynamicHeader{BackPointer: uint64(ownerOffset), PhysicalSize: physicalSize})
	copy(buf[dynamicHeaderSize:], content)

	if _, err := dst.WriteAt(buf, int64(loc)); err != nil {
		return 0, vaulterrors.New(vaulterrors.Internal, "append compacted dynamic record: %v", err)
	}
	return loc, nil
}

// swapIn closes the table's current files, replaces them with the
// compacted .new files, and reopens.
func (t *Table) swapIn(newDataPath, newDynamicPath string) error {
	t.data.Close()
	t.dynamic.Close()

	dataPath := filepath.Join(t.Path, dataFileName)
	dynamicPath := filepath.Join(t.Path, dynamicFileName)

	if err := os.Remove(dataPath); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "remove old data.bin: %v", err)
	}
	if err := os.Rename(newDataPath, dataPath); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "rename compacted data.bin: %v", err)
	}
	if err := os.Remove(dynamicPath); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "remove old dynamic.bin: %v", err)
	}
	if err := os.Rename(newDynamicPath, dynamicPath); err != nil {
		return vaulterrors.New(vaulterrors.Internal, "rename compacted dynamic.bin: %v", err)
	}

	data, err := os.OpenFile(dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return vaulterrors.New(vaulterrors.Internal, "reopen data.bin: %v", err)
	}
	dynamic, err := os.OpenFile(dynamicPath, os.O_RDWR, 0o644)
	if err != nil {
		data.Close()
		return vaulterrors.New(vaulterrors.Internal, "reopen dynamic.bin: %v", err)
	}

	t.data = data
	t.dynamic = dynamic
	return nil
}
