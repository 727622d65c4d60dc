package crypto

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// StringHashSeed is the fixed seed every string column's hashed-entry is
// computed under.
const StringHashSeed uint64 = 8293236

// HashString computes the 64-bit hash stored in a string column's
// hashed-entry: SipHash-2-4 keyed by expanding StringHashSeed into a
// 16-byte key (k0 = seed, k1 = ^seed), applied to the string bytes
// excluding the NUL terminator. This mirrors the "each record protected
// by a distinct siphash, salt expanded into the 16-byte key" shape used
// by the pack's constant-database writers, adapted to a single fixed
// seed instead of a per-database random salt, since the hash must stay
// stable across restarts for lookups to keep working.
func HashString(data []byte) uint64 {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[0:8], StringHashSeed)
	binary.LittleEndian.PutUint64(key[8:16], ^StringHashSeed)

	h := siphash.New(key[:])
	h.Write(data)
	return h.Sum64()
}
