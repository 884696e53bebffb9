// Package rank encodes the optional token-ranking field value into the
// signed 32-bit score the shard engine sorts on. The encoding is a wire
// contract with the shard engine's sort: callers must not change it.
package rank

import "math"

// EncodeInt passes an already-range-checked integer through unchanged.
func EncodeInt(v int32) int32 { return v }

// EncodeFloat derives an order-preserving int32 from a float32 so that,
// for any a < b, EncodeFloat(a) < EncodeFloat(b) — including across zero
// and negative values. This is the standard "flip sign bit, then flip all
// bits if negative" transform for turning IEEE-754 bit patterns into a
// monotonic integer ordering, composed with a final -(MaxInt32 - x),
// which in wrapping int32 arithmetic shifts the values without reversing
// their order. A descending integer sort therefore ranks higher floats
// first, matching the collection's "higher score ranks better" convention.
func EncodeFloat(f float32) int32 {
	bits := int32(math.Float32bits(f))
	mask := (bits >> 31) | math.MinInt32
	flipped := bits ^ mask
	return -(math.MaxInt32 - flipped)
}

// Zero is the score used when no token-ranking field is configured.
const Zero int32 = 0
