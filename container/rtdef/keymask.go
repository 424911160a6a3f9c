package rtdef

import (
	"fmt"
	"math/bits"
)

// KeyAndMask is a key space described by a key and a mask.
// A mask bit 1 marks a significant key bit.
// A normalized KeyAndMask has no key bit set outside the mask.
type KeyAndMask struct {
	Key  uint32 `json:"key"`
	Mask uint32 `json:"mask"`
}

// NewKeyAndMask creates a normalized KeyAndMask.
func NewKeyAndMask(key, mask uint32) KeyAndMask {
	return KeyAndMask{Key: key & mask, Mask: mask}
}

// Normalized determines whether no key bit is set outside the mask.
func (km KeyAndMask) Normalized() bool {
	return km.Key&^km.Mask == 0
}

// NFlexible returns the number of don't-care bits.
func (km KeyAndMask) NFlexible() int {
	return KeyBits - bits.OnesCount32(km.Mask)
}

// NKeys returns the number of keys matched, which may exceed 32 bits.
func (km KeyAndMask) NKeys() uint64 {
	return uint64(1) << km.NFlexible()
}

// Matches determines whether key matches.
func (km KeyAndMask) Matches(key uint32) bool {
	return key&km.Mask == km.Key&km.Mask
}

// Intersects determines whether some key matches both km and other.
func (km KeyAndMask) Intersects(other KeyAndMask) bool {
	return (km.Key^other.Key)&km.Mask&other.Mask == 0
}

// Merge returns the most specific KeyAndMask matching every key of km and other.
// Mask bits are kept only where both masks are set and both keys agree.
func (km KeyAndMask) Merge(other KeyAndMask) KeyAndMask {
	mask := km.Mask & other.Mask &^ (km.Key ^ other.Key)
	return NewKeyAndMask(km.Key, mask)
}

// KeyAt returns the i-th key, obtained by depositing the bits of i into the don't-care bits.
func (km KeyAndMask) KeyAt(i uint64) uint32 {
	return km.Key | Deposit(i, ^km.Mask)
}

// ChunkSize returns the size of each contiguous key range matched.
func (km KeyAndMask) ChunkSize() uint64 {
	return uint64(1) << bits.TrailingZeros32(km.Mask)
}

// NChunks returns the number of contiguous key ranges matched.
// The chunk size is determined by the trailing don't-care bits of the mask.
// There are 2^n chunks where n is the number of other don't-care bits.
func (km KeyAndMask) NChunks() uint64 {
	return uint64(1) << bits.OnesCount32(km.chunkSelector())
}

// EachChunk visits the contiguous key ranges matched in ascending order, as [start,start+size).
// It stops early when f returns false.
func (km KeyAndMask) EachChunk(f func(start, size uint64) bool) {
	size, upper := km.ChunkSize(), km.chunkSelector()
	for i, n := uint64(0), km.NChunks(); i < n; i++ {
		if !f(uint64(km.Key|Deposit(i, upper)), size) {
			return
		}
	}
}

func (km KeyAndMask) chunkSelector() uint32 {
	return ^km.Mask &^ uint32(km.ChunkSize()-1)
}

func (km KeyAndMask) String() string {
	return fmt.Sprintf("%08X/%08X", km.Key, km.Mask)
}

// Deposit scatters the low bits of v into positions of set bits in sel, lowest first.
func Deposit(v uint64, sel uint32) (r uint32) {
	for sel != 0 {
		bit := sel & -sel
		if v&1 != 0 {
			r |= bit
		}
		v >>= 1
		sel &^= bit
	}
	return r
}

// NextMatching returns the smallest key k >= from such that k&zero==0 and k&fixedMask==fixedValue.
// ok is false if no such key exists.
func NextMatching(from uint64, zero, fixedMask, fixedValue uint32) (k uint32, ok bool) {
	if fixedValue&^fixedMask != 0 || fixedValue&zero != 0 {
		return 0, false
	}
	free := ^(zero | fixedMask)
	n := uint64(1) << bits.OnesCount32(free)
	at := func(i uint64) uint64 { return uint64(fixedValue | Deposit(i, free)) }
	if at(n-1) < from {
		return 0, false
	}
	lo, hi := uint64(0), n-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if at(mid) >= from {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return uint32(at(lo)), true
}
