// Package freespace tracks unallocated ranges of the routing key space.
package freespace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mcroute/mcroute/core/logging"
	"go.uber.org/zap"
)

var logger = logging.New("freespace")

// Errors.
var (
	ErrNoSpace    = errors.New("no free range fits the request")
	ErrAlignment  = errors.New("alignment is not a power of two")
	ErrNotFree    = errors.New("range is not free")
	ErrDoubleFree = errors.New("range overlaps free space")
	ErrOutside    = errors.New("range outside tracked space")
)

// Range is a half-open interval [Start, Start+Size).
type Range struct {
	Start uint64 `json:"start"`
	Size  uint64 `json:"size"`
}

// End returns the exclusive end.
func (r Range) End() uint64 {
	return r.Start + r.Size
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}

// Tracker tracks free ranges within [start, start+size).
// Free ranges are sorted, non-overlapping, and never adjacent.
type Tracker struct {
	space Range
	free  []Range
}

// New creates a Tracker where the whole space is free.
func New(start, size uint64) *Tracker {
	t := &Tracker{space: Range{start, size}}
	if size > 0 {
		t.free = []Range{t.space}
	}
	return t
}

// Space returns the tracked space.
func (t *Tracker) Space() Range {
	return t.space
}

// Ranges returns a copy of free ranges.
func (t *Tracker) Ranges() []Range {
	return append([]Range(nil), t.free...)
}

// FreeSize returns the total size of free ranges.
func (t *Tracker) FreeSize() (n uint64) {
	for _, r := range t.free {
		n += r.Size
	}
	return n
}

// Allocate claims size units at the lowest address where an aligned offset fits.
// alignment must be a power of two; 0 means no alignment.
func (t *Tracker) Allocate(size, alignment uint64) (start uint64, e error) {
	if alignment == 0 {
		alignment = 1
	}
	if alignment&(alignment-1) != 0 {
		return 0, ErrAlignment
	}
	if size == 0 {
		return 0, ErrNoSpace
	}

	for i, r := range t.free {
		start = alignUp(r.Start, alignment)
		if start < r.Start || start > r.End() || r.End()-start < size {
			continue
		}
		t.carve(i, Range{start, size})
		logger.Debug("allocate",
			zap.Uint64("start", start),
			zap.Uint64("size", size),
			zap.Uint64("alignment", alignment),
		)
		return start, nil
	}
	return 0, ErrNoSpace
}

// AllocateAt claims exactly [start, start+size), which must lie within one free range.
func (t *Tracker) AllocateAt(start, size uint64) error {
	i := t.find(start, size)
	if i < 0 {
		return ErrNotFree
	}
	t.carve(i, Range{start, size})
	return nil
}

// IsFree determines whether [start, start+size) lies within one free range.
func (t *Tracker) IsFree(start, size uint64) bool {
	return t.find(start, size) >= 0
}

// Free returns [start, start+size) to free space, merging with adjacent free ranges.
func (t *Tracker) Free(start, size uint64) error {
	if size == 0 {
		return nil
	}
	r := Range{start, size}
	if r.Start < t.space.Start || r.End() > t.space.End() || r.End() < r.Start {
		return ErrOutside
	}

	i := sort.Search(len(t.free), func(i int) bool { return t.free[i].Start >= r.Start })
	if i > 0 && t.free[i-1].End() > r.Start || i < len(t.free) && r.End() > t.free[i].Start {
		return ErrDoubleFree
	}

	mergePrev := i > 0 && t.free[i-1].End() == r.Start
	mergeNext := i < len(t.free) && r.End() == t.free[i].Start
	switch {
	case mergePrev && mergeNext:
		t.free[i-1].Size += r.Size + t.free[i].Size
		t.free = append(t.free[:i], t.free[i+1:]...)
	case mergePrev:
		t.free[i-1].Size += r.Size
	case mergeNext:
		t.free[i].Start = r.Start
		t.free[i].Size += r.Size
	default:
		t.free = append(t.free, Range{})
		copy(t.free[i+1:], t.free[i:])
		t.free[i] = r
	}
	return nil
}

// find returns index of the free range containing [start, start+size), or -1.
func (t *Tracker) find(start, size uint64) int {
	if size == 0 || start+size < start {
		return -1
	}
	i := sort.Search(len(t.free), func(i int) bool { return t.free[i].End() > start })
	if i < len(t.free) && t.free[i].Start <= start && start+size <= t.free[i].End() {
		return i
	}
	return -1
}

// carve removes sub from free range i, keeping leading and trailing remainders.
func (t *Tracker) carve(i int, sub Range) {
	r := t.free[i]
	var rem []Range
	if sub.Start > r.Start {
		rem = append(rem, Range{r.Start, sub.Start - r.Start})
	}
	if sub.End() < r.End() {
		rem = append(rem, Range{sub.End(), r.End() - sub.End()})
	}

	tail := append([]Range(nil), t.free[i+1:]...)
	t.free = append(append(t.free[:i], rem...), tail...)
}

func alignUp(x, alignment uint64) uint64 {
	return (x + alignment - 1) &^ (alignment - 1)
}
