// Package maskgen enumerates candidate masks for a partition.
//
// A candidate mask has exactly n don't-care (flexible) bits, placed outside the bits
// occupied by fixed fields. Masks whose flexible bits form one contiguous run are
// enumerated before masks with scattered flexible bits, lowest positions first,
// because contiguous key ranges compress better in router tables.
package maskgen

import (
	"fmt"
	"math/bits"

	"github.com/mcroute/mcroute/container/rtdef"
)

// FlexibleBits returns ceil(log2(nKeys)), the number of flexible bits needed for nKeys keys.
func FlexibleBits(nKeys int) int {
	if nKeys <= 1 {
		return 0
	}
	return bits.Len(uint(nKeys - 1))
}

// Option configures a Generator.
type Option func(g *Generator)

// WithBudget limits the number of masks examined.
// When exceeded, Next returns false and Err returns rtdef.ErrBudgetExceeded.
func WithBudget(n int) Option {
	return func(g *Generator) {
		g.budget = n
	}
}

// WithContiguousOnly restricts candidates to masks whose flexible bits are the lowest n bits.
func WithContiguousOnly() Option {
	return func(g *Generator) {
		g.contiguousOnly = true
	}
}

type phase int

const (
	phaseContiguous phase = iota
	phaseScattered
	phaseDone
)

// Generator lazily enumerates candidate masks.
type Generator struct {
	n         int
	fieldMask uint32
	positions []int // bit positions not occupied by fields, ascending

	budget         int
	contiguousOnly bool
	examined       int
	err            error

	phase   phase
	runLo   int    // next contiguous run start, index into positions
	combo   uint64 // current combination over positions, as an index bitmask
	started bool
}

// New creates a Generator for n flexible bits outside the given fields.
// Returns InvalidConstraintError if fields are malformed or overlap,
// or if n flexible bits plus field bits exceed the key width.
func New(n int, fields rtdef.FieldSet, opts ...Option) (*Generator, error) {
	if e := fields.Validate(); e != nil {
		return nil, &rtdef.InvalidConstraintError{Reason: e.Error()}
	}
	fieldMask := fields.Mask()
	if n < 0 || n+bits.OnesCount32(fieldMask) > rtdef.KeyBits {
		return nil, &rtdef.InvalidConstraintError{
			Reason: fmt.Sprintf("%d flexible bits and %d field bits exceed %d-bit key", n, bits.OnesCount32(fieldMask), rtdef.KeyBits),
		}
	}

	g := &Generator{n: n, fieldMask: fieldMask}
	for pos := 0; pos < rtdef.KeyBits; pos++ {
		if fieldMask&(1<<pos) == 0 {
			g.positions = append(g.positions, pos)
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Err returns the error that stopped enumeration, if any.
func (g *Generator) Err() error {
	return g.err
}

// Examined returns the number of masks yielded so far.
func (g *Generator) Examined() int {
	return g.examined
}

// Next returns the next candidate mask.
// ok is false when enumeration is exhausted or the budget is exceeded.
func (g *Generator) Next() (mask uint32, ok bool) {
	if g.phase == phaseDone {
		return 0, false
	}

	flexible, ok := g.nextFlexible()
	if !ok {
		g.phase = phaseDone
		return 0, false
	}
	if g.budget > 0 && g.examined >= g.budget {
		g.phase, g.err = phaseDone, rtdef.ErrBudgetExceeded
		return 0, false
	}
	g.examined++
	return ^flexible, true
}

func (g *Generator) nextFlexible() (flexible uint32, ok bool) {
	if g.n == 0 {
		if g.started {
			return 0, false
		}
		g.started = true
		return 0, true
	}

	if g.phase == phaseContiguous {
		for ; g.runLo+g.n <= len(g.positions); g.runLo++ {
			lo := g.positions[g.runLo]
			if g.positions[g.runLo+g.n-1]-lo != g.n-1 {
				continue
			}
			if g.contiguousOnly && lo != 0 {
				break
			}
			g.runLo++
			return runMask(lo, g.n), true
		}
		if g.contiguousOnly {
			return 0, false
		}
		g.phase = phaseScattered
	}

	for {
		if !g.nextCombo() {
			return 0, false
		}
		flexible = 0
		for c := g.combo; c != 0; c &= c - 1 {
			flexible |= 1 << g.positions[bits.TrailingZeros64(c)]
		}
		if !isRun(flexible) {
			return flexible, true
		}
	}
}

// nextCombo advances to the next n-of-k combination in increasing numeric order (Gosper's hack).
func (g *Generator) nextCombo() bool {
	k := len(g.positions)
	if !g.started {
		g.started = true
		g.combo = uint64(1)<<g.n - 1
		return true
	}
	c := g.combo
	lowest := c & -c
	ripple := c + lowest
	c = (((ripple ^ c) >> 2) / lowest) | ripple
	if c >= uint64(1)<<k {
		return false
	}
	g.combo = c
	return true
}

func runMask(lo, n int) uint32 {
	if n >= rtdef.KeyBits {
		return ^uint32(0)
	}
	return (uint32(1)<<n - 1) << lo
}

func isRun(flexible uint32) bool {
	if flexible == 0 {
		return true
	}
	shifted := flexible >> bits.TrailingZeros32(flexible)
	return shifted&(shifted+1) == 0
}
