// Package compress implements Ordered Covering router table compression.
//
// A table is a priority-ordered list of entries where the first matching entry wins.
// Compression merges pairs of entries that share a route into one generalized entry,
// reordering other entries when needed so that every key that matched an entry in the
// original table still resolves to the same route. Entries marked defaultable may be
// dropped when they are redundant with default routing.
package compress

import (
	"context"
	"fmt"
	"math/bits"
	"sort"

	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/logging"
	"go.uber.org/zap"
)

var logger = logging.New("compress")

// Result contains a compressed table and counters.
type Result struct {
	Table     rtdef.Table `json:"table"`
	Before    int         `json:"before"`
	Merges    int         `json:"merges"`
	Relocated int         `json:"relocated"`
	Dropped   int         `json:"dropped"`
}

// Compress compresses a router table to at most cfg.TargetLength entries.
//
// If the target cannot be reached, Result contains the smallest equivalent table found,
// and the error is *rtdef.MinimisationFailedError. The table is never truncated.
func Compress(ctx context.Context, cfg Config, table rtdef.Table) (res Result, e error) {
	cfg.ApplyDefaults()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout.Duration())
		defer cancel()
	}

	c := &compressor{
		cfg:     cfg,
		ctx:     ctx,
		entries: append([]rtdef.Entry(nil), table.Entries...),
	}
	c.Before = len(c.entries)
	budgetErr := c.run()

	c.Table = rtdef.Table{Router: table.Router, Entries: c.entries}
	if len(c.entries) > cfg.TargetLength {
		e = &rtdef.MinimisationFailedError{
			TargetLength: cfg.TargetLength,
			FinalLength:  len(c.entries),
			Router:       table.Router,
			Err:          budgetErr,
		}
	}

	logger.Debug("router compressed",
		table.Router.ZapField("router"),
		zap.Int("before", c.Before),
		zap.Int("after", len(c.entries)),
		zap.Int("merges", c.Merges),
		zap.Int("relocated", c.Relocated),
		zap.Int("dropped", c.Dropped),
		zap.Error(e),
	)
	return c.Result, e
}

type compressor struct {
	Result
	cfg     Config
	ctx     context.Context
	entries []rtdef.Entry
	// dropped are defaultable entries removed from the table.
	// Their keys must not be captured by an entry with a different route.
	dropped []rtdef.Entry
}

func (c *compressor) oversized() bool {
	return len(c.entries) > c.cfg.TargetLength
}

// run alternates between merging and dropping defaultable entries until the table fits.
// Returns non-nil if a budget stopped the search.
func (c *compressor) run() (budgetErr error) {
	for c.oversized() {
		for c.oversized() && budgetErr == nil {
			if !c.mergeOnce() {
				break
			}
			budgetErr = c.checkBudget()
		}
		if !c.oversized() || !c.dropDefaultable() || budgetErr != nil {
			break
		}
	}
	return budgetErr
}

func (c *compressor) checkBudget() error {
	if c.Merges >= c.cfg.MaxMerges {
		return fmt.Errorf("%w: %d merges", rtdef.ErrBudgetExceeded, c.Merges)
	}
	if e := c.ctx.Err(); e != nil {
		return fmt.Errorf("%w: %w", rtdef.ErrBudgetExceeded, e)
	}
	return nil
}

type candidate struct {
	i, j   int
	merged rtdef.KeyAndMask
	score  int
}

// candidates lists pairs of entries that share a route with no entry of the same route between them.
// More specific merged entries are preferred because they capture fewer foreign keys.
func (c *compressor) candidates() (list []candidate) {
	last := map[uint32]int{}
	for j, entry := range c.entries {
		route := uint32(entry.Route)
		if i, ok := last[route]; ok {
			merged := c.entries[i].Merge(entry.KeyAndMask)
			list = append(list, candidate{
				i:      i,
				j:      j,
				merged: merged,
				score:  bits.OnesCount32(merged.Mask),
			})
		}
		last[route] = j
	}
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].score > list[b].score
	})
	return list
}

// mergeOnce applies the first acceptable merge.
func (c *compressor) mergeOnce() bool {
	for _, cand := range c.candidates() {
		if relocate, ok := c.check(cand); ok {
			c.apply(cand, relocate)
			return true
		}
	}
	return false
}

// check determines whether a merge preserves routing of every matched key.
// relocate lists positions of entries that must be moved ahead of the merged entry.
func (c *compressor) check(cand candidate) (relocate []int, ok bool) {
	route := c.entries[cand.i].Route
	for _, d := range c.dropped {
		if d.Route != route && d.Intersects(cand.merged) {
			return nil, false
		}
	}

	moving := map[int]bool{}
	for k := cand.i + 1; k < len(c.entries); k++ {
		if k == cand.j {
			continue
		}
		entry := c.entries[k]
		if entry.Route == route || !entry.Intersects(cand.merged) {
			continue
		}
		for m := cand.i; m < k; m++ {
			if moving[m] {
				continue
			}
			if other := c.entries[m]; other.Route != entry.Route && other.Intersects(entry.KeyAndMask) {
				return nil, false
			}
		}
		moving[k] = true
		relocate = append(relocate, k)
	}
	return relocate, true
}

func (c *compressor) apply(cand candidate, relocate []int) {
	merged := rtdef.Entry{
		KeyAndMask:  cand.merged,
		Route:       c.entries[cand.i].Route,
		Defaultable: c.entries[cand.i].Defaultable && c.entries[cand.j].Defaultable,
	}

	moving := map[int]bool{cand.j: true}
	for _, k := range relocate {
		moving[k] = true
	}

	entries := make([]rtdef.Entry, 0, len(c.entries)-1)
	entries = append(entries, c.entries[:cand.i]...)
	for _, k := range relocate {
		entries = append(entries, c.entries[k])
	}
	entries = append(entries, merged)
	for k := cand.i + 1; k < len(c.entries); k++ {
		if !moving[k] {
			entries = append(entries, c.entries[k])
		}
	}

	c.entries = entries
	c.Merges++
	c.Relocated += len(relocate)
}

// dropDefaultable removes defaultable entries, lowest priority first, while the table is oversized.
// An entry is removed only if no lower-priority entry with a different route overlaps it,
// so that its keys become unmatched and follow default routing.
func (c *compressor) dropDefaultable() (dropped bool) {
	for p := len(c.entries) - 1; p >= 0 && c.oversized(); p-- {
		entry := c.entries[p]
		if !entry.Defaultable || c.shadowsLater(p) {
			continue
		}
		c.entries = append(c.entries[:p], c.entries[p+1:]...)
		c.dropped = append(c.dropped, entry)
		c.Dropped++
		dropped = true
	}
	return dropped
}

func (c *compressor) shadowsLater(p int) bool {
	entry := c.entries[p]
	for _, later := range c.entries[p+1:] {
		if later.Route != entry.Route && later.Intersects(entry.KeyAndMask) {
			return true
		}
	}
	return false
}
