// Package keyalloc assigns a non-overlapping key and mask to every outgoing partition.
package keyalloc

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/mcroute/mcroute/container/constraint"
	"github.com/mcroute/mcroute/container/freespace"
	"github.com/mcroute/mcroute/container/maskgen"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/logging"
	"github.com/mcroute/mcroute/graph"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var logger = logging.New("keyalloc")

// Errors.
var (
	ErrFixedInUse    = errors.New("fixed key range overlaps allocated keys")
	ErrFixedTooSmall = errors.New("fixed mask cannot hold required keys")
)

// request is a partition with resolved constraints.
type request struct {
	graph.Partition
	req   constraint.KeyRequirements
	nKeys int
	nBits int
}

// Allocator allocates keys and masks.
// It is single-writer: each allocation depends on ranges consumed by earlier ones.
type Allocator struct {
	cfg   Config
	space *freespace.Tracker
}

// New creates an Allocator over the full key space.
func New(cfg Config) *Allocator {
	cfg.ApplyDefaults()
	return &Allocator{
		cfg:   cfg,
		space: freespace.New(0, rtdef.KeySpaceSize),
	}
}

// FreeSpace returns the underlying free space tracker.
func (a *Allocator) FreeSpace() *freespace.Tracker {
	return a.space
}

// Allocate allocates keys and masks for partitions.
//
// All partitions are validated first; every invalid partition is reported as InvalidConstraintError.
// Then partitions are allocated from most constrained to least constrained:
// fixed key and mask first, then by constraint count, then by strongest constraint; ties keep input order.
// The first partition that cannot be satisfied stops allocation with AllocationError.
func (a *Allocator) Allocate(partitions []graph.Partition) (*RoutingInfo, error) {
	requests, e := resolve(partitions)
	if e != nil {
		return nil, e
	}

	sort.SliceStable(requests, func(i, j int) bool {
		ri, rj := requests[i].req, requests[j].req
		if fi, fj := ri.Fixed != nil, rj.Fixed != nil; fi != fj {
			return fi
		}
		if ri.Count != rj.Count {
			return ri.Count > rj.Count
		}
		return ri.MaxRank > rj.MaxRank
	})

	ri := NewRoutingInfo()
	for _, r := range requests {
		km, examined, e := a.allocateOne(r)
		if e != nil {
			logger.Error("allocation failed",
				zap.Stringer("partition", r.ID),
				zap.Int("nKeys", r.nKeys),
				zap.Int("masks-examined", examined),
				zap.Error(e),
			)
			return nil, &rtdef.AllocationError{Partition: r.ID.String(), Err: e}
		}
		logger.Debug("allocated",
			zap.Stringer("partition", r.ID),
			zap.Stringer("key-mask", km),
			zap.Int("nKeys", r.nKeys),
			zap.Int("masks-examined", examined),
		)
		ri.Add(r.ID, km)
	}

	logger.Info("key allocation complete",
		zap.Int("partitions", ri.Len()),
		zap.Uint64("free-keys", a.space.FreeSize()),
	)
	return ri, nil
}

func resolve(partitions []graph.Partition) (requests []request, e error) {
	errs := []error{}
	seen := map[graph.PartitionID]bool{}
	for _, p := range partitions {
		if seen[p.ID] {
			errs = append(errs, &rtdef.InvalidConstraintError{Partition: p.ID.String(), Reason: "duplicate partition"})
			continue
		}
		seen[p.ID] = true

		r := request{Partition: p}
		if r.req, e = constraint.ResolveKeys(p.Constraints); e != nil {
			var ice *rtdef.InvalidConstraintError
			if errors.As(e, &ice) {
				ice.Partition = p.ID.String()
			}
			errs = append(errs, e)
			continue
		}

		r.nKeys = p.NKeys
		if r.req.NKeys > 0 {
			r.nKeys = r.req.NKeys
		}
		if r.nKeys < 1 {
			r.nKeys = 1
		}
		r.nBits = maskgen.FlexibleBits(r.nKeys)

		if nFields := bits.OnesCount32(r.req.Fields.Mask()); r.req.Mask == nil && r.nBits+nFields > rtdef.KeyBits {
			errs = append(errs, &rtdef.InvalidConstraintError{
				Partition: p.ID.String(),
				Reason:    fmt.Sprintf("%d keys need %d flexible bits but fields occupy %d bits", r.nKeys, r.nBits, nFields),
			})
			continue
		}
		if r.req.Mask == nil && r.req.Contiguous {
			if low := uint32(1)<<r.nBits - 1; r.nBits < rtdef.KeyBits && r.req.Fields.Mask()&low != 0 {
				errs = append(errs, &rtdef.InvalidConstraintError{
					Partition: p.ID.String(),
					Reason:    fmt.Sprintf("contiguous range of %d bits collides with fields %v", r.nBits, r.req.Fields),
				})
				continue
			}
		}
		requests = append(requests, r)
	}
	return requests, multierr.Combine(errs...)
}

func (a *Allocator) allocateOne(r request) (km rtdef.KeyAndMask, examined int, e error) {
	if r.req.Fixed != nil {
		km = *r.req.Fixed
		if uint64(r.nKeys) > km.NKeys() {
			return km, 0, ErrFixedTooSmall
		}
		if !a.withinBudget(km) {
			return km, 0, rtdef.ErrBudgetExceeded
		}
		if !a.isFree(km) {
			return km, 0, ErrFixedInUse
		}
		a.claim(km)
		return km, 0, nil
	}

	masks, e := a.maskCandidates(r)
	if e != nil {
		return km, 0, e
	}
	overBudget := false
	for {
		mask, ok := masks.Next()
		if !ok {
			break
		}
		examined++
		if !a.withinBudget(rtdef.KeyAndMask{Mask: mask}) {
			overBudget = true
			continue
		}
		if key, ok := a.place(mask, r.req.Fields, r.req.Alignment); ok {
			return rtdef.NewKeyAndMask(key, mask), examined, nil
		}
	}

	if e = masks.Err(); e != nil {
		return km, examined, e
	}
	if overBudget {
		return km, examined, rtdef.ErrBudgetExceeded
	}
	return km, examined, freespace.ErrNoSpace
}

type maskSource interface {
	Next() (mask uint32, ok bool)
	Err() error
}

type fixedMask struct {
	mask uint32
	done bool
}

func (fm *fixedMask) Next() (mask uint32, ok bool) {
	if fm.done {
		return 0, false
	}
	fm.done = true
	return fm.mask, true
}

func (fm *fixedMask) Err() error {
	return nil
}

func (a *Allocator) maskCandidates(r request) (maskSource, error) {
	if r.req.Mask != nil {
		mask := *r.req.Mask
		if uint64(r.nKeys) > (rtdef.KeyAndMask{Mask: mask}).NKeys() {
			return nil, ErrFixedTooSmall
		}
		return &fixedMask{mask: mask}, nil
	}

	opts := []maskgen.Option{maskgen.WithBudget(a.cfg.MaskBudget)}
	if r.req.Contiguous {
		opts = append(opts, maskgen.WithContiguousOnly())
	}
	return maskgen.New(r.nBits, r.req.Fields, opts...)
}

// place finds and claims the lowest base key for mask, such that every key matched is free,
// fields hold their values, and the base key is aligned.
func (a *Allocator) place(mask uint32, fields rtdef.FieldSet, alignment uint32) (key uint32, ok bool) {
	if alignment == 0 {
		alignment = 1
	}
	chunkSize := rtdef.KeyAndMask{Mask: mask}.ChunkSize()

	if len(fields) == 0 && constraint.IsContiguousMask(mask) {
		start, e := a.space.Allocate(chunkSize, max(chunkSize, uint64(alignment)))
		if e != nil {
			return 0, false
		}
		return uint32(start), true
	}

	zero := ^mask | (alignment - 1)
	budget := a.cfg.SearchBudget
	for _, r := range a.space.Ranges() {
		pos := r.Start
		for budget > 0 {
			budget--
			k, ok := rtdef.NextMatching(pos, zero, fields.Mask(), fields.Key())
			if !ok {
				return 0, false
			}
			if uint64(k)+chunkSize > r.End() {
				break
			}
			if km := (rtdef.KeyAndMask{Key: k, Mask: mask}); a.isFree(km) {
				a.claim(km)
				return k, true
			}
			pos = uint64(k) + 1
		}
		if budget <= 0 {
			return 0, false
		}
	}
	return 0, false
}

// withinBudget determines whether km is split into few enough key ranges to be tracked individually.
func (a *Allocator) withinBudget(km rtdef.KeyAndMask) bool {
	return km.NChunks() <= uint64(a.cfg.SearchBudget)
}

func (a *Allocator) isFree(km rtdef.KeyAndMask) (free bool) {
	free = true
	km.EachChunk(func(start, size uint64) bool {
		free = a.space.IsFree(start, size)
		return free
	})
	return free
}

func (a *Allocator) claim(km rtdef.KeyAndMask) {
	km.EachChunk(func(start, size uint64) bool {
		if e := a.space.AllocateAt(start, size); e != nil {
			panic(fmt.Errorf("claim %s: %w", km, e))
		}
		return true
	})
}
