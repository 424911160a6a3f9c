package constraint

import (
	"fmt"
	"math/bits"

	"github.com/mcroute/mcroute/container/rtdef"
)

// KeyRequirements is the resolved form of KeyAllocator constraints on one partition.
type KeyRequirements struct {
	// Fixed is set when both key and mask are fixed.
	Fixed *rtdef.KeyAndMask
	// Mask is set when the mask is fixed; also set when Fixed is set.
	Mask *uint32
	// Fields are fixed fields inside the mask.
	Fields rtdef.FieldSet
	// NKeys overrides the partition key count when positive.
	NKeys int
	// Contiguous requires a single contiguous key range.
	Contiguous bool
	// Alignment is the required alignment of the base key; 0 means none.
	Alignment uint32

	// Count is the number of KeyAllocator constraints resolved.
	Count int
	// MaxRank is the highest rank among resolved constraints.
	MaxRank int
}

// ResolveKeys resolves KeyAllocator constraints in list.
// Returns InvalidConstraintError when constraints are malformed or contradictory.
func ResolveKeys(list List) (req KeyRequirements, e error) {
	fail := func(format string, args ...any) (KeyRequirements, error) {
		return KeyRequirements{}, &rtdef.InvalidConstraintError{Reason: fmt.Sprintf(format, args...)}
	}

	for _, c := range list.WithTag(TagKeyAllocator) {
		if e := c.Validate(); e != nil {
			return fail("%v", e)
		}
		req.Count++
		if r := c.Rank(); r > req.MaxRank {
			req.MaxRank = r
		}

		switch c.Kind {
		case FixedKeyAndMask:
			km := rtdef.KeyAndMask{Key: c.Key, Mask: c.Mask}
			if req.Fixed != nil && *req.Fixed != km {
				return fail("conflicting fixed keys %s and %s", *req.Fixed, km)
			}
			if req.Mask != nil && *req.Mask != c.Mask {
				return fail("conflicting fixed masks %08X and %08X", *req.Mask, c.Mask)
			}
			req.Fixed, req.Mask = &km, &km.Mask
		case FixedMask:
			if req.Mask != nil && *req.Mask != c.Mask {
				return fail("conflicting fixed masks %08X and %08X", *req.Mask, c.Mask)
			}
			mask := c.Mask
			req.Mask = &mask
		case FixedField:
			merged := append(append(rtdef.FieldSet{}, req.Fields...), c.Fields...)
			if e := merged.Validate(); e != nil {
				return fail("%v", e)
			}
			req.Fields = merged
		case FixedNKeys:
			if req.NKeys != 0 && req.NKeys != c.NKeys {
				return fail("conflicting key counts %d and %d", req.NKeys, c.NKeys)
			}
			req.NKeys = c.NKeys
		case ContiguousRange:
			req.Contiguous = true
		case Alignment:
			if c.Alignment > req.Alignment {
				req.Alignment = c.Alignment
			}
		}
	}

	if e := req.check(); e != nil {
		return KeyRequirements{}, e
	}
	return req, nil
}

func (req KeyRequirements) check() error {
	fail := func(format string, args ...any) error {
		return &rtdef.InvalidConstraintError{Reason: fmt.Sprintf(format, args...)}
	}

	if req.Mask != nil {
		mask := *req.Mask
		if fm := req.Fields.Mask(); mask&fm != fm {
			return fail("fixed mask %08X does not cover fields %v", mask, req.Fields)
		}
		if req.Fixed != nil && !req.Fields.SatisfiedBy(*req.Fixed) {
			return fail("fixed key %s contradicts fields %v", *req.Fixed, req.Fields)
		}
		if req.NKeys > 0 && uint64(req.NKeys) > uint64(1)<<(rtdef.KeyBits-bits.OnesCount32(mask)) {
			return fail("fixed mask %08X cannot hold %d keys", mask, req.NKeys)
		}
		if req.Contiguous && !IsContiguousMask(mask) {
			return fail("fixed mask %08X is not contiguous", mask)
		}
		if req.Fixed != nil && req.Alignment > 0 && req.Fixed.Key&(req.Alignment-1) != 0 {
			return fail("fixed key %s is not aligned to %d", *req.Fixed, req.Alignment)
		}
	}
	return nil
}

// IsContiguousMask determines whether all don't-care bits of mask are trailing bits,
// so that matched keys form one contiguous range.
func IsContiguousMask(mask uint32) bool {
	flexible := ^mask
	return flexible&(flexible+1) == 0
}
