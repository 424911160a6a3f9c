package rtdef

import (
	"fmt"
	"math/bits"
)

// Field is a contiguous range of key bits [Lo,Hi] holding a fixed value.
// Field bits are significant in the partition mask.
type Field struct {
	Name  string `json:"name,omitempty"`
	Lo    int    `json:"lo"`
	Hi    int    `json:"hi"`
	Value uint32 `json:"value"`
}

// Width returns the number of bits.
func (f Field) Width() int {
	return f.Hi - f.Lo + 1
}

// Mask returns the field bits.
func (f Field) Mask() uint32 {
	if f.Width() >= KeyBits {
		return ^uint32(0)
	}
	return (uint32(1)<<f.Width() - 1) << f.Lo
}

// Key returns the fixed key bits.
func (f Field) Key() uint32 {
	return f.Value << f.Lo
}

// Validate checks bit range and value.
func (f Field) Validate() error {
	if f.Lo < 0 || f.Hi >= KeyBits || f.Lo > f.Hi {
		return fmt.Errorf("field %q bit range [%d,%d] invalid", f.Name, f.Lo, f.Hi)
	}
	if bits.Len32(f.Value) > f.Width() {
		return fmt.Errorf("field %q value %d does not fit in %d bits", f.Name, f.Value, f.Width())
	}
	return nil
}

func (f Field) String() string {
	return fmt.Sprintf("%s[%d:%d]=%d", f.Name, f.Hi, f.Lo, f.Value)
}

// FieldSet is a set of non-overlapping fields.
type FieldSet []Field

// Mask returns the union of field bits.
func (fs FieldSet) Mask() (m uint32) {
	for _, f := range fs {
		m |= f.Mask()
	}
	return m
}

// Key returns the union of fixed key bits.
func (fs FieldSet) Key() (k uint32) {
	for _, f := range fs {
		k |= f.Key()
	}
	return k
}

// Validate checks every field and ensures fields do not overlap.
func (fs FieldSet) Validate() error {
	var seen uint32
	for _, f := range fs {
		if e := f.Validate(); e != nil {
			return e
		}
		m := f.Mask()
		if seen&m != 0 {
			return fmt.Errorf("field %s overlaps another field", f)
		}
		seen |= m
	}
	return nil
}

// SatisfiedBy determines whether km fixes every field to its value.
func (fs FieldSet) SatisfiedBy(km KeyAndMask) bool {
	m := fs.Mask()
	return km.Mask&m == m && km.Key&m == fs.Key()
}
