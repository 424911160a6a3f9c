// Package rtdef declares common data structures for multicast routing tables and key allocation.
package rtdef

import "errors"

// Limits.
const (
	// KeyBits is the width of a routing key.
	KeyBits = 32

	// KeySpaceSize is the number of distinct routing keys.
	KeySpaceSize = uint64(1) << KeyBits

	// DefaultTableCapacity is the number of entries a router table can hold.
	DefaultTableCapacity = 1023
)

// Errors.
var (
	ErrBudgetExceeded = errors.New("search budget exceeded")
)
