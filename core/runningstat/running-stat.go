// Package runningstat implements Knuth and Welford's method for computing the standard deviation.
package runningstat

import (
	"math/bits"
)

const maxSampleInterval = 1 << 30

// RunningStat collects statistics and allows computing mean and variance.
// Algorithm comes from https://www.johndcook.com/blog/standard_deviation/ .
// The zero value collects every input.
type RunningStat struct {
	i    uint64
	n    uint64
	mask uint64
	m1   float64
	m2   float64
}

// Init initializes the instance and clears existing data.
// sampleInterval: how often to collect sample, will be adjusted to next power of two and truncated between 1 and 2^30.
func (s *RunningStat) Init(sampleInterval int) {
	interval := uint64(1)
	if sampleInterval > 1 {
		interval = uint64(1) << bits.Len64(uint64(sampleInterval-1))
	}
	*s = RunningStat{mask: min(interval, maxSampleInterval) - 1}
}

// Push adds an input.
func (s *RunningStat) Push(x float64) {
	s.i++
	if (s.i-1)&s.mask != 0 {
		return
	}
	s.n++
	if s.n == 1 {
		s.m1, s.m2 = x, 0
		return
	}
	m1 := s.m1 + (x-s.m1)/float64(s.n)
	s.m2 += (x - s.m1) * (x - m1)
	s.m1 = m1
}

// Read returns current counters as Snapshot.
func (s *RunningStat) Read() Snapshot {
	return newSnapshot(s.i, s.n, s.m1, s.m2, false, 0, 0)
}

// IntStat is RunningStat over unsigned integers that also tracks minimum and maximum.
type IntStat struct {
	s   RunningStat
	min uint64
	max uint64
}

// Init initializes the instance and clears existing data.
func (s *IntStat) Init(sampleInterval int) {
	*s = IntStat{}
	s.s.Init(sampleInterval)
}

// Push adds an input.
func (s *IntStat) Push(x uint64) {
	n := s.s.n
	s.s.Push(float64(x))
	switch {
	case s.s.n == n:
	case n == 0:
		s.min, s.max = x, x
	default:
		s.min, s.max = min(s.min, x), max(s.max, x)
	}
}

// Read returns current counters as Snapshot.
func (s *IntStat) Read() Snapshot {
	return newSnapshot(s.s.i, s.s.n, s.s.m1, s.s.m2, s.s.n > 0, s.min, s.max)
}
