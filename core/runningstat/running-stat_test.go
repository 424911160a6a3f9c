package runningstat_test

import (
	"testing"

	"github.com/mcroute/mcroute/core/runningstat"
)

// https://en.wikipedia.org/w/index.php?title=Standard_deviation&oldid=821088286
// "Sample standard deviation of metabolic rate of Northern Fulmars" section "female"
var fulmars = []uint64{1091, 1490, 1956, 727, 1361, 1086}

func TestRunningStat(t *testing.T) {
	assert, _ := makeAR(t)

	var a runningstat.RunningStat
	s0 := a.Read()
	assert.EqualValues(0, s0.Count)
	assert.Zero(s0.Mean)
	assert.Nil(s0.Min)

	for _, x := range fulmars {
		a.Push(float64(x))
	}

	s := a.Read()
	assert.EqualValues(6, s.Count)
	assert.EqualValues(6, s.Len)
	assert.InDelta(1285.2, s.Mean, 0.1)
	assert.InDelta(421.10, s.Stdev, 0.1)
	assert.Nil(s.Min)

	half := s.Scale(0.5)
	assert.EqualValues(6, half.Count)
	assert.InDelta(642.6, half.Mean, 0.1)
	assert.InDelta(210.55, half.Stdev, 0.1)
	assert.Nil(half.Min)
}

func TestIntStat(t *testing.T) {
	assert, require := makeAR(t)

	var s runningstat.IntStat
	for _, x := range fulmars {
		s.Push(x)
	}
	snap := s.Read()
	require.NotNil(snap.Min)
	require.NotNil(snap.Max)
	assert.EqualValues(727, *snap.Min)
	assert.EqualValues(1956, *snap.Max)
	assert.InDelta(1285.2, snap.Mean, 0.1)

	half := snap.Scale(0.5)
	require.NotNil(half.Min)
	require.NotNil(half.Max)
	assert.EqualValues(363, *half.Min)
	assert.EqualValues(978, *half.Max)

	s.Init(4)
	for _, x := range fulmars {
		s.Push(x)
	}
	snap = s.Read()
	assert.EqualValues(6, snap.Count)
	assert.EqualValues(2, snap.Len) // inputs 0 and 4 are sampled
	assert.EqualValues(1091, *snap.Min)
	assert.EqualValues(1361, *snap.Max)
}
