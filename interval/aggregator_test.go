package interval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaolab/aletsch-core/interval"
)

func weightAt(t *testing.T, ivs []interval.WeightedInterval, p interval.PosType) float64 {
	t.Helper()
	for _, iv := range ivs {
		if p >= iv.L && p < iv.R {
			return iv.Weight
		}
	}
	return 0
}

func TestAggregatorSplitsOverlappingIntervals(t *testing.T) {
	a := interval.NewAggregator()
	a.Add(100, 200, 3)
	a.Add(150, 250, 5)

	ivs := a.Intervals()
	assert.Equal(t, float64(3), weightAt(t, ivs, 120))
	assert.Equal(t, float64(8), weightAt(t, ivs, 170))
	assert.Equal(t, float64(5), weightAt(t, ivs, 220))
}

func TestAggregatorAssociativeAndCommutative(t *testing.T) {
	type ins struct {
		l, r interval.PosType
		w    float64
	}
	forward := []ins{{100, 200, 3}, {150, 250, 5}, {50, 120, 2}, {180, 300, 1}}

	a := interval.NewAggregator()
	for _, x := range forward {
		a.Add(x.l, x.r, x.w)
	}

	b := interval.NewAggregator()
	for i := len(forward) - 1; i >= 0; i-- {
		x := forward[i]
		b.Add(x.l, x.r, x.w)
	}

	for p := interval.PosType(40); p < 310; p++ {
		assert.Equal(t, weightAt(t, a.Intervals(), p), weightAt(t, b.Intervals(), p), "position %d", p)
	}
}

func TestAggregatorIntervalsAreAscendingAndDisjoint(t *testing.T) {
	a := interval.NewAggregator()
	a.Add(10, 20, 1)
	a.Add(15, 30, 2)
	a.Add(5, 8, 4)

	ivs := a.Intervals()
	for i := 1; i < len(ivs); i++ {
		assert.LessOrEqual(t, ivs[i-1].R, ivs[i].L)
		assert.True(t, ivs[i-1].L < ivs[i-1].R)
	}
}

func TestAggregatorRejectsBadInterval(t *testing.T) {
	a := interval.NewAggregator()
	assert.Panics(t, func() { a.Add(10, 10, 1) })
	assert.Panics(t, func() { a.Add(10, 5, 1) })
	assert.Panics(t, func() { a.Add(10, 20, -1) })
}
