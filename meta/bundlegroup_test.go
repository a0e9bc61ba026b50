package meta_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaolab/aletsch-core/meta"
	"github.com/shaolab/aletsch-core/rnacore"
)

// graphWithSplices returns a CombinedGraph whose only relevant field for
// BundleGroup is its Splices set.
func graphWithSplices(positions ...rnacore.GenomicPosition) *meta.CombinedGraph {
	cb := meta.NewCombinedGraph()
	cb.Chrm = "chr1"
	cb.Strand = '+'
	sp := append([]rnacore.GenomicPosition(nil), positions...)
	sort.Slice(sp, func(i, j int) bool { return sp[i] < sp[j] })
	cb.Splices = sp
	return cb
}

func normalizeGroups(gvv [][]int) [][]int {
	out := make([][]int, len(gvv))
	for i, g := range gvv {
		c := append([]int(nil), g...)
		sort.Ints(c)
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

// Graphs 0 and 1 share 3 of a minimum of 4 splice positions (r=0.75), which
// clears a 0.7 round-one threshold; graph 2 shares nothing and stays
// isolated.
func TestBundleGroupHighSimilarityUnionsInRoundOne(t *testing.T) {
	gset := []*meta.CombinedGraph{
		graphWithSplices(100, 200, 300, 400),
		graphWithSplices(100, 200, 300, 500),
		graphWithSplices(700, 800),
	}
	cfg := meta.DefaultConfig(
		meta.WithGroupingSimilarity(0.7, 0.7),
		meta.WithMaxGroupSize(2),
		meta.WithMaxNumJunctionsToCombine(100),
	)
	bg := meta.NewBundleGroup("chr1", '+', cfg, gset)
	gvv := normalizeGroups(bg.Resolve())

	assert.Equal(t, [][]int{{2}, {0, 1}}, gvv)
}

// Round one's 0.9 threshold rejects the 0.75 pair outright, but round two's
// relaxed 0.5 threshold unions it.
func TestBundleGroupRoundTwoRelaxationRecoversWhatRoundOneMissed(t *testing.T) {
	gset := []*meta.CombinedGraph{
		graphWithSplices(100, 200, 300, 400),
		graphWithSplices(100, 200, 300, 500),
		graphWithSplices(700, 800),
	}
	cfg := meta.DefaultConfig(
		meta.WithGroupingSimilarity(0.9, 0.5),
		meta.WithMaxGroupSize(2),
		meta.WithMaxNumJunctionsToCombine(100),
	)
	bg := meta.NewBundleGroup("chr1", '+', cfg, gset)
	gvv := normalizeGroups(bg.Resolve())

	assert.Equal(t, [][]int{{2}, {0, 1}}, gvv)
}

// TestBundleGroupEveryIndexAppearsAtMostOnce checks that Resolve's output
// is a partition, exercised over a larger, more tangled input.
func TestBundleGroupEveryIndexAppearsAtMostOnce(t *testing.T) {
	gset := []*meta.CombinedGraph{
		graphWithSplices(1, 2, 3, 4),
		graphWithSplices(1, 2, 3, 5),
		graphWithSplices(1, 2, 3, 6),
		graphWithSplices(10, 11, 12, 13),
		graphWithSplices(20, 21),
	}
	cfg := meta.DefaultConfig(meta.WithGroupingSimilarity(0.6, 0.3), meta.WithMaxGroupSize(3))
	bg := meta.NewBundleGroup("chr1", '+', cfg, gset)
	gvv := bg.Resolve()

	seen := map[int]bool{}
	for _, g := range gvv {
		assert.GreaterOrEqual(t, len(g), 1)
		for _, idx := range g {
			assert.False(t, seen[idx], "index %d grouped twice", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, len(gset))
}

// TestBundleGroupMaxGroupSizeNeverExceeded checks that eight identical graphs
// are never grouped past Cfg.MaxGroupSize: once a component reaches the cap,
// the union policy stops adding to it.
func TestBundleGroupMaxGroupSizeNeverExceeded(t *testing.T) {
	gset := make([]*meta.CombinedGraph, 8)
	for i := range gset {
		gset[i] = graphWithSplices(1, 2, 3, 4, 5, 6)
	}
	cfg := meta.DefaultConfig(meta.WithGroupingSimilarity(0.9, 0.5), meta.WithMaxGroupSize(3), meta.WithMaxNumJunctionsToCombine(100))
	bg := meta.NewBundleGroup("chr1", '+', cfg, gset)
	gvv := bg.Resolve()

	for _, g := range gvv {
		assert.LessOrEqual(t, len(g), 3)
	}
}
