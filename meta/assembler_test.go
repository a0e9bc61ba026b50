package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaolab/aletsch-core/meta"
	"github.com/shaolab/aletsch-core/rnacore"
)

// stubDecomposer returns one fixed transcript per call, regardless of the
// graph passed in, enough to exercise Assembler's plumbing without
// depending on the out-of-scope decomposition kernel.
type stubDecomposer struct{ calls int }

func (d *stubDecomposer) Decompose(gr *rnacore.SpliceGraph, hx *rnacore.HyperSet, cfg meta.Config) []meta.Transcript {
	d.calls++
	return []meta.Transcript{{Exons: []rnacore.Interval{{L: 100, R: 200}}, Abundance: 1}}
}

// stubBridgeSolver marks every cluster bridged with an empty chain,
// exercising the append-without-chain path.
type stubBridgeSolver struct{}

func (stubBridgeSolver) Resolve(gr *rnacore.SpliceGraph, clusters []meta.PereadCluster, low, high int) []meta.BridgePath {
	out := make([]meta.BridgePath, len(clusters))
	for i := range out {
		out[i] = meta.BridgePath{Type: 0}
	}
	return out
}

func (stubBridgeSolver) BuildPhaseSet(ps *rnacore.PhaseSet) {}

func singletonCombinedGraph(t *testing.T, sampleID int) *meta.CombinedGraph {
	t.Helper()
	g := buildTestGraph(t)
	ps := rnacore.NewPhaseSet()
	cb := meta.NewCombinedGraph()
	cb.Build(g, ps, nil)
	cb.SampleID = sampleID
	return cb
}

func TestAssemblerAssembleClusterSingleton(t *testing.T) {
	dec := &stubDecomposer{}
	a := meta.NewAssembler(meta.DefaultConfig(), stubBridgeSolver{}, dec)
	ts := meta.NewTranscriptSet()
	cb := singletonCombinedGraph(t, 0)

	a.AssembleCluster([]*meta.CombinedGraph{cb}, 1, 0, ts, nil)

	assert.Equal(t, 1, dec.calls)
	assert.Equal(t, 1, ts.Size())
	assert.Equal(t, 1, ts.CombinedCount())
}

func TestAssemblerAssembleClusterMultiRunsConsensusAndMembers(t *testing.T) {
	dec := &stubDecomposer{}
	a := meta.NewAssembler(meta.DefaultConfig(), stubBridgeSolver{}, dec)
	ts := meta.NewTranscriptSet()

	g1 := singletonCombinedGraph(t, 0)
	g2 := singletonCombinedGraph(t, 0)
	samples := []*meta.SampleProfile{{SampleID: 0, InsertSizeLow: 100, InsertSizeHigh: 400}}

	a.AssembleCluster([]*meta.CombinedGraph{g1, g2}, 1, 0, ts, samples)

	// one decomposition per member plus one for the consensus
	assert.Equal(t, 3, dec.calls)
	require.Equal(t, 1, ts.Size()) // all three decompositions returned the same exon chain
}

