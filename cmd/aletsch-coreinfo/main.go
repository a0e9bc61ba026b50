package main

/*
aletsch-coreinfo is a smoke-test harness over the meta-assembly core: it
builds a handful of synthetic per-sample splice graphs, runs them through
BundleGroup and Assembler exactly as a real caller would, and prints the
resulting grouping and transcript counts. No alignment files are read and
no real BridgeSolver/Decomposer is wired in; it exists only to exercise
the library end to end.
*/

import (
	"flag"
	"fmt"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/shaolab/aletsch-core/meta"
	"github.com/shaolab/aletsch-core/rnacore"
)

var (
	numGraphs        = flag.Int("graphs", 4, "number of synthetic per-sample splice graphs to generate")
	maxThreads       = flag.Int("max-threads", 2, "BundleGroup/Assembler worker pool size")
	maxSimilarity    = flag.Float64("max-similarity", 0.8, "round-one grouping similarity threshold")
	minSimilarity    = flag.Float64("min-similarity", 0.3, "round-two grouping similarity threshold")
	maxGroupSize     = flag.Int("max-group-size", 8, "component size at which grouping stops merging further graphs")
	boundaryDistance = flag.Int("boundary-distance", 10, "max_group_boundary_distance")
)

// noopDecomposer stands in for the out-of-scope decomposition kernel: it
// returns a single-exon transcript spanning the graph's first internal
// vertex, just enough to produce a nonzero TranscriptSet for the printed
// summary.
type noopDecomposer struct{}

func (noopDecomposer) Decompose(gr *rnacore.SpliceGraph, hx *rnacore.HyperSet, cfg meta.Config) []meta.Transcript {
	if gr.NumVertices() < 3 {
		return nil
	}
	vi := gr.VertexInfo(1)
	return []meta.Transcript{{Exons: []rnacore.Interval{{L: vi.LPos, R: vi.RPos}}, Abundance: gr.VertexWeight(1)}}
}

// noopBridgeSolver reports every pooled fragment as bridged with an empty
// chain, the minimal single-region, no-intervening-junction case.
type noopBridgeSolver struct{}

func (noopBridgeSolver) Resolve(gr *rnacore.SpliceGraph, clusters []meta.PereadCluster, low, high int) []meta.BridgePath {
	out := make([]meta.BridgePath, len(clusters))
	for i := range out {
		out[i] = meta.BridgePath{Type: 0}
	}
	return out
}

func (noopBridgeSolver) BuildPhaseSet(ps *rnacore.PhaseSet) {}

// syntheticGraph builds a two-exon splice graph. Graphs 2k and 2k+1 are
// identical and each pair sits 1000 positions after the previous one, so
// that BundleGroup actually has something to cluster.
func syntheticGraph(i int) *rnacore.SpliceGraph {
	base := rnacore.GenomicPosition(1000 * (i / 2))
	g := rnacore.NewSpliceGraph()
	g.Chrm = "chr1"
	g.Strand = '+'
	g.AddVertex()
	v1 := g.AddVertex()
	v2 := g.AddVertex()
	g.AddVertex()
	g.SetVertexInfo(v1, rnacore.VertexInfo{LPos: base + 100, RPos: base + 200, Count: 1})
	g.SetVertexWeight(v1, 4)
	g.SetVertexInfo(v2, rnacore.VertexInfo{LPos: base + 300, RPos: base + 400, Count: 1})
	g.SetVertexWeight(v2, 4)
	g.SetVertexInfo(3, rnacore.VertexInfo{LPos: base + 400, RPos: base + 400})
	g.BuildVertexIndex()
	e0 := g.AddEdge(0, v1)
	g.SetEdgeInfo(e0, 3, 1)
	e1 := g.AddEdge(v1, v2)
	g.SetEdgeInfo(e1, 5, 1)
	e2 := g.AddEdge(v2, 3)
	g.SetEdgeInfo(e2, 3, 1)
	return g
}

func main() {
	flag.Parse()
	shutdown := grail.Init()
	defer shutdown()

	cfg := meta.DefaultConfig(
		meta.WithMaxThreads(*maxThreads),
		meta.WithGroupingSimilarity(*maxSimilarity, *minSimilarity),
		meta.WithMaxGroupSize(*maxGroupSize),
		meta.WithMaxGroupBoundaryDistance(int32(*boundaryDistance)),
	)

	gset := make([]*meta.CombinedGraph, *numGraphs)
	samples := make([]*meta.SampleProfile, *numGraphs)
	for i := 0; i < *numGraphs; i++ {
		gr := syntheticGraph(i)
		cb := meta.NewCombinedGraph()
		cb.Build(gr, rnacore.NewPhaseSet(), nil)
		cb.SampleID = i
		gset[i] = cb
		samples[i] = &meta.SampleProfile{SampleID: i, InsertSizeLow: 100, InsertSizeHigh: 400}
	}

	bg := meta.NewBundleGroup("chr1", '+', cfg, gset)
	gvv := bg.Resolve()
	log.Debug.Printf("bundle-group resolved %d input graphs into %d clusters", len(gset), len(gvv))

	a := meta.NewAssembler(cfg, noopBridgeSolver{}, noopDecomposer{})
	ts := meta.NewTranscriptSet()
	for instance, idxs := range gvv {
		members := make([]*meta.CombinedGraph, len(idxs))
		for k, idx := range idxs {
			members[k] = gset[idx]
		}
		if err := a.AssembleCluster(members, 0, instance, ts, samples); err != nil {
			log.Error.Printf("cluster %d: %v", instance, err)
		}
	}

	fmt.Printf("graphs=%d clusters=%d transcripts=%d combined-graphs=%d\n",
		len(gset), len(gvv), ts.Size(), ts.CombinedCount())
}
