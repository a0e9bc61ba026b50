package meta

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/log"

	"github.com/shaolab/aletsch-core/interval"
	"github.com/shaolab/aletsch-core/rnacore"
)

// CombinedGraph is the per-locus summary a single sample (or an entire
// cluster of samples) contributes: regions, junctions, start/end boundaries,
// the splice positions touched by any junction, a PhaseSet, and the raw
// unbridged fragment clusters still awaiting a BridgeSolver.
type CombinedGraph struct {
	GID         string
	Chrm        string
	Strand      byte
	NumCombined int
	SampleID    int

	Regions []rnacore.Region
	SBounds []rnacore.Boundary
	TBounds []rnacore.Boundary
	// Junctions are keyed on (left-exon-end, right-exon-start).
	Junctions []rnacore.Junction
	// Splices is the sorted set of every position any Junction touches.
	Splices []rnacore.GenomicPosition

	Phases *rnacore.PhaseSet

	// Unbridged holds the fragment clusters collected from this sample's
	// alignments that a BridgeSolver has not yet resolved.
	Unbridged []PereadCluster
}

// NewCombinedGraph returns an empty CombinedGraph with an initialized
// PhaseSet.
func NewCombinedGraph() *CombinedGraph {
	return &CombinedGraph{Strand: '?', Phases: rnacore.NewPhaseSet()}
}

// CopyMetaInformation copies gid/chrm/strand from src, matching the
// source's copy_meta_information. cb keeps its own PhaseSet; Combine fills
// it from every contributing member, src included.
func (cb *CombinedGraph) CopyMetaInformation(src *CombinedGraph) {
	cb.GID = src.GID
	cb.Chrm = src.Chrm
	cb.Strand = src.Strand
}

// SetGID assigns the dotted instance.<instance>.<subindex>.0 name used for
// downstream bookkeeping.
func (cb *CombinedGraph) SetGID(instance, subindex int) {
	cb.GID = fmt.Sprintf("instance.%d.%d.0", instance, subindex)
}

// Build summarizes a single SpliceGraph and PhaseSet into cb, discarding any
// prior contents. ub is the set of unbridged fragment clusters collected
// while scanning this sample's alignments over the same locus.
func (cb *CombinedGraph) Build(gr *rnacore.SpliceGraph, ps *rnacore.PhaseSet, ub []PereadCluster) {
	cb.Chrm = gr.Chrm
	cb.Strand = gr.Strand
	cb.NumCombined = 1

	cb.buildRegions(gr)
	cb.buildStartBounds(gr)
	cb.buildEndBounds(gr)
	cb.buildSplicesJunctions(gr)

	cb.Phases = ps
	cb.Unbridged = ub
}

func (cb *CombinedGraph) buildRegions(gr *rnacore.SpliceGraph) {
	cb.Regions = cb.Regions[:0]
	n := gr.NumVertices() - 1
	for i := 1; i < n; i++ {
		if gr.InDegree(i)+gr.OutDegree(i) == 0 {
			continue
		}
		vi := gr.VertexInfo(i)
		cb.Regions = append(cb.Regions, rnacore.Region{
			Interval:      rnacore.Interval{L: vi.LPos, R: vi.RPos},
			WeightedCount: rnacore.WeightedCount{Weight: gr.VertexWeight(i), Count: 1},
		})
	}
}

func (cb *CombinedGraph) buildStartBounds(gr *rnacore.SpliceGraph) {
	cb.SBounds = cb.SBounds[:0]
	n := gr.NumVertices() - 1
	for _, e := range gr.OutEdges(0) {
		if e.T == n {
			continue
		}
		p := gr.VertexInfo(e.T).LPos
		cb.SBounds = append(cb.SBounds, rnacore.Boundary{Pos: p, WeightedCount: rnacore.WeightedCount{Weight: e.Weight, Count: 1}})
	}
}

func (cb *CombinedGraph) buildEndBounds(gr *rnacore.SpliceGraph) {
	cb.TBounds = cb.TBounds[:0]
	n := gr.NumVertices() - 1
	for _, e := range gr.InEdges(n) {
		if e.S == 0 {
			continue
		}
		p := gr.VertexInfo(e.S).RPos
		cb.TBounds = append(cb.TBounds, rnacore.Boundary{Pos: p, WeightedCount: rnacore.WeightedCount{Weight: e.Weight, Count: 1}})
	}
}

func (cb *CombinedGraph) buildSplicesJunctions(gr *rnacore.SpliceGraph) {
	cb.Junctions = cb.Junctions[:0]
	n := gr.NumVertices() - 1
	seen := map[rnacore.GenomicPosition]bool{}
	for _, e := range gr.Edges() {
		if e.S == 0 || e.T == n {
			continue
		}
		p1 := gr.VertexInfo(e.S).RPos
		p2 := gr.VertexInfo(e.T).LPos
		if p1 >= p2 {
			continue
		}
		cb.Junctions = append(cb.Junctions, rnacore.Junction{
			Interval:      rnacore.Interval{L: p1, R: p2},
			WeightedCount: rnacore.WeightedCount{Weight: e.Weight, Count: 1},
		})
		seen[p1] = true
		seen[p2] = true
	}
	cb.Splices = cb.Splices[:0]
	for p := range seen {
		cb.Splices = append(cb.Splices, p)
	}
	sort.Slice(cb.Splices, func(i, j int) bool { return cb.Splices[i] < cb.Splices[j] })
}

// GetOverlappedSplicePositions returns how many positions in v (assumed
// sorted) also appear in cb.Splices.
func (cb *CombinedGraph) GetOverlappedSplicePositions(v []rnacore.GenomicPosition) int {
	i, j, n := 0, 0, 0
	for i < len(v) && j < len(cb.Splices) {
		switch {
		case v[i] == cb.Splices[j]:
			n++
			i++
			j++
		case v[i] < cb.Splices[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Combine folds cb and every member of gv into cb's own fields, replacing
// them with the union (region coverage summed via interval.Aggregator,
// junctions/boundaries summed per distinct position), and accumulates every
// member's PhaseSet and NumCombined. Two passes: first every member
// (including cb itself) contributes into shared accumulators, then the
// accumulators are flattened back into cb.
func (cb *CombinedGraph) Combine(gv []*CombinedGraph) {
	if len(gv) == 0 {
		return
	}

	ragg := interval.NewAggregator()
	mj := map[rnacore.Interval]rnacore.WeightedCount{}
	ms := map[rnacore.GenomicPosition]rnacore.WeightedCount{}
	mt := map[rnacore.GenomicPosition]rnacore.WeightedCount{}

	cb.combineRegions(ragg)
	cb.combineJunctions(mj)
	cb.combineStartBounds(ms)
	cb.combineEndBounds(mt)

	for _, gt := range gv {
		gt.combineRegions(ragg)
		gt.combineJunctions(mj)
		gt.combineStartBounds(ms)
		gt.combineEndBounds(mt)
		cb.Phases.Combine(gt.Phases)
		cb.NumCombined += gt.NumCombined
	}

	cb.Regions = cb.Regions[:0]
	for _, iv := range ragg.Intervals() {
		if iv.Weight == 0 {
			continue
		}
		cb.Regions = append(cb.Regions, rnacore.Region{
			Interval:      rnacore.Interval{L: rnacore.GenomicPosition(iv.L), R: rnacore.GenomicPosition(iv.R)},
			WeightedCount: rnacore.WeightedCount{Weight: iv.Weight, Count: 1},
		})
	}

	cb.Junctions = cb.Junctions[:0]
	seen := map[rnacore.GenomicPosition]bool{}
	for p, d := range mj {
		cb.Junctions = append(cb.Junctions, rnacore.Junction{Interval: p, WeightedCount: d})
		seen[p.L] = true
		seen[p.R] = true
	}
	sort.Slice(cb.Junctions, func(i, j int) bool {
		if cb.Junctions[i].L != cb.Junctions[j].L {
			return cb.Junctions[i].L < cb.Junctions[j].L
		}
		return cb.Junctions[i].R < cb.Junctions[j].R
	})
	cb.Splices = cb.Splices[:0]
	for p := range seen {
		cb.Splices = append(cb.Splices, p)
	}
	sort.Slice(cb.Splices, func(i, j int) bool { return cb.Splices[i] < cb.Splices[j] })

	cb.SBounds = cb.SBounds[:0]
	for p, d := range ms {
		cb.SBounds = append(cb.SBounds, rnacore.Boundary{Pos: p, WeightedCount: d})
	}
	sort.Slice(cb.SBounds, func(i, j int) bool { return cb.SBounds[i].Pos < cb.SBounds[j].Pos })

	cb.TBounds = cb.TBounds[:0]
	for p, d := range mt {
		cb.TBounds = append(cb.TBounds, rnacore.Boundary{Pos: p, WeightedCount: d})
	}
	sort.Slice(cb.TBounds, func(i, j int) bool { return cb.TBounds[i].Pos < cb.TBounds[j].Pos })
}

func (cb *CombinedGraph) combineRegions(agg *interval.Aggregator) {
	for _, r := range cb.Regions {
		agg.Add(interval.PosType(r.L), interval.PosType(r.R), r.Weight)
	}
}

func (cb *CombinedGraph) combineJunctions(m map[rnacore.Interval]rnacore.WeightedCount) {
	for _, j := range cb.Junctions {
		d := m[j.Interval]
		d = d.Add(j.WeightedCount)
		m[j.Interval] = d
	}
}

func (cb *CombinedGraph) combineStartBounds(m map[rnacore.GenomicPosition]rnacore.WeightedCount) {
	for _, b := range cb.SBounds {
		d := m[b.Pos]
		d = d.Add(b.WeightedCount)
		m[b.Pos] = d
	}
}

func (cb *CombinedGraph) combineEndBounds(m map[rnacore.GenomicPosition]rnacore.WeightedCount) {
	for _, b := range cb.TBounds {
		d := m[b.Pos]
		d = d.Add(b.WeightedCount)
		m[b.Pos] = d
	}
}

// Append folds one bridged fragment into cb's regions, junctions, and phase
// set. bp.Type < 0 marks a fragment the BridgeSolver could not bridge; the
// caller must filter those out before calling Append.
func (cb *CombinedGraph) Append(pc *PereadCluster, bp *BridgePath) {
	if bp.Type < 0 {
		panic(&rnacore.PreconditionViolation{Op: "CombinedGraph.Append", Detail: "bridge path type < 0"})
	}
	cb.appendRegions(pc, bp)
	cb.appendJunctions(pc, bp)
	AddPhasesFromBridgedPereadsCluster(pc, bp, cb.Phases)
}

func (cb *CombinedGraph) appendRegions(pc *PereadCluster, bp *BridgePath) {
	addRegion := func(p1, p2 rnacore.GenomicPosition, w float64) {
		if p1 < p2 {
			cb.Regions = append(cb.Regions, rnacore.Region{Interval: rnacore.Interval{L: p1, R: p2}, WeightedCount: rnacore.WeightedCount{Weight: w, Count: 1}})
			return
		}
		// Out-of-order boundary: record a token region with nominal weight
		// so BuildSpliceGraph's adjacency pass has something to connect.
		cb.Regions = append(cb.Regions, rnacore.Region{Interval: rnacore.Interval{L: p2, R: p1}, WeightedCount: rnacore.WeightedCount{Weight: 0.1, Count: 1}})
	}

	if len(bp.Chain) == 0 {
		p1, p2 := pc.Extend[1], pc.Extend[2]
		if p1 < p2 {
			cb.Regions = append(cb.Regions, rnacore.Region{Interval: rnacore.Interval{L: p1, R: p2}, WeightedCount: rnacore.WeightedCount{Weight: pc.Count, Count: 1}})
		}
		return
	}

	addRegion(pc.Extend[1], bp.Chain[0], pc.Count)
	for i := 0; i < len(bp.Chain)/2-1; i++ {
		p1, p2 := bp.Chain[i*2+1], bp.Chain[i*2+2]
		if p1 >= p2 {
			panic(&rnacore.PreconditionViolation{Op: "CombinedGraph.Append", Detail: "middle region requires p1 < p2"})
		}
		cb.Regions = append(cb.Regions, rnacore.Region{Interval: rnacore.Interval{L: p1, R: p2}, WeightedCount: rnacore.WeightedCount{Weight: pc.Count, Count: 1}})
	}
	addRegion(bp.Chain[len(bp.Chain)-1], pc.Extend[2], pc.Count)
}

func (cb *CombinedGraph) appendJunctions(pc *PereadCluster, bp *BridgePath) {
	for i := 0; i < len(bp.Chain)/2; i++ {
		p1, p2 := bp.Chain[i*2], bp.Chain[i*2+1]
		if p1 >= p2 {
			panic(&rnacore.PreconditionViolation{Op: "CombinedGraph.Append", Detail: "junction requires p1 < p2"})
		}
		cb.Junctions = append(cb.Junctions, rnacore.Junction{
			Interval:      rnacore.Interval{L: p1, R: p2},
			WeightedCount: rnacore.WeightedCount{Weight: pc.Count, Count: 1},
		})
	}
}

// AddPhasesFromBridgedPereadsCluster records the full vertex-spanning path
// this one bridged fragment now forms as a single phase of multiplicity
// proportional to the fragment's read count. Split out of Append so callers
// folding bridged fragments into a separate phase set can invoke it
// directly.
func AddPhasesFromBridgedPereadsCluster(pc *PereadCluster, bp *BridgePath, ps *rnacore.PhaseSet) {
	if bp.Type < 0 || len(bp.Whole) < 2 {
		return
	}
	mult := int(pc.Count)
	if mult < 1 {
		mult = 1
	}
	ps.Add(bp.Whole, mult)
}

// BuildSpliceGraph rebuilds a full SpliceGraph from cb's summarized regions,
// bounds, and junctions. Junctions whose endpoints no longer resolve in the
// rebuilt vertex indices are dropped with a debug log line.
func (cb *CombinedGraph) BuildSpliceGraph(gr *rnacore.SpliceGraph) {
	*gr = *rnacore.NewSpliceGraph()
	gr.GID = cb.GID
	gr.Chrm = cb.Chrm
	gr.Strand = cb.Strand

	gr.AddVertex() // source
	sb := cb.leftmostBound()
	gr.SetVertexInfo(0, rnacore.VertexInfo{LPos: sb, RPos: sb})
	gr.SetVertexWeight(0, 0)

	for _, r := range cb.Regions {
		v := gr.AddVertex()
		gr.SetVertexInfo(v, rnacore.VertexInfo{LPos: r.L, RPos: r.R, Count: r.Count})
		gr.SetVertexWeight(v, r.Weight)
	}

	tb := cb.rightmostBound()
	sink := gr.AddVertex()
	gr.SetVertexInfo(sink, rnacore.VertexInfo{LPos: tb, RPos: tb})
	gr.SetVertexWeight(sink, 0)

	gr.BuildVertexIndex()

	for _, b := range cb.SBounds {
		k, ok := gr.LIndex[b.Pos]
		if !ok {
			continue
		}
		e := gr.AddEdge(0, k)
		gr.SetEdgeInfo(e, b.Weight, b.Count)
	}

	for _, b := range cb.TBounds {
		k, ok := gr.RIndex[b.Pos]
		if !ok {
			continue
		}
		e := gr.AddEdge(k, gr.NumVertices()-1)
		gr.SetEdgeInfo(e, b.Weight, b.Count)
	}

	dropped := 0
	for _, j := range cb.Junctions {
		s, ok1 := gr.RIndex[j.L]
		t, ok2 := gr.LIndex[j.R]
		if !ok1 || !ok2 {
			dropped++
			continue
		}
		e := gr.AddEdge(s, t)
		gr.SetEdgeInfo(e, j.Weight, j.Count)
	}
	if dropped > 0 {
		log.Debug.Printf("build-splice-graph %s: dropped %d of %d junctions with unresolvable endpoints", cb.GID, dropped, len(cb.Junctions))
	}

	for i := 1; i < len(cb.Regions); i++ {
		p1 := cb.Regions[i-1].R
		p2 := cb.Regions[i].L
		if p1 < p2 {
			continue
		}
		if cb.Regions[i-1].R != cb.Regions[i].L {
			continue
		}
		xd := gr.OutDegree(i)
		yd := gr.InDegree(i + 1)
		w := cb.Regions[i-1].Weight
		if xd >= yd {
			w = cb.Regions[i].Weight
		}
		c := cb.Regions[i-1].Count
		if cb.Regions[i].Count < c {
			c = cb.Regions[i].Count
		}
		if w < 1 {
			w = 1
		}
		e := gr.AddEdge(i, i+1)
		gr.SetEdgeInfo(e, w, c)
	}
}

func (cb *CombinedGraph) leftmostBound() rnacore.GenomicPosition {
	if len(cb.SBounds) == 0 {
		return -1
	}
	x := cb.SBounds[0].Pos
	for _, b := range cb.SBounds[1:] {
		if b.Pos < x {
			x = b.Pos
		}
	}
	return x
}

func (cb *CombinedGraph) rightmostBound() rnacore.GenomicPosition {
	if len(cb.TBounds) == 0 {
		return -1
	}
	x := cb.TBounds[0].Pos
	for _, b := range cb.TBounds[1:] {
		if b.Pos > x {
			x = b.Pos
		}
	}
	return x
}

// GetReliableSplices returns every junction endpoint whose accumulated
// weight or sample count meets the given thresholds.
func (cb *CombinedGraph) GetReliableSplices(samples int, weight float64) map[rnacore.GenomicPosition]bool {
	m := map[rnacore.GenomicPosition]rnacore.WeightedCount{}
	for _, j := range cb.Junctions {
		for _, p := range [2]rnacore.GenomicPosition{j.L, j.R} {
			d := m[p]
			d = d.Add(j.WeightedCount)
			m[p] = d
		}
	}
	out := map[rnacore.GenomicPosition]bool{}
	for p, d := range m {
		if d.Weight < weight && d.Count < samples {
			continue
		}
		out[p] = true
	}
	return out
}

// RefineJunctions drops junctions lacking reliable splice support: a
// junction survives only if both of its endpoints clear the
// GetReliableSplices thresholds (summed weight >= weight, or summed sample
// count >= samples). Splices is rebuilt from the survivors so a subsequent
// grouping round or splice-graph build sees a consistent endpoint set.
func (cb *CombinedGraph) RefineJunctions(samples int, weight float64) {
	reliable := cb.GetReliableSplices(samples, weight)
	kept := cb.Junctions[:0]
	seen := map[rnacore.GenomicPosition]bool{}
	for _, j := range cb.Junctions {
		if !reliable[j.L] || !reliable[j.R] {
			continue
		}
		kept = append(kept, j)
		seen[j.L] = true
		seen[j.R] = true
	}
	cb.Junctions = kept
	cb.Splices = cb.Splices[:0]
	for p := range seen {
		cb.Splices = append(cb.Splices, p)
	}
	sort.Slice(cb.Splices, func(i, j int) bool { return cb.Splices[i] < cb.Splices[j] })
}

// Clear resets cb to its zero-value-equivalent state, discarding every
// region/junction/boundary/phase/fragment it holds.
func (cb *CombinedGraph) Clear() {
	cb.NumCombined = 0
	cb.GID = ""
	cb.Chrm = ""
	cb.Strand = '.'
	cb.Splices = nil
	cb.Regions = nil
	cb.Junctions = nil
	cb.SBounds = nil
	cb.TBounds = nil
	cb.Phases = rnacore.NewPhaseSet()
	cb.Unbridged = nil
}

// DebugString summarizes cb in one line for debug logging.
func (cb *CombinedGraph) DebugString() string {
	pereads := 0
	for _, v := range cb.Unbridged {
		pereads += len(v.Chain1) + len(v.Chain2) + len(v.Bounds)
	}
	return fmt.Sprintf(
		"combined-graph: gid=%s combined=%d chrm=%s strand=%c regions=%d sbounds=%d tbounds=%d junctions=%d phases=%d pereads=%d/%d",
		cb.GID, cb.NumCombined, cb.Chrm, cb.Strand, len(cb.Regions), len(cb.SBounds), len(cb.TBounds), len(cb.Junctions), cb.Phases.Size(), pereads, len(cb.Unbridged),
	)
}
