package rnacore

import (
	"fmt"
	"sort"
	"strings"
)

// VertexInfo is the per-vertex payload carried by a SpliceGraph: the
// region's half-open [LPos, RPos) span and the sample count that produced
// it. Weight is tracked separately (SetVertexWeight/VertexWeight) so
// refinement can adjust it without touching the span.
type VertexInfo struct {
	LPos, RPos GenomicPosition
	Count      int
}

// Length returns RPos-LPos.
func (vi VertexInfo) Length() GenomicPosition { return vi.RPos - vi.LPos }

// Edge is a directed edge between two SpliceGraph vertices, carrying an
// aggregate weight and sample count.
type Edge struct {
	S, T   int
	Weight float64
	Count  int
}

// PreconditionViolation is panicked when a caller breaks a shape invariant
// (s < t on an edge, p1 < p2 on a region interval, a duplicate region
// boundary). It is fatal to the whole batch; the assembler's cluster entry
// point logs the violated invariant and re-panics.
type PreconditionViolation struct {
	Op     string
	Detail string
}

func (e *PreconditionViolation) Error() string { return "precondition violation in " + e.Op + ": " + e.Detail }

func violate(op, detail string) {
	panic(&PreconditionViolation{Op: op, Detail: detail})
}

// SpliceGraph is a vertex-labeled DAG over vertices 0..n+1: vertex 0 is the
// universal source, vertex n+1 the universal sink, and every vertex in
// between is an internal region. LIndex/RIndex are the dual position->vertex
// indices built by BuildVertexIndex and kept consistent only as of the last
// call to it.
type SpliceGraph struct {
	GID    string
	Chrm   string
	Strand byte

	infos   []VertexInfo
	weights []float64

	edges    []*Edge
	outEdges [][]*Edge
	inEdges  [][]*Edge

	// LIndex/RIndex map a region's LPos/RPos to its vertex id. They only
	// cover internal vertices (1..NumVertices()-2) and are rebuilt by
	// BuildVertexIndex.
	LIndex map[GenomicPosition]int
	RIndex map[GenomicPosition]int
}

// NewSpliceGraph returns an empty graph (no vertices yet).
func NewSpliceGraph() *SpliceGraph {
	return &SpliceGraph{LIndex: map[GenomicPosition]int{}, RIndex: map[GenomicPosition]int{}}
}

// NumVertices returns the number of vertices added so far, including source
// and sink once they have been added.
func (g *SpliceGraph) NumVertices() int { return len(g.infos) }

// AddVertex appends a new vertex and returns its id.
func (g *SpliceGraph) AddVertex() int {
	g.infos = append(g.infos, VertexInfo{})
	g.weights = append(g.weights, 0)
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return len(g.infos) - 1
}

// SetVertexWeight sets the weight of vertex v.
func (g *SpliceGraph) SetVertexWeight(v int, w float64) { g.weights[v] = w }

// VertexWeight returns the weight of vertex v.
func (g *SpliceGraph) VertexWeight(v int) float64 { return g.weights[v] }

// SetVertexInfo sets the region span/count of vertex v.
func (g *SpliceGraph) SetVertexInfo(v int, info VertexInfo) { g.infos[v] = info }

// VertexInfo returns the region span/count of vertex v.
func (g *SpliceGraph) VertexInfo(v int) VertexInfo { return g.infos[v] }

// AddEdge adds a directed edge s->t with zero weight/count and returns it
// for further configuration via SetEdgeWeight/SetEdgeInfo. Panics with
// PreconditionViolation if s >= t; edges always point downstream.
func (g *SpliceGraph) AddEdge(s, t int) *Edge {
	if s >= t {
		violate("AddEdge", "s must be < t")
	}
	e := &Edge{S: s, T: t}
	g.edges = append(g.edges, e)
	g.outEdges[s] = append(g.outEdges[s], e)
	g.inEdges[t] = append(g.inEdges[t], e)
	return e
}

// SetEdgeWeight sets e's weight.
func (g *SpliceGraph) SetEdgeWeight(e *Edge, w float64) { e.Weight = w }

// SetEdgeInfo sets e's weight and count together.
func (g *SpliceGraph) SetEdgeInfo(e *Edge, weight float64, count int) {
	e.Weight = weight
	e.Count = count
}

// Edges returns every edge in the graph. Order is insertion order.
func (g *SpliceGraph) Edges() []*Edge { return g.edges }

// OutEdges returns the edges leaving v.
func (g *SpliceGraph) OutEdges(v int) []*Edge { return g.outEdges[v] }

// InEdges returns the edges entering v.
func (g *SpliceGraph) InEdges(v int) []*Edge { return g.inEdges[v] }

// OutDegree returns len(OutEdges(v)).
func (g *SpliceGraph) OutDegree(v int) int { return len(g.outEdges[v]) }

// InDegree returns len(InEdges(v)).
func (g *SpliceGraph) InDegree(v int) int { return len(g.inEdges[v]) }

// Source returns the universal source vertex id (always 0).
func (g *SpliceGraph) Source() int { return 0 }

// Sink returns the universal sink vertex id (always NumVertices()-1).
func (g *SpliceGraph) Sink() int { return g.NumVertices() - 1 }

// BuildVertexIndex (re)populates LIndex/RIndex from the current internal
// vertices (everything strictly between source and sink). The indices must
// be unique inverses: a region's LPos/RPos identifies exactly one vertex. A
// collision indicates upstream data corruption (two regions sharing a
// boundary) and is a PreconditionViolation.
func (g *SpliceGraph) BuildVertexIndex() {
	g.LIndex = make(map[GenomicPosition]int, g.NumVertices())
	g.RIndex = make(map[GenomicPosition]int, g.NumVertices())
	sink := g.Sink()
	for v := 1; v < sink; v++ {
		info := g.infos[v]
		if _, ok := g.LIndex[info.LPos]; ok {
			violate("BuildVertexIndex", "duplicate lpos in region set")
		}
		g.LIndex[info.LPos] = v
		if _, ok := g.RIndex[info.RPos]; ok {
			violate("BuildVertexIndex", "duplicate rpos in region set")
		}
		g.RIndex[info.RPos] = v
	}
}

// ExtendStrands widens the source/sink sentinel vertices' positions to
// cover every boundary edge actually present, so that downstream boundary
// grouping never has to reason about a boundary lying outside the
// source/sink span.
func (g *SpliceGraph) ExtendStrands() {
	if g.NumVertices() < 2 {
		return
	}
	src, sink := g.Source(), g.Sink()
	leftmost := g.infos[src].LPos
	for _, e := range g.outEdges[src] {
		if p := g.infos[e.T].LPos; p < leftmost {
			leftmost = p
		}
	}
	rightmost := g.infos[sink].RPos
	for _, e := range g.inEdges[sink] {
		if p := g.infos[e.S].RPos; p > rightmost {
			rightmost = p
		}
	}
	g.infos[src] = VertexInfo{LPos: leftmost, RPos: leftmost}
	g.infos[sink] = VertexInfo{LPos: rightmost, RPos: rightmost}
}

// RefineSpliceGraph performs a conservative consistency pass: any internal
// vertex whose weight is lower than the heavier of its summed in-edge or
// out-edge weight is bumped up to that value, so that downstream path
// decomposition is never asked to route more flow through a vertex than its
// own weight admits.
func (g *SpliceGraph) RefineSpliceGraph() {
	sink := g.Sink()
	for v := 1; v < sink; v++ {
		var inSum, outSum float64
		for _, e := range g.inEdges[v] {
			inSum += e.Weight
		}
		for _, e := range g.outEdges[v] {
			outSum += e.Weight
		}
		need := inSum
		if outSum > need {
			need = outSum
		}
		if g.weights[v] < need {
			g.weights[v] = need
		}
	}
}

// GroupStartBoundaries groups the positions reachable by an edge out of the
// source into clusters whose members are mutually within dist of each
// other, and returns a map from every original position to the leftmost
// position in its cluster (its canonical representative). Used to collapse
// near-duplicate transcript starts across samples before phase projection.
func GroupStartBoundaries(g *SpliceGraph, dist GenomicPosition) map[GenomicPosition]GenomicPosition {
	positions := make([]GenomicPosition, 0, g.OutDegree(g.Source()))
	for _, e := range g.outEdges[g.Source()] {
		positions = append(positions, g.infos[e.T].LPos)
	}
	return groupPositions(positions, dist)
}

// GroupEndBoundaries is the End-boundary analogue of GroupStartBoundaries,
// operating on positions reachable by an edge into the sink.
func GroupEndBoundaries(g *SpliceGraph, dist GenomicPosition) map[GenomicPosition]GenomicPosition {
	positions := make([]GenomicPosition, 0, g.InDegree(g.Sink()))
	for _, e := range g.inEdges[g.Sink()] {
		positions = append(positions, g.infos[e.S].RPos)
	}
	return groupPositions(positions, dist)
}

func groupPositions(positions []GenomicPosition, dist GenomicPosition) map[GenomicPosition]GenomicPosition {
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	out := map[GenomicPosition]GenomicPosition{}
	i := 0
	for i < len(positions) {
		rep := positions[i]
		j := i
		for j+1 < len(positions) && positions[j+1]-rep <= dist {
			j++
		}
		for k := i; k <= j; k++ {
			out[positions[k]] = rep
		}
		i = j + 1
	}
	return out
}

// SideKinds reports how internal vertex v terminates on each side, derived
// from the edges currently attached to it: a junction arriving across a gap
// makes the side a splice, an edge from the source (resp. into the sink)
// makes it a start (resp. end) boundary, and anything else — typically an
// abutting continuation edge — leaves it a MiddleCut. A splice outranks a
// boundary edge; a vertex spliced on both sides reports LeftRightSplice for
// both.
func (g *SpliceGraph) SideKinds(v int) (BoundaryKind, BoundaryKind) {
	info := g.infos[v]
	left, right := MiddleCut, MiddleCut
	for _, e := range g.inEdges[v] {
		if e.S == g.Source() {
			if left == MiddleCut {
				left = StartBoundary
			}
			continue
		}
		if g.infos[e.S].RPos < info.LPos {
			left = LeftSplice
		}
	}
	for _, e := range g.outEdges[v] {
		if e.T == g.Sink() {
			if right == MiddleCut {
				right = EndBoundary
			}
			continue
		}
		if g.infos[e.T].LPos > info.RPos {
			right = RightSplice
		}
	}
	if left == LeftSplice && right == RightSplice {
		return LeftRightSplice, LeftRightSplice
	}
	return left, right
}

// DebugString summarizes the graph for debug log lines: its gid, sizes, and
// a histogram of how its internal vertices terminate.
func (g *SpliceGraph) DebugString() string {
	counts := map[BoundaryKind]int{}
	sink := g.Sink()
	for v := 1; v < sink; v++ {
		l, r := g.SideKinds(v)
		counts[l]++
		counts[r]++
	}
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s: %d vertices, %d edges", g.GID, g.NumVertices(), len(g.edges))
	for _, k := range []BoundaryKind{StartBoundary, EndBoundary, LeftSplice, RightSplice, LeftRightSplice, MiddleCut} {
		if counts[k] == 0 {
			continue
		}
		fmt.Fprintf(&b, " %s=%d", k, counts[k])
	}
	return b.String()
}
