package rnacore

// HyperEdge is one phase fragment projected onto a SpliceGraph: the ordered
// list of vertex ids the fragment's positions resolved to, plus its
// multiplicity.
type HyperEdge struct {
	Nodes []int
	Count int
}

// HyperSet is the vertex-space projection of a PhaseSet against a specific
// SpliceGraph, consumed by the decomposition kernel.
type HyperSet struct {
	Edges []HyperEdge
}

// NewHyperSet projects every path in ps onto g: each position is resolved
// to a vertex via g.RIndex (if the position is a region's right end) or
// g.LIndex (if it is a region's left end), preferring RIndex since phase
// fragment positions alternate junction-left/junction-right the same way
// CombinedGraph junctions do. Positions that resolve to neither index are
// dropped from the path, the same lossy treatment BuildSpliceGraph gives
// junctions with unresolvable endpoints; consecutive duplicate vertices
// (two positions mapping to the same vertex) are collapsed.
func NewHyperSet(g *SpliceGraph, ps *PhaseSet) *HyperSet {
	hs := &HyperSet{}
	for _, path := range ps.Paths() {
		nodes := make([]int, 0, len(path))
		for _, p := range path {
			v, ok := g.RIndex[p]
			if !ok {
				v, ok = g.LIndex[p]
			}
			if !ok {
				continue
			}
			if len(nodes) > 0 && nodes[len(nodes)-1] == v {
				continue
			}
			nodes = append(nodes, v)
		}
		if len(nodes) < 2 {
			continue
		}
		hs.Edges = append(hs.Edges, HyperEdge{Nodes: nodes, Count: ps.Multiplicity(path)})
	}
	return hs
}

// FilterNodes drops any hyper-edge that references a vertex id outside g's
// current vertex range, which can happen when a SpliceGraph is rebuilt with
// fewer vertices after a PhaseSet was projected against an earlier version
// of it.
func (hs *HyperSet) FilterNodes(g *SpliceGraph) {
	n := g.NumVertices()
	kept := hs.Edges[:0]
	for _, e := range hs.Edges {
		ok := true
		for _, v := range e.Nodes {
			if v < 0 || v >= n {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, e)
		}
	}
	hs.Edges = kept
}
