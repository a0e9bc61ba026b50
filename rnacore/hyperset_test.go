package rnacore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaolab/aletsch-core/rnacore"
)

func TestNewHyperSetResolvesPathsThroughIndices(t *testing.T) {
	g := buildSingletonGraph(t)

	ps := rnacore.NewPhaseSet()
	ps.Add([]rnacore.GenomicPosition{200, 300}, 4)
	ps.Add([]rnacore.GenomicPosition{9999}, 1) // fully unresolvable, dropped

	hs := rnacore.NewHyperSet(g, ps)

	assert.Len(t, hs.Edges, 1)
	found := false
	for _, e := range hs.Edges {
		if len(e.Nodes) == 2 && e.Nodes[0] == 1 && e.Nodes[1] == 2 && e.Count == 4 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHyperSetFilterNodesDropsOutOfRangeEdges(t *testing.T) {
	hs := &rnacore.HyperSet{Edges: []rnacore.HyperEdge{
		{Nodes: []int{0, 1, 2}, Count: 1},
		{Nodes: []int{0, 99}, Count: 1},
	}}
	g := rnacore.NewSpliceGraph()
	for i := 0; i < 4; i++ {
		g.AddVertex()
	}

	hs.FilterNodes(g)

	assert.Len(t, hs.Edges, 1)
	assert.Equal(t, []int{0, 1, 2}, hs.Edges[0].Nodes)
}
