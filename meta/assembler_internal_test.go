package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaolab/aletsch-core/rnacore"
)

func TestResolveClusterRejectsFewerThanTwoMembers(t *testing.T) {
	a := NewAssembler(DefaultConfig(), nil, nil)
	cb := NewCombinedGraph()
	cx := NewCombinedGraph()

	assert.Panics(t, func() {
		a.resolveCluster([]*CombinedGraph{cb}, cx, nil)
	})
}

func TestPoolPereadClustersMergesDuplicateShapes(t *testing.T) {
	shape := func(count float64) PereadCluster {
		return PereadCluster{
			Extend: [4]rnacore.GenomicPosition{100, 120, 380, 400},
			Chain1: []rnacore.GenomicPosition{150, 200},
			Count:  count,
		}
	}
	other := PereadCluster{
		Extend: [4]rnacore.GenomicPosition{100, 120, 380, 400},
		Chain1: []rnacore.GenomicPosition{150, 250},
		Count:  1,
	}

	pooled := poolPereadClusters([]PereadCluster{shape(2), other, shape(3)})

	require.Len(t, pooled, 2)
	assert.Equal(t, float64(5), pooled[0].Count)
	assert.Equal(t, float64(1), pooled[1].Count)
}
