package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaolab/aletsch-core/meta"
	"github.com/shaolab/aletsch-core/rnacore"
)

func TestPereadClusterFingerprintKey(t *testing.T) {
	a := meta.PereadCluster{
		Extend: [4]rnacore.GenomicPosition{100, 120, 380, 400},
		Chain1: []rnacore.GenomicPosition{150, 200},
		Chain2: []rnacore.GenomicPosition{300, 350},
		Count:  2,
	}
	b := a
	// Count and SampleID carry no positional information and do not affect
	// the fingerprint.
	b.Count = 7
	b.SampleID = 3

	assert.Equal(t, a.FingerprintKey(), b.FingerprintKey())

	c := a
	c.Chain2 = []rnacore.GenomicPosition{300, 360}
	assert.NotEqual(t, a.FingerprintKey(), c.FingerprintKey())

	d := a
	d.Extend[3] = 410
	assert.NotEqual(t, a.FingerprintKey(), d.FingerprintKey())
}
