package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaolab/aletsch-core/meta"
	"github.com/shaolab/aletsch-core/rnacore"
)

func exonChain(positions ...rnacore.GenomicPosition) []rnacore.Interval {
	exons := make([]rnacore.Interval, 0, len(positions)/2)
	for i := 0; i+1 < len(positions); i += 2 {
		exons = append(exons, rnacore.Interval{L: positions[i], R: positions[i+1]})
	}
	return exons
}

func TestTranscriptSetMergesEquivalentTranscripts(t *testing.T) {
	ts := meta.NewTranscriptSet()
	t1 := meta.Transcript{Exons: exonChain(100, 200, 300, 400), Abundance: 5}
	t2 := meta.Transcript{Exons: exonChain(100, 200, 300, 400), Abundance: 3}

	ts.Add(t1, 1, 0, meta.CountAddCoverageAdd)
	ts.Add(t2, 2, 1, meta.CountAddCoverageAdd)

	require.Equal(t, 1, ts.Size())
	out := ts.Transcripts()
	require.Len(t, out, 1)
	assert.Equal(t, 5+3*2, int(out[0].Abundance))
}

func TestTranscriptSetCoverageNulIgnoresAbundance(t *testing.T) {
	ts := meta.NewTranscriptSet()
	t1 := meta.Transcript{Exons: exonChain(100, 200), Abundance: 10}

	ts.Add(t1, 1, 0, meta.CountAddCoverageNul)

	out := ts.Transcripts()
	require.Len(t, out, 1)
	assert.Equal(t, float64(0), out[0].Abundance)
}

func TestTranscriptSetDistinguishesDifferentExonChains(t *testing.T) {
	ts := meta.NewTranscriptSet()
	ts.Add(meta.Transcript{Exons: exonChain(100, 200)}, 1, 0, meta.CountAddCoverageAdd)
	ts.Add(meta.Transcript{Exons: exonChain(100, 250)}, 1, 0, meta.CountAddCoverageAdd)

	assert.Equal(t, 2, ts.Size())
}

func TestTranscriptSetIncreaseCountIsIndependent(t *testing.T) {
	ts := meta.NewTranscriptSet()
	ts.IncreaseCount(1)
	ts.IncreaseCount(2)
	assert.Equal(t, 3, ts.CombinedCount())
}
