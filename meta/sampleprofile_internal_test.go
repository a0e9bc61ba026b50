package meta

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaolab/aletsch-core/rnacore"
)

func TestSampleProfileBridgedBAMRoundTrip(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	ref, err := sam.NewReference("chr1", "", "", 1000000, nil, nil)
	require.NoError(t, err)
	hdr, err := sam.NewHeader(nil, []*sam.Reference{ref})
	require.NoError(t, err)

	sp := &SampleProfile{SampleID: 7, Hdr: hdr, InsertSizeLow: 100, InsertSizeHigh: 400}

	pc := &PereadCluster{
		Extend:   [4]rnacore.GenomicPosition{100, 120, 380, 500},
		Chain1:   []rnacore.GenomicPosition{150, 200},
		Chain2:   []rnacore.GenomicPosition{400, 450},
		Count:    2,
		SampleID: 7,
	}
	bp := &BridgePath{
		Type:  0,
		Chain: []rnacore.GenomicPosition{200, 300},
		Whole: []rnacore.GenomicPosition{120, 200, 300, 380},
	}

	sp.Lock()
	require.NoError(t, sp.OpenBridgedBAM(tmpDir))
	require.NoError(t, writeBridgedPereadsCluster(pc, bp, "chr1", sp))
	require.NoError(t, writeUnbridgedPereadsCluster(pc, "chr1", sp))
	require.NoError(t, sp.CloseBridgedBAM())
	sp.Unlock()

	f, err := os.Open(filepath.Join(tmpDir, "7.bam"))
	require.NoError(t, err)
	defer f.Close()
	r, err := bam.NewReader(f, 1)
	require.NoError(t, err)
	defer r.Close()

	n := 0
	paired := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
		if rec.Flags&sam.Paired != 0 {
			paired++
		}
		assert.Equal(t, "chr1", rec.Ref.Name())
	}
	assert.Equal(t, 4, n) // two mates each for the bridged and unbridged form
	assert.Equal(t, 4, paired)
}

func TestSampleProfileWriteWithoutOpenFails(t *testing.T) {
	sp := &SampleProfile{SampleID: 1}
	err := sp.WriteBridgedRecord(&sam.Record{Name: "x"})
	assert.Error(t, err)
}

func TestSampleProfileCloseUnopenedIsNoop(t *testing.T) {
	sp := &SampleProfile{SampleID: 1}
	assert.NoError(t, sp.CloseBridgedBAM())
}

func TestSampleProfileOpenWithoutHeaderFails(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	sp := &SampleProfile{SampleID: 2}
	assert.Error(t, sp.OpenBridgedBAM(tmpDir))
}
