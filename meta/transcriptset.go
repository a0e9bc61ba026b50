package meta

import (
	"encoding/binary"
	"sync"

	"github.com/minio/highwayhash"

	"github.com/shaolab/aletsch-core/rnacore"
)

// TranscriptMode selects how Add folds a transcript's coverage into an
// already-accumulated entry. The consensus CombinedGraph produced by
// cluster resolution is assembled under CountAddCoverageNul, since its
// coverage would otherwise double-count what the individual graphs already
// contributed.
type TranscriptMode int

const (
	// CountAddCoverageAdd sums both the occurrence count and the abundance
	// contribution of equivalent transcripts.
	CountAddCoverageAdd TranscriptMode = iota
	// CountAddCoverageNul sums only the occurrence count; the abundance
	// contribution is ignored.
	CountAddCoverageNul
)

// transcriptEntry is one dedup bucket in a TranscriptSet: a representative
// transcript (its exon chain), the samples it has been observed in, and its
// accumulated count/coverage.
type transcriptEntry struct {
	Transcript Transcript
	Count      int
	Coverage   float64
	Samples    map[int]int
}

type transcriptKey = [highwayhash.Size]uint8

var transcriptHashSeed transcriptKey

// TranscriptSet accumulates transcripts across every CombinedGraph an
// Assembler resolves, deduplicating on exon chain and merging additively.
// Safe for concurrent Add/IncreaseCount calls; concurrent assemblers need
// no locking of their own.
type TranscriptSet struct {
	mu            sync.Mutex
	entries       map[transcriptKey]*transcriptEntry
	combinedCount int
}

// NewTranscriptSet returns an empty TranscriptSet.
func NewTranscriptSet() *TranscriptSet {
	return &TranscriptSet{entries: map[transcriptKey]*transcriptEntry{}}
}

// exonKey hashes the exon chain alone: equivalence deliberately ignores
// which sample produced the transcript, so the same isoform observed in
// different samples merges into one entry.
func exonKey(exons []rnacore.Interval) transcriptKey {
	buf := make([]byte, 0, 8*len(exons))
	var tmp [8]byte
	for _, e := range exons {
		binary.LittleEndian.PutUint32(tmp[0:4], uint32(e.L))
		binary.LittleEndian.PutUint32(tmp[4:8], uint32(e.R))
		buf = append(buf, tmp[:]...)
	}
	return highwayhash.Sum(buf, transcriptHashSeed[:])
}

// Add records one occurrence of t with the given multiplicity, merging into
// an existing entry with an identical exon chain if present.
func (ts *TranscriptSet) Add(t Transcript, multiplicity, sampleID int, mode TranscriptMode) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	k := exonKey(t.Exons)
	e, ok := ts.entries[k]
	if !ok {
		e = &transcriptEntry{Transcript: t, Samples: map[int]int{}}
		ts.entries[k] = e
	}
	e.Count += multiplicity
	e.Samples[sampleID] += multiplicity
	if mode == CountAddCoverageAdd {
		e.Coverage += t.Abundance * float64(multiplicity)
	}
}

// IncreaseCount bumps the set's global contributed-graph counter by n,
// independent of any individual transcript's count.
func (ts *TranscriptSet) IncreaseCount(n int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.combinedCount += n
}

// CombinedCount returns the running total set by IncreaseCount.
func (ts *TranscriptSet) CombinedCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.combinedCount
}

// Size returns the number of distinct exon chains accumulated so far.
func (ts *TranscriptSet) Size() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.entries)
}

// Transcripts returns every accumulated transcript, with Abundance replaced
// by its merged coverage and RPKM left at zero. Iteration order is
// unspecified.
func (ts *TranscriptSet) Transcripts() []Transcript {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]Transcript, 0, len(ts.entries))
	for _, e := range ts.entries {
		t := e.Transcript
		t.Abundance = e.Coverage
		t.RPKM = 0
		out = append(out, t)
	}
	return out
}
