package meta

import (
	"github.com/dgryski/go-farm"

	"github.com/shaolab/aletsch-core/rnacore"
)

// PereadCluster groups the paired-end fragments of one sample that all span
// the same pair of split reads but whose middle segment was never bridged
// into a single alignment. Bridging them into one path through the splice
// graph is a collaborator concern (BridgeSolver); the cluster itself is
// pure data.
type PereadCluster struct {
	// Extend holds the four boundary positions of the fragment: the read's
	// own start/end extended out to the two mates' bridged boundaries, in
	// the order [left-most, mate1-inner, mate2-inner, right-most].
	Extend [4]rnacore.GenomicPosition

	// Chain1 and Chain2 are the (possibly empty) alternating
	// junction-left/junction-right position chains each mate's own
	// alignment already established, before bridging.
	Chain1 []rnacore.GenomicPosition
	Chain2 []rnacore.GenomicPosition

	// Bounds holds any splice boundaries observed strictly between the two
	// mates that neither mate's own alignment crossed.
	Bounds []rnacore.GenomicPosition

	// Count is the number of raw read pairs this cluster summarizes.
	Count float64

	// SampleID identifies which SampleProfile's insert-size distribution
	// and bridged-BAM output this cluster belongs to.
	SampleID int
}

// FingerprintKey returns a 64-bit FarmHash of the cluster's boundary
// positions and chains, suitable for deduplicating or bucketing clusters
// without comparing their full contents.
func (pc *PereadCluster) FingerprintKey() uint64 {
	buf := make([]byte, 0, 8*(4+len(pc.Chain1)+len(pc.Chain2)+len(pc.Bounds)))
	for _, p := range pc.Extend {
		buf = appendPos(buf, p)
	}
	for _, p := range pc.Chain1 {
		buf = appendPos(buf, p)
	}
	for _, p := range pc.Chain2 {
		buf = appendPos(buf, p)
	}
	for _, p := range pc.Bounds {
		buf = appendPos(buf, p)
	}
	return farm.Hash64(buf)
}

func appendPos(buf []byte, p rnacore.GenomicPosition) []byte {
	u := uint32(p)
	return append(buf, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}

// BridgePath is the outcome of bridging one PereadCluster through a splice
// graph: either a resolved junction chain (Type >= 0), or an unresolved
// fragment (Type < 0) that Append must not touch.
type BridgePath struct {
	Type int

	// Chain alternates junction-left, junction-right positions: [l0, r0,
	// l1, r1, ...]. An empty Chain with Type >= 0 means the cluster bridges
	// across a single region with no intervening junction.
	Chain []rnacore.GenomicPosition

	// Whole is the complete bridged position path, from mate1's inner
	// boundary to mate2's inner boundary. Append records it as one phase
	// (AddPhasesFromBridgedPereadsCluster); the BAM writers do not read it.
	Whole []rnacore.GenomicPosition
}

// BridgeSolver resolves the unbridged fragments collected from a cluster of
// CombinedGraphs against their combined splice graph. It is a collaborator:
// this package only calls it and consumes Resolve's and BuildPhaseSet's
// results.
type BridgeSolver interface {
	// Resolve attempts to bridge every cluster in clusters against gr,
	// returning one BridgePath per input cluster in the same order. A
	// negative Type marks a cluster the solver could not bridge.
	Resolve(gr *rnacore.SpliceGraph, clusters []PereadCluster, insertSizeLow, insertSizeHigh int) []BridgePath

	// BuildPhaseSet folds every bridged path the solver already resolved
	// into ps, additively.
	BuildPhaseSet(ps *rnacore.PhaseSet)
}
