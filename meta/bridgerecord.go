package meta

import (
	"fmt"

	"github.com/grailbio/hts/sam"

	"github.com/shaolab/aletsch-core/rnacore"
)

// referenceByName looks up hdr's sam.Reference for chrm, returning nil if
// the header carries no such reference (the caller then skips emission
// rather than writing an unresolvable record).
func referenceByName(hdr *sam.Header, chrm string) *sam.Reference {
	if hdr == nil {
		return nil
	}
	for _, ref := range hdr.Refs() {
		if ref.Name() == chrm {
			return ref
		}
	}
	return nil
}

// chainCigar turns an alternating [exonStart, exonEnd, exonStart, ...]
// position chain into a CIGAR alternating M (exon) and N (splice skip)
// operations, the same shape bridged/unbridged fragments would carry if
// they had actually been aligned across the chain in one pass.
func chainCigar(chain []rnacore.GenomicPosition) sam.Cigar {
	if len(chain) < 2 {
		return nil
	}
	cig := make(sam.Cigar, 0, len(chain)-1)
	for i := 0; i+1 < len(chain); i++ {
		length := int(chain[i+1] - chain[i])
		if length <= 0 {
			continue
		}
		op := sam.CigarMatch
		if i%2 == 1 {
			op = sam.CigarSkipped
		}
		cig = append(cig, sam.NewCigarOp(op, length))
	}
	return cig
}

// writeBridgedPereadsCluster marshals one bridged PereadCluster into a
// synthetic mate pair and writes both records to sp's bridged-BAM, tagging
// each with the bridge path's type in a ZB aux field. The caller must hold
// sp's lock and have it open (Assembler.emitBridgedAndUnbridged arranges
// both). Grounded
// on the synthetic-record style of markduplicates/testutils.go's
// NewRecord, adapted to emit real (not test-only) records.
func writeBridgedPereadsCluster(pc *PereadCluster, bp *BridgePath, chrm string, sp *SampleProfile) error {
	ref := referenceByName(sp.Hdr, chrm)
	if ref == nil {
		return nil
	}

	name := fmt.Sprintf("bridged.%d.%d", pc.SampleID, pc.Extend[0])
	r1 := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     int(pc.Extend[0]),
		MateRef: ref,
		MatePos: int(pc.Extend[2]),
		Flags:   sam.Paired | sam.ProperPair | sam.Read1,
		Cigar:   chainCigar(append(append([]rnacore.GenomicPosition{pc.Extend[0]}, pc.Chain1...), pc.Extend[1])),
	}
	r2 := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     int(pc.Extend[2]),
		MateRef: ref,
		MatePos: int(pc.Extend[0]),
		Flags:   sam.Paired | sam.ProperPair | sam.Read2,
		Cigar:   chainCigar(append(append([]rnacore.GenomicPosition{pc.Extend[2]}, pc.Chain2...), pc.Extend[3])),
	}

	if aux, err := sam.NewAux(sam.NewTag("ZB"), int(bp.Type)); err == nil {
		r1.AuxFields = append(r1.AuxFields, aux)
		r2.AuxFields = append(r2.AuxFields, aux)
	}

	if err := sp.WriteBridgedRecord(r1); err != nil {
		return err
	}
	return sp.WriteBridgedRecord(r2)
}

// writeUnbridgedPereadsCluster is writeBridgedPereadsCluster's counterpart
// for a cluster the BridgeSolver could not resolve (bp.Type < 0, or no
// solver configured): the two mates are emitted as-is, each tagged with a
// ZB aux value of -1. The same tag is written whether the solver rejected
// the cluster or no bridging was attempted (Assembler.emitUnbridged).
func writeUnbridgedPereadsCluster(pc *PereadCluster, chrm string, sp *SampleProfile) error {
	ref := referenceByName(sp.Hdr, chrm)
	if ref == nil {
		return nil
	}

	name := fmt.Sprintf("unbridged.%d.%d", pc.SampleID, pc.Extend[0])
	r1 := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     int(pc.Extend[0]),
		MateRef: ref,
		MatePos: int(pc.Extend[2]),
		Flags:   sam.Paired | sam.Read1,
		Cigar:   chainCigar(append(append([]rnacore.GenomicPosition{pc.Extend[0]}, pc.Chain1...), pc.Extend[1])),
	}
	r2 := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     int(pc.Extend[2]),
		MateRef: ref,
		MatePos: int(pc.Extend[0]),
		Flags:   sam.Paired | sam.Read2,
		Cigar:   chainCigar(append(append([]rnacore.GenomicPosition{pc.Extend[2]}, pc.Chain2...), pc.Extend[3])),
	}

	if aux, err := sam.NewAux(sam.NewTag("ZB"), -1); err == nil {
		r1.AuxFields = append(r1.AuxFields, aux)
		r2.AuxFields = append(r2.AuxFields, aux)
	}

	if err := sp.WriteBridgedRecord(r1); err != nil {
		return err
	}
	return sp.WriteBridgedRecord(r2)
}
