package meta

import "github.com/shaolab/aletsch-core/rnacore"

// Transcript is one assembled isoform: its exon chain, an estimated
// abundance, and an RPKM value the assembler always initializes to zero;
// RPKM normalization against total library depth happens further
// downstream, outside this module.
type Transcript struct {
	Exons     []rnacore.Interval
	Abundance float64
	RPKM      float64
}

// Decomposer resolves a refined splice graph and its hyper-edge set into a
// list of transcripts, each with one abundance estimate. It is a collaborator; this
// package never looks inside the path-decomposition algorithm.
type Decomposer interface {
	Decompose(gr *rnacore.SpliceGraph, hx *rnacore.HyperSet, cfg Config) []Transcript
}
