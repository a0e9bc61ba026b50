// Package rnacore holds the small data types shared by the splice-graph and
// phase-set machinery: genomic positions, half-open intervals, the
// weight/count pair carried by every region, junction and boundary, and the
// closed set of boundary kinds a splice-graph vertex can terminate in.
package rnacore

import "fmt"

// GenomicPosition is a signed coordinate along a chromosome.
type GenomicPosition int32

// Interval is a half-open [L, R) range of genomic positions. L must be < R
// for any interval actually inserted into a graph; the zero value is not a
// valid interval.
type Interval struct {
	L, R GenomicPosition
}

// Len returns R-L.
func (iv Interval) Len() GenomicPosition { return iv.R - iv.L }

// Valid reports whether L < R.
func (iv Interval) Valid() bool { return iv.L < iv.R }

func (iv Interval) String() string { return fmt.Sprintf("[%d, %d)", iv.L, iv.R) }

// WeightedCount is the (weight, count) pair attached to regions, junctions
// and boundaries. Weight is a non-negative real-valued coverage estimate;
// Count is the number of samples/reads contributing to it.
type WeightedCount struct {
	Weight float64
	Count  int
}

// Add returns the element-wise sum of c and o.
func (c WeightedCount) Add(o WeightedCount) WeightedCount {
	return WeightedCount{Weight: c.Weight + o.Weight, Count: c.Count + o.Count}
}

// BoundaryKind classifies how a splice-graph vertex terminates on each
// side. Every switch over BoundaryKind in this module is exhaustive.
type BoundaryKind int

const (
	// StartBoundary anchors a transcript start, i.e. an edge from the
	// super-source.
	StartBoundary BoundaryKind = iota
	// EndBoundary anchors a transcript end, i.e. an edge into the
	// super-sink.
	EndBoundary
	// LeftSplice marks a vertex whose left position is a junction
	// acceptor/donor.
	LeftSplice
	// RightSplice marks a vertex whose right position is a junction
	// acceptor/donor.
	RightSplice
	// LeftRightSplice marks a vertex bounded by splice positions on both
	// sides.
	LeftRightSplice
	// MiddleCut marks a vertex introduced by splitting a region that is
	// itself not a splice boundary (e.g. at a subregion break).
	MiddleCut
)

func (k BoundaryKind) String() string {
	switch k {
	case StartBoundary:
		return "start-boundary"
	case EndBoundary:
		return "end-boundary"
	case LeftSplice:
		return "left-splice"
	case RightSplice:
		return "right-splice"
	case LeftRightSplice:
		return "left-right-splice"
	case MiddleCut:
		return "middle-cut"
	default:
		return "unknown-boundary-kind"
	}
}

// Region is a maximal contiguous covered segment between consecutive
// splice positions or boundaries.
type Region struct {
	Interval
	WeightedCount
}

// Junction is an edge across a splice gap [L, R), where L is the donor
// (rpos of the upstream region) and R is the acceptor (lpos of the
// downstream region). L must be < R.
type Junction struct {
	Interval
	WeightedCount
}

// Boundary is a transcript start or end anchored at a single position.
type Boundary struct {
	Pos GenomicPosition
	WeightedCount
}
