package rnacore

import (
	"sort"
	"strconv"
	"strings"
)

// phaseKey is the string form of an ordered position list, used as the map
// key since Go slices are not comparable. Positions are comma-joined in
// decimal.
func phaseKey(path []GenomicPosition) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(p)))
	}
	return b.String()
}

// PhaseSet is a mapping from ordered position sequences (hyper-edge paths)
// to integer multiplicities: every bridged paired-end fragment contributes
// one path, and paths that recur (in the same sample, or across samples
// once phase sets are combined) accumulate additively.
type PhaseSet struct {
	paths map[string][]GenomicPosition
	mult  map[string]int
}

// NewPhaseSet returns an empty PhaseSet.
func NewPhaseSet() *PhaseSet {
	return &PhaseSet{paths: map[string][]GenomicPosition{}, mult: map[string]int{}}
}

// Add records one occurrence (or c occurrences) of path, incrementing its
// stored multiplicity. path is copied; the caller's slice may be reused.
func (ps *PhaseSet) Add(path []GenomicPosition, c int) {
	if len(path) == 0 || c == 0 {
		return
	}
	k := phaseKey(path)
	if _, ok := ps.paths[k]; !ok {
		cp := make([]GenomicPosition, len(path))
		copy(cp, path)
		ps.paths[k] = cp
	}
	ps.mult[k] += c
}

// Combine merges o into ps additively: multiplicities of equal paths sum,
// and paths present only in o are copied in.
func (ps *PhaseSet) Combine(o *PhaseSet) {
	if o == nil {
		return
	}
	for k, path := range o.paths {
		if _, ok := ps.paths[k]; !ok {
			ps.paths[k] = path
		}
		ps.mult[k] += o.mult[k]
	}
}

// Size returns the number of distinct paths held.
func (ps *PhaseSet) Size() int { return len(ps.paths) }

// Paths returns every accumulated path. The returned paths must not be
// mutated by the caller. Iteration order is unspecified.
func (ps *PhaseSet) Paths() [][]GenomicPosition {
	out := make([][]GenomicPosition, 0, len(ps.paths))
	for k := range ps.paths {
		out = append(out, ps.paths[k])
	}
	return out
}

// Multiplicity returns the recorded count for path, or 0 if absent.
func (ps *PhaseSet) Multiplicity(path []GenomicPosition) int {
	return ps.mult[phaseKey(path)]
}

// ProjectBoundaries rewrites every path's first and last position through
// smap/tmap (boundary-grouping maps produced by
// SpliceGraph.GroupStartBoundaries/GroupEndBoundaries), collapsing
// boundaries that fall within max_group_boundary_distance of each other onto
// a single canonical representative. Paths whose endpoints are not present
// in the corresponding map are left unchanged at that end. Multiplicities of
// paths that become identical after projection are merged.
func (ps *PhaseSet) ProjectBoundaries(smap, tmap map[GenomicPosition]GenomicPosition) {
	merged := map[string][]GenomicPosition{}
	mult := map[string]int{}
	for k, path := range ps.paths {
		np := make([]GenomicPosition, len(path))
		copy(np, path)
		if len(np) > 0 {
			if p, ok := smap[np[0]]; ok {
				np[0] = p
			}
			if p, ok := tmap[np[len(np)-1]]; ok {
				np[len(np)-1] = p
			}
		}
		nk := phaseKey(np)
		if _, ok := merged[nk]; !ok {
			merged[nk] = np
		}
		mult[nk] += ps.mult[k]
	}
	ps.paths = merged
	ps.mult = mult
}

// Clear empties the phase set.
func (ps *PhaseSet) Clear() {
	ps.paths = map[string][]GenomicPosition{}
	ps.mult = map[string]int{}
}

// DebugString renders the phase set for diagnostic logging. Paths are
// sorted for reproducible log lines, which does not imply any ordering
// guarantee on Paths().
func (ps *PhaseSet) DebugString() string {
	keys := make([]string, 0, len(ps.paths))
	for k := range ps.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString("phase [")
		b.WriteString(k)
		b.WriteString("] x")
		b.WriteString(strconv.Itoa(ps.mult[k]))
		b.WriteByte('\n')
	}
	return b.String()
}
