package interval

// Aggregator accumulates real-valued weight over half-open [l, r) integer
// intervals. Repeated calls to Add are associative and commutative: the
// resulting weight at any position depends only on the multiset of
// (interval, weight) pairs inserted, never on their order. It is kept as a
// sorted slice of breakpoints plus one weight per gap between consecutive
// breakpoints rather than as a tree, since the number of distinct
// breakpoints touched by one CombinedGraph.Combine is small.
type Aggregator struct {
	// endpoints holds len(weights)+1 sorted, unique breakpoints; weights[i]
	// is the accumulated weight over [endpoints[i], endpoints[i+1]).
	endpoints []PosType
	weights   []float64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add increases the accumulated weight of every position in [l, r) by w.
// Panics if l >= r or w < 0.
func (a *Aggregator) Add(l, r PosType, w float64) {
	if l >= r {
		panic("interval: Add requires l < r")
	}
	if w < 0 {
		panic("interval: Add requires w >= 0")
	}
	il := a.ensureBreakpoint(l, SearchPosTypes(a.endpoints, l))
	// r lands at or after l's slot, so resume the search there instead of
	// bisecting the whole slice again.
	ir := a.ensureBreakpoint(r, ExpsearchPosTypes(a.endpoints, r, il))
	for k := il; k < ir; k++ {
		a.weights[k] += w
	}
}

// ensureBreakpoint makes sure p is present in a.endpoints, splitting the gap
// it falls inside (duplicating that gap's weight onto both halves) if
// necessary, and returns p's index in a.endpoints. i is p's insertion point,
// already located by the caller via SearchPosTypes/ExpsearchPosTypes.
func (a *Aggregator) ensureBreakpoint(p PosType, i int) int {
	n := len(a.endpoints)
	if i < n && a.endpoints[i] == p {
		return i
	}

	a.endpoints = append(a.endpoints, 0)
	copy(a.endpoints[i+1:], a.endpoints[i:n])
	a.endpoints[i] = p

	switch {
	case n == 0:
		// first breakpoint ever; no gap to split or extend.
	case i > 0 && i < n:
		// p lands strictly inside the gap (endpoints[i-1], old endpoints[i]);
		// duplicate that gap's weight onto both halves.
		w := a.weights[i-1]
		a.weights = append(a.weights, 0)
		copy(a.weights[i+1:], a.weights[i:len(a.weights)-1])
		a.weights[i] = w
	case i == 0:
		// p is a new leftmost breakpoint; the interval it opens up has not
		// been weighted by anything yet.
		a.weights = append(a.weights, 0)
		copy(a.weights[1:], a.weights[:len(a.weights)-1])
		a.weights[0] = 0
	case i == n:
		// p is a new rightmost breakpoint.
		a.weights = append(a.weights, 0)
	}
	return i
}

// WeightedInterval is one (interval, weight) pair yielded by Intervals.
type WeightedInterval struct {
	L, R   PosType
	Weight float64
}

// Intervals returns every accumulated gap in ascending position order.
// Adjacent gaps are not merged even if they happen to carry equal weight;
// each fragment boundary introduced by a previous split remains a distinct
// entry.
func (a *Aggregator) Intervals() []WeightedInterval {
	out := make([]WeightedInterval, len(a.weights))
	for i, w := range a.weights {
		out[i] = WeightedInterval{L: a.endpoints[i], R: a.endpoints[i+1], Weight: w}
	}
	return out
}
