package meta

import (
	"sort"
	"sync"

	"github.com/grailbio/base/log"

	"github.com/shaolab/aletsch-core/meta/internal/dsu"
	"github.com/shaolab/aletsch-core/rnacore"
)

// bundleGroupPair is one accepted (i, j) similarity candidate.
type bundleGroupPair struct {
	x, y int
	r    float64
}

// BundleGroup clusters a set of same-locus CombinedGraphs (same chrm/strand)
// into groups of mutually similar splice patterns, to be resolved together
// by Assembler. Two rounds run back to back: a high-precision local round
// bucketed by shared splice position, then a relaxed round sharing one
// global disjoint-set across every bucket.
type BundleGroup struct {
	Chrm   string
	Strand byte
	Cfg    Config

	GSet []*CombinedGraph

	splices [][]rnacore.GenomicPosition
	// sindex maps a splice position to the set of graph indices touching it.
	sindex map[rnacore.GenomicPosition]map[int]bool

	gmutex     sync.Mutex
	grouped    []bool
	gvv        [][]int
	minSim     float64
	minGrpSize int
}

// NewBundleGroup returns a BundleGroup ready to cluster gset.
func NewBundleGroup(chrm string, strand byte, cfg Config, gset []*CombinedGraph) *BundleGroup {
	return &BundleGroup{Chrm: chrm, Strand: strand, Cfg: cfg, GSet: gset}
}

// Resolve runs both grouping rounds and returns gvv: a partition of
// [0, len(GSet)) where each element lists the graph indices to co-resolve.
func (bg *BundleGroup) Resolve() [][]int {
	bg.grouped = make([]bool, len(bg.GSet))
	bg.gvv = nil

	bg.buildSplices()
	bg.buildSpliceIndex()

	buckets := bg.bucketKeys()

	// Round one: high precision, local to each bucket, capped group size.
	bg.minSim = bg.Cfg.MaxGroupingSimilarity
	bg.minGrpSize = bg.Cfg.MaxGroupSize
	bg.runRound(buckets, bg.processSubset1)
	bg.logStats(1)

	// Round two: relaxed threshold, one disjoint-set shared across buckets.
	shared := dsu.New(len(bg.GSet))
	bg.minSim = bg.Cfg.MinGroupingSimilarity
	bg.minGrpSize = 1
	bg.runRound(buckets, func(s map[int]bool) { bg.processSubset2(s, shared) })
	bg.buildGroups(allIndices(len(bg.GSet)), shared)
	bg.logStats(2)

	bg.sindex = nil
	return bg.gvv
}

func (bg *BundleGroup) bucketKeys() []rnacore.GenomicPosition {
	keys := make([]rnacore.GenomicPosition, 0, len(bg.sindex))
	for p := range bg.sindex {
		keys = append(keys, p)
	}
	return keys
}

// runRound drains buckets across a fixed worker pool sized to
// Cfg.MaxThreads, in the same channel-of-work-items/WaitGroup style as
// markduplicates' shard workers.
func (bg *BundleGroup) runRound(buckets []rnacore.GenomicPosition, process func(map[int]bool)) {
	workers := bg.Cfg.MaxThreads
	if workers < 1 {
		workers = 1
	}
	ch := make(chan map[int]bool, len(buckets))
	for _, p := range buckets {
		ch <- bg.sindex[p]
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				process(s)
			}
		}()
	}
	wg.Wait()
}

func (bg *BundleGroup) buildSplices() {
	bg.splices = make([][]rnacore.GenomicPosition, len(bg.GSet))
	for i, g := range bg.GSet {
		bg.splices[i] = append([]rnacore.GenomicPosition(nil), g.Splices...)
	}
}

func (bg *BundleGroup) buildSpliceIndex() {
	bg.sindex = map[rnacore.GenomicPosition]map[int]bool{}
	for k, sp := range bg.splices {
		for _, p := range sp {
			s, ok := bg.sindex[p]
			if !ok {
				s = map[int]bool{}
				bg.sindex[p] = s
			}
			s[k] = true
		}
	}
}

// processSubset1 is round one's per-bucket worker: it filters already-
// grouped members, computes local similarity, unions via a fresh local
// disjoint-set, and commits any group that reached the full round-one cap
// directly to bg.gvv. grouped and gvv are only ever touched under gmutex.
func (bg *BundleGroup) processSubset1(s map[int]bool) {
	bg.gmutex.Lock()
	ss := bg.filterSet(s)
	bg.gmutex.Unlock()

	vpid := bg.buildSimilarity(ss, true)

	bg.gmutex.Lock()
	defer bg.gmutex.Unlock()
	v := bg.filterPairs(ss, vpid)
	local := dsu.New(len(ss))
	bg.augmentDisjointSet(v, local)
	bg.buildGroups(ss, local)
}

// processSubset2 is round two's per-bucket worker: local filtering is still
// done without a lock (read-only), but every union against the shared
// disjoint-set happens under gmutex.
func (bg *BundleGroup) processSubset2(s map[int]bool, shared *dsu.Set) {
	ss := bg.filterSetUnlocked(s)
	vpid := bg.buildSimilarity(ss, false)
	v := bg.filterPairsGlobal(vpid)

	bg.gmutex.Lock()
	defer bg.gmutex.Unlock()
	bg.augmentDisjointSet(v, shared)
}

func (bg *BundleGroup) filterSet(s map[int]bool) []int {
	return bg.filterSetUnlocked(s)
}

func (bg *BundleGroup) filterSetUnlocked(s map[int]bool) []int {
	out := make([]int, 0, len(s))
	for k := range s {
		if bg.grouped[k] {
			continue
		}
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// buildSimilarity scores every pair within ss (local=true: pairs indexed by
// position within ss, for a fresh local disjoint-set; local=false: pairs
// indexed by their true graph index, for the shared disjoint-set):
// c = |splices[i] ∩ splices[j]|, r = c / min(|splices[i]|, |splices[j]|),
// accept only c > 1 and r >= the current threshold, skip graphs with too
// many junctions, sort descending by r.
func (bg *BundleGroup) buildSimilarity(ss []int, local bool) []bundleGroupPair {
	var out []bundleGroupPair
	for xi, i := range ss {
		if float64(len(bg.splices[i]))/2.0 > float64(bg.Cfg.MaxNumJunctionsToCombine) {
			continue
		}
		for xj := xi + 1; xj < len(ss); xj++ {
			j := ss[xj]
			if float64(len(bg.splices[j]))/2.0 > float64(bg.Cfg.MaxNumJunctionsToCombine) {
				continue
			}

			c := intersectionCount(bg.splices[i], bg.splices[j])
			small := len(bg.splices[i])
			if len(bg.splices[j]) < small {
				small = len(bg.splices[j])
			}
			if small == 0 {
				continue
			}
			r := float64(c) / float64(small)

			// a single shared splice position is never enough
			if c <= 1 {
				continue
			}
			if r < bg.minSim {
				continue
			}

			if local {
				out = append(out, bundleGroupPair{x: xi, y: xj, r: r})
			} else {
				out = append(out, bundleGroupPair{x: i, y: j, r: r})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].r > out[b].r })
	return out
}

func intersectionCount(a, b []rnacore.GenomicPosition) int {
	i, j, c := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			c++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return c
}

// augmentDisjointSet unions every accepted pair into ds, skipping (with a
// debug log line) any union where either side's component has already
// reached Cfg.MaxGroupSize. Two components that are each below the cap may
// still merge into one larger than it.
func (bg *BundleGroup) augmentDisjointSet(vpid []bundleGroupPair, ds *dsu.Set) {
	for _, p := range vpid {
		px, py := ds.Find(p.x), ds.Find(p.y)
		if px == py {
			continue
		}
		sx, sy := ds.Size(px), ds.Size(py)
		if sx >= bg.Cfg.MaxGroupSize || sy >= bg.Cfg.MaxGroupSize {
			log.Debug.Printf("bundle-group: skip union of components of size %d and %d at group-size cap %d", sx, sy, bg.Cfg.MaxGroupSize)
			continue
		}
		q := ds.Link(px, py)
		ds.SetSize(q, sx+sy)
	}
}

// buildGroups commits every component of ds (restricted to ss) whose size
// meets bg.minGrpSize and whose members are not already grouped, to bg.gvv,
// marking them grouped. The index into bg.gvv is recorded only once the
// slice is actually pushed, so it always refers to the just-pushed list.
func (bg *BundleGroup) buildGroups(ss []int, ds *dsu.Set) {
	mm := map[int]int{}
	for i, orig := range ss {
		p := ds.Find(i)
		if ds.Size(p) < bg.minGrpSize {
			continue
		}
		if bg.grouped[orig] {
			continue
		}
		bg.grouped[orig] = true

		if k, ok := mm[p]; ok {
			bg.gvv[k] = append(bg.gvv[k], orig)
			continue
		}
		bg.gvv = append(bg.gvv, []int{orig})
		mm[p] = len(bg.gvv) - 1
	}
}

func (bg *BundleGroup) filterPairs(ss []int, vpid []bundleGroupPair) []bundleGroupPair {
	var out []bundleGroupPair
	for _, p := range vpid {
		if bg.grouped[ss[p.x]] || bg.grouped[ss[p.y]] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (bg *BundleGroup) filterPairsGlobal(vpid []bundleGroupPair) []bundleGroupPair {
	var out []bundleGroupPair
	for _, p := range vpid {
		if bg.grouped[p.x] || bg.grouped[p.y] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (bg *BundleGroup) logStats(round int) {
	counts := map[int]int{}
	for _, g := range bg.gvv {
		counts[len(g)]++
	}
	for n, c := range counts {
		log.Debug.Printf("bundle-group round %d: chrm %s strand %c, %d groups of size %d", round, bg.Chrm, bg.Strand, c, n)
	}
}
