// Package dsu implements a union-by-size disjoint-set forest over the
// integers [0, n), used by meta.BundleGroup to cluster graph indices.
package dsu

// Set is a union-by-size disjoint-set forest. It is not safe for concurrent
// use; callers that share one Set across goroutines (as BundleGroup's round
// two does) must serialize access with their own mutex.
type Set struct {
	parent []int
	size   []int
}

// New returns a Set with n singleton components, each of size 1.
func New(n int) *Set {
	s := &Set{parent: make([]int, n), size: make([]int, n)}
	for i := range s.parent {
		s.parent[i] = i
		s.size[i] = 1
	}
	return s
}

// Find returns the representative of x's component, path-compressing along
// the way.
func (s *Set) Find(x int) int {
	for s.parent[x] != x {
		s.parent[x] = s.parent[s.parent[x]]
		x = s.parent[x]
	}
	return x
}

// Size returns the size of the component whose representative is p. p must
// already be a representative (i.e. the result of Find).
func (s *Set) Size(p int) int { return s.size[p] }

// Link unions the components represented by px and py (both must already be
// representatives, i.e. results of Find) and returns the new representative.
// The caller is responsible for updating the merged size via SetSize; Link
// itself only rewires parent pointers. The split lets BundleGroup check its
// group-size cap between Find and Link.
func (s *Set) Link(px, py int) int {
	if px == py {
		return px
	}
	// Union by size: attach the smaller tree under the larger one's root.
	if s.size[px] < s.size[py] {
		px, py = py, px
	}
	s.parent[py] = px
	return px
}

// SetSize overwrites the recorded size of the component represented by p.
func (s *Set) SetSize(p, n int) { s.size[p] = n }
