package meta

// Config carries the subset of the assembler's configuration that the core
// (clustering, combining, bridging handoff, assembly) consumes directly.
// Parsing it from a config file or CLI flags is a caller concern.
type Config struct {
	MaxThreads int

	// MaxGroupingSimilarity is the round-one (high-precision) similarity
	// threshold; MinGroupingSimilarity is the round-two (relaxed) one.
	MaxGroupingSimilarity float64
	MinGroupingSimilarity float64

	MaxGroupSize             int
	MaxNumJunctionsToCombine int
	MaxGroupBoundaryDistance int32

	MinSubregionGap         int32
	MinSubregionLength      int32
	MinSubregionOverlap     float64
	MinGuaranteedEdgeWeight float64

	// MinSupportingSamples/MinSplicingWeight are the junction-refinement
	// thresholds: a junction endpoint is reliable once its summed sample
	// count or summed weight clears them (CombinedGraph.RefineJunctions).
	MinSupportingSamples int
	MinSplicingWeight    float64

	// OutputBridgedBAMDir, if non-empty, enables per-sample bridged-BAM
	// output under OutputBridgedBAMDir/<sample_id>.bam.
	OutputBridgedBAMDir string
}

// ConfigOption adjusts a Config during DefaultConfig construction.
type ConfigOption func(*Config)

// WithMaxThreads sets the worker pool size used by BundleGroup.Resolve.
func WithMaxThreads(n int) ConfigOption {
	return func(c *Config) { c.MaxThreads = n }
}

// WithGroupingSimilarity sets the round-one/round-two similarity
// thresholds together, since min must never exceed max.
func WithGroupingSimilarity(max, min float64) ConfigOption {
	return func(c *Config) { c.MaxGroupingSimilarity = max; c.MinGroupingSimilarity = min }
}

// WithMaxGroupSize sets the component size at which BundleGroup stops
// merging a group with others (and the size a round-one group must reach to
// be committed). One union of two smaller components can still produce a
// group above it.
func WithMaxGroupSize(n int) ConfigOption {
	return func(c *Config) { c.MaxGroupSize = n }
}

// WithMaxNumJunctionsToCombine excludes oversized graphs from similarity
// scoring.
func WithMaxNumJunctionsToCombine(n int) ConfigOption {
	return func(c *Config) { c.MaxNumJunctionsToCombine = n }
}

// WithMaxGroupBoundaryDistance sets the distance used to group nearby
// transcript start/end boundaries before phase projection.
func WithMaxGroupBoundaryDistance(d int32) ConfigOption {
	return func(c *Config) { c.MaxGroupBoundaryDistance = d }
}

// WithOutputBridgedBAMDir enables per-sample bridged-BAM output.
func WithOutputBridgedBAMDir(dir string) ConfigOption {
	return func(c *Config) { c.OutputBridgedBAMDir = dir }
}

// DefaultConfig returns a Config with valid thresholds (MaxThreads >= 1,
// similarities in (0,1], MaxGroupSize >= 2, MaxNumJunctionsToCombine >= 1)
// and otherwise-reasonable defaults, modified by any opts.
func DefaultConfig(opts ...ConfigOption) Config {
	c := Config{
		MaxThreads:               1,
		MaxGroupingSimilarity:    0.8,
		MinGroupingSimilarity:    0.2,
		MaxGroupSize:             10,
		MaxNumJunctionsToCombine: 100,
		MaxGroupBoundaryDistance: 20,
		MinSubregionGap:          15,
		MinSubregionLength:       20,
		MinSubregionOverlap:      0.5,
		MinGuaranteedEdgeWeight:  1.5,
		MinSupportingSamples:     2,
		MinSplicingWeight:        5,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
