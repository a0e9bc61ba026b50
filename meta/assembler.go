package meta

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/sync/multierror"

	"github.com/shaolab/aletsch-core/rnacore"
)

// Assembler orchestrates per-cluster resolution: combining graphs,
// delegating to a BridgeSolver on the pooled unbridged fragments, folding
// the bridged fragments back into each contributing graph, and delegating
// final decomposition.
type Assembler struct {
	Cfg    Config
	Bridge BridgeSolver
	Decomp Decomposer
}

// NewAssembler returns an Assembler wired to the given collaborators.
func NewAssembler(cfg Config, bridge BridgeSolver, decomp Decomposer) *Assembler {
	return &Assembler{Cfg: cfg, Bridge: bridge, Decomp: decomp}
}

// AssembleCluster resolves one BundleGroup cluster (a list of CombinedGraphs
// resolved to co-assemble) and feeds its results into ts. A
// PreconditionViolation panicking anywhere inside is logged and re-panicked
// so the batch still aborts; this is the one recovery point in the module.
// I/O errors from emitting a sample's bridged-BAM output are recovered
// locally and returned, aggregated across every sample touched, rather than
// aborting the cluster.
func (a *Assembler) AssembleCluster(gv []*CombinedGraph, batch, instance int, ts *TranscriptSet, samples []*SampleProfile) error {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*rnacore.PreconditionViolation); ok {
				log.Error.Printf("assemble cluster batch=%d instance=%d: %v", batch, instance, r)
			}
			panic(r)
		}
	}()

	errs := multierror.NewMultiError(len(gv))
	subindex := 0
	if len(gv) == 1 {
		gt := gv[0]
		gt.SetGID(instance, subindex)
		subindex++
		gt.RefineJunctions(a.Cfg.MinSupportingSamples, a.Cfg.MinSplicingWeight)
		a.assembleOne(gt, ts, CountAddCoverageAdd)
		ts.IncreaseCount(1)

		if a.Cfg.OutputBridgedBAMDir != "" && len(gt.Unbridged) >= 1 {
			errs.Add(a.emitUnbridged(gt, samples))
		}
		return errs.Err()
	}

	cx := NewCombinedGraph()
	errs.Add(a.resolveCluster(gv, cx, samples))

	for _, gt := range gv {
		gt.SetGID(instance, subindex)
		subindex++
		a.assembleOne(gt, ts, CountAddCoverageAdd)
	}

	cx.SetGID(instance, subindex)
	a.assembleOne(cx, ts, CountAddCoverageNul)
	return errs.Err()
}

// emitUnbridged re-emits gt's still-unbridged fragment clusters through its
// owning sample's bridged-BAM writer. It serves the singleton path;
// resolveCluster uses emitBridgedAndUnbridged instead. Errors opening/closing/writing
// the file are logged and returned rather than panicking; they never
// invalidate transcripts already produced.
func (a *Assembler) emitUnbridged(gt *CombinedGraph, samples []*SampleProfile) error {
	sp := samples[gt.SampleID]
	sp.Lock()
	defer sp.Unlock()
	if err := sp.OpenBridgedBAM(a.Cfg.OutputBridgedBAMDir); err != nil {
		log.Error.Printf("open bridged bam for sample %d: %v", gt.SampleID, err)
		return err
	}
	defer func() {
		if err := sp.CloseBridgedBAM(); err != nil {
			log.Error.Printf("close bridged bam for sample %d: %v", gt.SampleID, err)
		}
	}()

	errs := multierror.NewMultiError(len(gt.Unbridged))
	for i := range gt.Unbridged {
		pc := &gt.Unbridged[i]
		pc.SampleID = gt.SampleID
		if err := writeUnbridgedPereadsCluster(pc, gt.Chrm, sp); err != nil {
			log.Error.Printf("write unbridged cluster for sample %d: %v", gt.SampleID, err)
			errs.Add(err)
		}
	}
	return errs.Err()
}

// assembleOne builds cb's splice graph and phase set, decomposes it, and
// folds the resulting transcripts into ts.
func (a *Assembler) assembleOne(cb *CombinedGraph, ts *TranscriptSet, mode TranscriptMode) {
	vt := a.assembleTranscripts(cb)
	for _, t := range vt {
		ts.Add(t, 1, cb.SampleID, mode)
	}
}

// assembleTranscripts rebuilds cb's splice graph and runs the full
// assemble(splice_graph, phase_set, ...) pipeline over it.
func (a *Assembler) assembleTranscripts(cb *CombinedGraph) []Transcript {
	var gx rnacore.SpliceGraph
	cb.BuildSpliceGraph(&gx)
	gx.GID = cb.GID
	return a.assembleSpliceGraph(&gx, cb.Phases)
}

// assembleSpliceGraph is the core per-graph pipeline shared by both the
// singleton and consensus paths: build the vertex index, extend strands,
// group and project boundaries, refine the graph, build and filter the
// hyper-set, then hand off to the decomposition kernel.
func (a *Assembler) assembleSpliceGraph(gx *rnacore.SpliceGraph, px *rnacore.PhaseSet) []Transcript {
	gx.BuildVertexIndex()
	gx.ExtendStrands()

	smap := rnacore.GroupStartBoundaries(gx, rnacore.GenomicPosition(a.Cfg.MaxGroupBoundaryDistance))
	tmap := rnacore.GroupEndBoundaries(gx, rnacore.GenomicPosition(a.Cfg.MaxGroupBoundaryDistance))
	px.ProjectBoundaries(smap, tmap)

	gx.RefineSpliceGraph()

	hx := rnacore.NewHyperSet(gx, px)
	hx.FilterNodes(gx)

	if a.Decomp == nil {
		return nil
	}
	vt := a.Decomp.Decompose(gx, hx, a.Cfg)
	for i := range vt {
		vt[i].RPKM = 0
	}
	log.Debug.Printf("assemble %s: %d transcripts, %d phases", gx.DebugString(), len(vt), px.Size())
	return vt
}

// resolveCluster builds the consensus graph cx from every member of gv,
// bridges the pooled unbridged fragments, and folds the bridged results
// back into each member. Precondition: len(gv) >= 2. Returns any aggregated
// I/O error from re-emitting bridged/unbridged fragments, per the same
// non-fatal recovery policy as AssembleCluster.
func (a *Assembler) resolveCluster(gv []*CombinedGraph, cx *CombinedGraph, samples []*SampleProfile) error {
	if len(gv) < 2 {
		panic(&rnacore.PreconditionViolation{Op: "Assembler.resolveCluster", Detail: "cluster must have at least two members"})
	}

	cx.CopyMetaInformation(gv[0])
	cx.Combine(gv)
	cx.SampleID = -1

	// The consensus carries summed counts, so MinSupportingSamples is
	// genuine multi-sample evidence here.
	cx.RefineJunctions(a.Cfg.MinSupportingSamples, a.Cfg.MinSplicingWeight)

	var gx rnacore.SpliceGraph
	cx.BuildSpliceGraph(&gx)
	gx.BuildVertexIndex()

	type span struct{ lo, hi int }
	spans := make([]span, len(gv))
	var vc []PereadCluster
	lengthLow, lengthHigh := 999, 0
	for i, gt := range gv {
		sp := samples[gt.SampleID]
		if sp.InsertSizeLow < lengthLow {
			lengthLow = sp.InsertSizeLow
		}
		if sp.InsertSizeHigh > lengthHigh {
			lengthHigh = sp.InsertSizeHigh
		}
		spans[i].lo = len(vc)
		vc = append(vc, poolPereadClusters(gt.Unbridged)...)
		spans[i].hi = len(vc)
	}

	var opt []BridgePath
	if a.Bridge != nil {
		opt = a.Bridge.Resolve(&gx, vc, lengthLow, lengthHigh)
		a.Bridge.BuildPhaseSet(cx.Phases)
	}

	errs := multierror.NewMultiError(len(gv))
	for i, gt := range gv {
		g1 := NewCombinedGraph()
		for k := spans[i].lo; k < spans[i].hi; k++ {
			if k >= len(opt) || opt[k].Type < 0 {
				continue
			}
			g1.Append(&vc[k], &opt[k])
		}
		gt.Combine([]*CombinedGraph{g1})

		if a.Cfg.OutputBridgedBAMDir != "" {
			optSlice := optSpan(opt, spans[i].lo, spans[i].hi)
			errs.Add(a.emitBridgedAndUnbridged(gt, vc[spans[i].lo:spans[i].hi], optSlice, samples))
		}
	}

	for _, gt := range gv {
		gt.Unbridged = nil
	}
	return errs.Err()
}

// poolPereadClusters merges clusters sharing the same endpoint quadruple,
// mate chains, and bounds before they are pooled for the bridger, so the
// solver scores each distinct fragment shape once: duplicates fold their
// read counts onto the first occurrence. Identity is the cluster's
// FingerprintKey.
func poolPereadClusters(ub []PereadCluster) []PereadCluster {
	if len(ub) <= 1 {
		return ub
	}
	out := make([]PereadCluster, 0, len(ub))
	index := make(map[uint64]int, len(ub))
	for i := range ub {
		key := ub[i].FingerprintKey()
		if k, ok := index[key]; ok {
			out[k].Count += ub[i].Count
			continue
		}
		index[key] = len(out)
		out = append(out, ub[i])
	}
	return out
}

// optSpan returns opt[lo:hi], or nil if opt is shorter than lo (the
// BridgeSolver collaborator was not configured, or returned fewer results
// than clusters pooled). BridgeSolver.Resolve's contract guarantees a
// 1-to-1 result per input cluster, so this only guards the no-solver case.
func optSpan(opt []BridgePath, lo, hi int) []BridgePath {
	if lo >= len(opt) {
		return nil
	}
	if hi > len(opt) {
		hi = len(opt)
	}
	return opt[lo:hi]
}

// emitBridgedAndUnbridged re-emits one graph's share of the pooled,
// just-bridged fragments through its sample's bridged-BAM, writing the
// resolved chain for every cluster the solver bridged and falling back to
// the plain unbridged record for every cluster it could not.
func (a *Assembler) emitBridgedAndUnbridged(gt *CombinedGraph, vc []PereadCluster, opt []BridgePath, samples []*SampleProfile) error {
	sp := samples[gt.SampleID]
	sp.Lock()
	defer sp.Unlock()
	if err := sp.OpenBridgedBAM(a.Cfg.OutputBridgedBAMDir); err != nil {
		log.Error.Printf("open bridged bam for sample %d: %v", gt.SampleID, err)
		return err
	}
	defer func() {
		if err := sp.CloseBridgedBAM(); err != nil {
			log.Error.Printf("close bridged bam for sample %d: %v", gt.SampleID, err)
		}
	}()

	errs := multierror.NewMultiError(len(vc))
	for k := range vc {
		pc := &vc[k]
		pc.SampleID = gt.SampleID
		var err error
		if k < len(opt) && opt[k].Type >= 0 {
			err = writeBridgedPereadsCluster(pc, &opt[k], gt.Chrm, sp)
		} else {
			err = writeUnbridgedPereadsCluster(pc, gt.Chrm, sp)
		}
		if err != nil {
			log.Error.Printf("write cluster for sample %d: %v", gt.SampleID, err)
			errs.Add(err)
		}
	}
	return errs.Err()
}
