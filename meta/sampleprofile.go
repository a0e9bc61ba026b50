package meta

import (
	"fmt"
	"os"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// SampleProfile carries the per-sample state the core needs once an
// alignment file has been parsed upstream into CombinedGraphs and
// PereadClusters: the sample's own header (for re-emitting bridged
// alignments), its insert-size range (for the BridgeSolver's search
// window), and the lock serializing access to its optional bridged-BAM
// output. Opening and iterating the original alignment file is an upstream
// collaborator concern.
type SampleProfile struct {
	AlignFile string
	SampleID  int

	InsertSizeLow  int
	InsertSizeHigh int

	Hdr *sam.Header

	bamLock    sync.Mutex
	bridgedBAM *bam.Writer
	bridgedF   *os.File
}

// Lock acquires the sample's BAM lock, serializing bridged-BAM writes
// across the workers that may touch this sample concurrently.
func (sp *SampleProfile) Lock() { sp.bamLock.Lock() }

// Unlock releases the sample's BAM lock.
func (sp *SampleProfile) Unlock() { sp.bamLock.Unlock() }

// OpenBridgedBAM opens dir/<sample_id>.bam for writing and readies it to
// receive bridged/unbridged fragment records. The caller must hold the
// sample's lock (via Lock) for the duration of OpenBridgedBAM, every
// WriteBridgedRecord call, and CloseBridgedBAM.
func (sp *SampleProfile) OpenBridgedBAM(dir string) error {
	if sp.Hdr == nil {
		return errors.E("meta.SampleProfile.OpenBridgedBAM", "sample has no header", errors.Invalid)
	}
	path := fmt.Sprintf("%s/%d.bam", dir, sp.SampleID)
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "meta.SampleProfile.OpenBridgedBAM:", path)
	}
	w, err := bam.NewWriter(f, sp.Hdr, 1)
	if err != nil {
		f.Close()
		return errors.E(err, "meta.SampleProfile.OpenBridgedBAM: create writer for", path)
	}
	sp.bridgedF = f
	sp.bridgedBAM = w
	return nil
}

// WriteBridgedRecord emits one record to the sample's open bridged-BAM
// file.
func (sp *SampleProfile) WriteBridgedRecord(r *sam.Record) error {
	if sp.bridgedBAM == nil {
		return errors.E("meta.SampleProfile.WriteBridgedRecord", "bridged bam not open", errors.Precondition)
	}
	return sp.bridgedBAM.Write(r)
}

// CloseBridgedBAM closes the sample's bridged-BAM output, if open. Closing
// an unopened writer is a no-op, not an error.
func (sp *SampleProfile) CloseBridgedBAM() error {
	if sp.bridgedBAM == nil {
		return nil
	}
	err := sp.bridgedBAM.Close()
	sp.bridgedBAM = nil
	if cerr := sp.bridgedF.Close(); err == nil {
		err = cerr
	}
	sp.bridgedF = nil
	if err != nil {
		log.Error.Printf("close bridged bam for sample %s: %v", sp.AlignFile, err)
		return errors.E(err, "meta.SampleProfile.CloseBridgedBAM:", sp.AlignFile)
	}
	return nil
}
