package nanocount

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// WriteFilteredBAM writes the alignments kept by the filter to a BAM file at
// path, in read order. The best alignment of every read is flagged primary
// and the others secondary. Alignments without a source record are skipped.
func WriteFilteredBAM(ctx context.Context, path string, header *sam.Header, reads *FilteredReads) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create filtered bam", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	if err != nil {
		return errors.E(err, "filtered bam writer", path)
	}
	var e errors.Once
	n := 0
	for _, r := range reads.Reads() {
		for i := range r.Alignments {
			src := r.Alignments[i].Record
			if src == nil {
				continue
			}
			rec := *src
			rec.Flags &^= sam.Secondary | sam.Supplementary
			if i > 0 {
				rec.Flags |= sam.Secondary
			}
			if err := w.Write(&rec); err != nil {
				e.Set(err)
				break
			}
			n++
		}
		if e.Err() != nil {
			break
		}
	}
	e.Set(w.Close())
	if err := e.Err(); err != nil {
		return errors.E(err, "write filtered bam", path)
	}
	log.Printf("wrote %d alignments to %s", n, path)
	return nil
}
