package nanocount

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// ReportRow is one transcript line of the counts report.
type ReportRow struct {
	TranscriptName string
	// Raw is the EM abundance.
	Raw float64
	// EstCount is Raw times the number of reads used for the estimation.
	EstCount float64
	// TPM is Raw scaled to one million.
	TPM float64
	// TranscriptLength is the reference length from the alignment header,
	// or -1 if unknown.
	TranscriptLength int
}

// Report is the per-transcript summary of an EM run, sorted by decreasing
// abundance.
type Report struct {
	Rows []ReportRow
	// ExtraTxInfo adds the transcript_length column to the TSV output.
	ExtraTxInfo bool
}

// NewReport summarizes result. nReads is the number of reads of the
// compatibility table. txLens maps transcript names to their lengths; it is
// only used when opts.ExtraTxInfo is set and may be nil.
func NewReport(result EMResult, nReads int, txLens map[string]int, opts Opts) *Report {
	sorted := result.Sorted()
	rep := &Report{
		Rows:        make([]ReportRow, len(sorted)),
		ExtraTxInfo: opts.ExtraTxInfo,
	}
	for i, ta := range sorted {
		row := ReportRow{
			TranscriptName:   ta.Name,
			Raw:              ta.Abundance,
			EstCount:         ta.Abundance * float64(nReads),
			TPM:              ta.Abundance * 1e6,
			TranscriptLength: -1,
		}
		if n, ok := txLens[ta.Name]; ok && opts.ExtraTxInfo {
			row.TranscriptLength = n
		}
		rep.Rows[i] = row
	}
	return rep
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write writes the report in TSV format, header line included.
func (r *Report) Write(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("transcript_name")
	tw.WriteString("raw")
	tw.WriteString("est_count")
	tw.WriteString("tpm")
	if r.ExtraTxInfo {
		tw.WriteString("transcript_length")
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, row := range r.Rows {
		tw.WriteString(row.TranscriptName)
		tw.WriteString(formatFloat(row.Raw))
		tw.WriteString(formatFloat(row.EstCount))
		tw.WriteString(formatFloat(row.TPM))
		if r.ExtraTxInfo {
			if row.TranscriptLength < 0 {
				tw.WriteString("NA")
			} else {
				tw.WriteUint32(uint32(row.TranscriptLength))
			}
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteTSV writes the report to path. A path ending in .gz is gzip
// compressed.
func (r *Report) WriteTSV(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create report", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if fileio.DetermineType(path) != fileio.Gzip {
		err = r.Write(out.Writer(ctx))
	} else {
		gz := gzip.NewWriter(out.Writer(ctx))
		err = r.Write(gz)
		if e := gz.Close(); e != nil && err == nil {
			err = e
		}
	}
	if err != nil {
		return errors.E(err, "write report", path)
	}
	log.Printf("wrote %d transcripts to %s", len(r.Rows), path)
	return nil
}
