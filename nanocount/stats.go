package nanocount

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"
)

// FilterStats counts the filtering decisions taken on the input.
type FilterStats struct {
	// Alignments is the number of records read from the input.
	Alignments int
	// Unmapped is the # of unmapped records.
	Unmapped int
	// NegativeStrand is the # of alignments on the reverse strand.
	NegativeStrand int
	// Supplementary is the # of supplementary alignments dropped because of
	// Opts.DiscardSupplementary.
	Supplementary int
	// Dist3Prime is the # of alignments ending too far from the transcript 3'
	// end.
	Dist3Prime int
	// Dist5Prime is the # of alignments starting too far from the transcript
	// 5' end.
	Dist5Prime int
	// ValidAlignments is the # of alignments kept by the per-alignment pass.
	ValidAlignments int

	// Reads is the # of distinct reads with at least one valid alignment.
	Reads int
	// NoBestAlignment is the # of reads for which no best alignment exists.
	NoBestAlignment int
	// ZeroScore is the # of reads whose best alignment has AS<=0 or no AS.
	ZeroScore int
	// ZeroLength is the # of reads whose best alignment covers no query base.
	ZeroLength int
	// ShortRead is the # of reads whose best alignment is shorter than
	// Opts.MinReadLength.
	ShortRead int
	// LowQueryFraction is the # of reads whose best alignment covers less than
	// Opts.MinQueryFractionAligned of the read.
	LowQueryFraction int
	// ValidReads is the # of reads kept.
	ValidReads int
	// LowScoreSecondary is the # of secondary alignments below
	// Opts.EquivalentThreshold.
	LowScoreSecondary int
	// DuplicateTranscript is the # of secondary alignments on a transcript
	// that the read already aligns to.
	DuplicateTranscript int
	// ValidSecondary is the # of secondary alignments kept.
	ValidSecondary int
}

func (s FilterStats) lines() []string {
	return []string{
		"Parse alignments",
		fmt.Sprintf("  alignments: %d", s.Alignments),
		fmt.Sprintf("  discarded unmapped: %d", s.Unmapped),
		fmt.Sprintf("  discarded negative strand: %d", s.NegativeStrand),
		fmt.Sprintf("  discarded supplementary: %d", s.Supplementary),
		fmt.Sprintf("  discarded 3' distance: %d", s.Dist3Prime),
		fmt.Sprintf("  discarded 5' distance: %d", s.Dist5Prime),
		fmt.Sprintf("  valid alignments: %d", s.ValidAlignments),
		"Filter reads",
		fmt.Sprintf("  reads: %d", s.Reads),
		fmt.Sprintf("  discarded no best alignment: %d", s.NoBestAlignment),
		fmt.Sprintf("  discarded zero or negative score: %d", s.ZeroScore),
		fmt.Sprintf("  discarded zero length: %d", s.ZeroLength),
		fmt.Sprintf("  discarded short read: %d", s.ShortRead),
		fmt.Sprintf("  discarded low query fraction aligned: %d", s.LowQueryFraction),
		fmt.Sprintf("  valid reads: %d", s.ValidReads),
		fmt.Sprintf("  discarded low score secondary: %d", s.LowScoreSecondary),
		fmt.Sprintf("  discarded duplicate transcript secondary: %d", s.DuplicateTranscript),
		fmt.Sprintf("  valid secondary alignments: %d", s.ValidSecondary),
	}
}

// String returns a multi-line summary of the counters.
func (s FilterStats) String() string {
	return strings.Join(s.lines(), "\n")
}

// Log writes the summary to the info log.
func (s FilterStats) Log() {
	for _, l := range s.lines() {
		log.Printf("%s", l)
	}
}
