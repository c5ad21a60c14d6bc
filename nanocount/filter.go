package nanocount

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/nanocount/encoding/bamprovider"
)

// ErrUnknownReference is reported when a mapped record names a transcript
// that is not listed in the file header.
var ErrUnknownReference = errors.New("unknown reference")

// Filter turns a stream of alignments into FilteredReads.
//
// Add runs the per-alignment checks and groups the survivors by read. Finish
// then picks the best alignment of every read, validates it, and keeps the
// secondary alignments that score close enough to it.
type Filter struct {
	opts    Opts
	refLens map[string]int

	reads map[string]*Read
	order []*Read
	stats FilterStats
}

// NewFilter creates a filter. refLens maps every transcript name to its
// length, usually from bamprovider.RefLengths.
func NewFilter(refLens map[string]int, opts Opts) *Filter {
	return &Filter{
		opts:    opts,
		refLens: refLens,
		reads:   map[string]*Read{},
	}
}

// Add applies the per-alignment checks to a and, if it passes, attaches it to
// its read. The only error is ErrUnknownReference.
func (f *Filter) Add(a Alignment) error {
	f.stats.Alignments++
	if a.Unmapped {
		f.stats.Unmapped++
		return nil
	}
	refLen, ok := f.refLens[a.RefName]
	if !ok {
		return fmt.Errorf("read %s aligned to %s: %w", a.QueryName, a.RefName, ErrUnknownReference)
	}
	a.RefLen = refLen
	switch {
	case a.Reverse:
		f.stats.NegativeStrand++
		return nil
	case a.Kind == SupplementaryAlignment && f.opts.DiscardSupplementary:
		f.stats.Supplementary++
		return nil
	case f.opts.MaxDist3Prime >= 0 && a.Dist3Prime() > f.opts.MaxDist3Prime:
		f.stats.Dist3Prime++
		return nil
	case f.opts.MaxDist5Prime >= 0 && a.Dist5Prime() > f.opts.MaxDist5Prime:
		f.stats.Dist5Prime++
		return nil
	}
	f.stats.ValidAlignments++
	r, ok := f.reads[a.QueryName]
	if !ok {
		r = &Read{Name: a.QueryName}
		f.reads[a.QueryName] = r
		f.order = append(f.order, r)
	}
	r.Alignments = append(r.Alignments, a)
	return nil
}

// AddRecord is a shorthand for Add(NewAlignment(r)).
func (f *Filter) AddRecord(r *sam.Record) error {
	return f.Add(NewAlignment(r))
}

// Finish runs the per-read checks on the alignments added so far. The Filter
// must not be used afterwards.
func (f *Filter) Finish() (*FilteredReads, FilterStats) {
	out := newFilteredReads()
	for _, r := range f.order {
		if kept := f.filterRead(r); kept != nil {
			out.add(kept)
		}
	}
	f.reads, f.order = nil, nil
	if f.stats.ValidSecondary == 0 {
		log.Printf("warning: no valid secondary alignments found; was the aligner run with multi-mapping enabled (e.g. minimap2 -N)?")
	}
	return out, f.stats
}

// filterRead returns the read trimmed to its best alignment followed by the
// equivalent secondary alignments, or nil if the read is dropped.
func (f *Filter) filterRead(r *Read) *Read {
	f.stats.Reads++
	bestIdx := r.BestIndex(f.opts.PrimaryScore)
	if bestIdx < 0 {
		f.stats.NoBestAlignment++
		return nil
	}
	best := r.Alignments[bestIdx]
	switch {
	case best.Score <= 0:
		f.stats.ZeroScore++
		return nil
	case best.AlignLen == 0:
		f.stats.ZeroLength++
		return nil
	case best.AlignLen < f.opts.MinReadLength:
		f.stats.ShortRead++
		return nil
	case best.QueryFractionAligned() < f.opts.MinQueryFractionAligned:
		f.stats.LowQueryFraction++
		return nil
	}
	f.stats.ValidReads++

	kept := &Read{Name: r.Name, Alignments: make([]Alignment, 1, len(r.Alignments))}
	kept.Alignments[0] = best
	seen := map[string]bool{best.RefName: true}
	bestMetric := float64(best.metric(f.opts.ScoringValue))
	for _, sec := range r.Secondaries(bestIdx) {
		if float64(sec.metric(f.opts.ScoringValue))/bestMetric < f.opts.EquivalentThreshold {
			f.stats.LowScoreSecondary++
			continue
		}
		if seen[sec.RefName] {
			f.stats.DuplicateTranscript++
			continue
		}
		seen[sec.RefName] = true
		f.stats.ValidSecondary++
		kept.Alignments = append(kept.Alignments, sec)
	}
	return kept
}

// FilterProvider reads every record of p through a Filter. It returns the
// filtered reads, the filtering counters and the file header.
func FilterProvider(ctx context.Context, p bamprovider.Provider, opts Opts) (*FilteredReads, FilterStats, *sam.Header, error) {
	header, err := p.GetHeader()
	if err != nil {
		return nil, FilterStats{}, nil, err
	}
	f := NewFilter(bamprovider.RefLengths(header), opts)
	n := 0
	err = bamprovider.ReadAll(p.NewIterator(), func(r *sam.Record) error {
		if n++; n%(1<<20) == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Debug.Printf("filter: %d records", n)
		}
		return f.AddRecord(r)
	})
	if err != nil {
		return nil, FilterStats{}, nil, err
	}
	reads, stats := f.Finish()
	return reads, stats, header, nil
}
