package nanocount

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/nanocount/encoding/bamprovider"
)

// CountResult holds the intermediate and final products of Count.
type CountResult struct {
	Header      *sam.Header
	Reads       *FilteredReads
	FilterStats FilterStats
	// Table is the initial compatibility table, before any EM round.
	Table *CompatibilityTable
	EM    EMResult
}

// TxLengths returns the transcript lengths listed in the input header.
func (r *CountResult) TxLengths() map[string]int {
	return bamprovider.RefLengths(r.Header)
}

// Report summarizes the EM result.
func (r *CountResult) Report(opts Opts) *Report {
	return NewReport(r.EM, r.Table.NumReads(), r.TxLengths(), opts)
}

// Count filters the alignments of p, builds the compatibility table and runs
// the EM loop on it. It does not close p.
func Count(ctx context.Context, p bamprovider.Provider, opts Opts) (*CountResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	reads, stats, header, err := FilterProvider(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	stats.Log()
	table := NewCompatibilityTable(reads)
	log.Printf("compatibility table: %d reads, %d transcripts", table.NumReads(), len(table.Transcripts()))
	em, err := EstimateAbundance(ctx, table, opts)
	if err != nil {
		return nil, err
	}
	return &CountResult{
		Header:      header,
		Reads:       reads,
		FilterStats: stats,
		Table:       table,
		EM:          em,
	}, nil
}
