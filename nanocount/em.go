package nanocount

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// ErrNoValidReads is returned by EstimateAbundance when the compatibility
// table is empty.
var ErrNoValidReads = errors.New("no valid reads to estimate abundance from")

// Below this many reads per job, splitting the per-read loops is not worth
// the goroutine overhead.
const minReadsPerJob = 4096

// EMResult is the outcome of EstimateAbundance.
type EMResult struct {
	// Abundance maps every transcript of the table to its estimated relative
	// abundance. The values sum to 1.
	Abundance map[string]float64
	// Rounds is the number of EM rounds run.
	Rounds int
	// Convergence is the L1 distance between the last two abundance vectors,
	// or 1 if only one round was run.
	Convergence float64
	// Converged is false if the loop stopped because of Opts.MaxEMRounds.
	Converged bool
	// Table is the compatibility table after the last round.
	Table *CompatibilityTable
}

// TranscriptAbundance is one entry of the abundance vector.
type TranscriptAbundance struct {
	Name      string
	Abundance float64
}

// Sorted returns the abundance vector sorted by decreasing abundance. Ties
// are ordered by transcript name.
func (r *EMResult) Sorted() []TranscriptAbundance {
	v := make([]TranscriptAbundance, 0, len(r.Abundance))
	for name, a := range r.Abundance {
		v = append(v, TranscriptAbundance{name, a})
	}
	sort.Slice(v, func(i, j int) bool {
		if v[i].Abundance != v[j].Abundance {
			return v[i].Abundance > v[j].Abundance
		}
		return v[i].Name < v[j].Name
	})
	return v
}

// numJobs computes how many contiguous read ranges the per-read loops are
// split into.
func numJobs(nReads, parallelism int) int {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	n := nReads / minReadsPerJob
	if n > parallelism {
		n = parallelism
	}
	if n < 1 {
		n = 1
	}
	return n
}

// jobRange returns the reads [start, end) handled by the given job.
func jobRange(job, nJobs, nReads int) (start, end int) {
	return (job * nReads) / nJobs, ((job + 1) * nReads) / nJobs
}

// UpdateAbundance accumulates the probability mass of every transcript and
// normalizes it by the grand total. The result is indexed like
// Transcripts(). The per-job partial sums are merged in job order, so the
// result only depends on the table and parallelism.
func (t *CompatibilityTable) UpdateAbundance(parallelism int) []float64 {
	nJobs := numJobs(len(t.reads), parallelism)
	partial := make([][]float64, nJobs)
	err := traverse.Each(nJobs, func(job int) error {
		sums := make([]float64, len(t.transcripts))
		start, end := jobRange(job, nJobs, len(t.reads))
		for i := start; i < end; i++ {
			r := &t.reads[i]
			for j, tx := range r.tx {
				sums[tx] += r.prob[j]
			}
		}
		partial[job] = sums
		return nil
	})
	if err != nil {
		log.Panicf("em: update abundance: %v", err)
	}
	abundance := partial[0]
	for _, sums := range partial[1:] {
		for tx, v := range sums {
			abundance[tx] += v
		}
	}
	var total float64
	for _, v := range abundance {
		total += v
	}
	if total > 0 {
		for tx := range abundance {
			abundance[tx] /= total
		}
	}
	return abundance
}

// Reweight returns a new table in which the probability of each candidate
// transcript of a read is its abundance divided by the summed abundance of
// the read's candidates. A read whose candidates all have zero abundance
// keeps its previous probabilities. t is not modified.
func (t *CompatibilityTable) Reweight(abundance []float64, parallelism int) *CompatibilityTable {
	out := &CompatibilityTable{
		transcripts: t.transcripts,
		txIndex:     t.txIndex,
		reads:       make([]compatRead, len(t.reads)),
	}
	nJobs := numJobs(len(t.reads), parallelism)
	err := traverse.Each(nJobs, func(job int) error {
		start, end := jobRange(job, nJobs, len(t.reads))
		for i := start; i < end; i++ {
			r := &t.reads[i]
			nr := compatRead{name: r.name, tx: r.tx, prob: make([]float64, len(r.tx))}
			var sum float64
			for _, tx := range r.tx {
				sum += abundance[tx]
			}
			for j, tx := range r.tx {
				if sum > 0 {
					nr.prob[j] = abundance[tx] / sum
				} else {
					nr.prob[j] = r.prob[j]
				}
			}
			out.reads[i] = nr
		}
		return nil
	})
	if err != nil {
		log.Panicf("em: reweight: %v", err)
	}
	return out
}

// L1Distance returns sum(|a[i]-b[i]|). The two vectors must have the same
// length.
func L1Distance(a, b []float64) float64 {
	var d float64
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d
}

// EstimateAbundance runs the EM loop on table until the L1 distance between
// two successive abundance vectors is at most opts.ConvergenceTarget, or
// opts.MaxEMRounds rounds have run. The first round always reports a
// convergence of 1, so at least two rounds are needed to converge.
//
// Stopping on MaxEMRounds is not an error: the last abundance vector is
// returned with Converged=false. The context is checked between rounds.
// Invalid opts are rejected before any round runs.
func EstimateAbundance(ctx context.Context, table *CompatibilityTable, opts Opts) (EMResult, error) {
	if err := opts.Validate(); err != nil {
		return EMResult{}, err
	}
	if table.NumReads() == 0 {
		return EMResult{}, ErrNoValidReads
	}
	var (
		round       int
		convergence = 1.0
		abundance   []float64
	)
	for convergence > opts.ConvergenceTarget && round < opts.MaxEMRounds {
		if err := ctx.Err(); err != nil {
			return EMResult{}, err
		}
		round++
		next := table.UpdateAbundance(opts.Parallelism)
		if round == 1 {
			convergence = 1
		} else {
			convergence = L1Distance(abundance, next)
		}
		abundance = next
		table = table.Reweight(abundance, opts.Parallelism)
		log.Debug.Printf("em: round %d, convergence %g", round, convergence)
	}
	result := EMResult{
		Abundance:   make(map[string]float64, len(abundance)),
		Rounds:      round,
		Convergence: convergence,
		Converged:   convergence <= opts.ConvergenceTarget,
		Table:       table,
	}
	for tx, a := range abundance {
		result.Abundance[table.transcripts[tx]] = a
	}
	if result.Converged {
		log.Printf("em: converged after %d rounds (convergence %g)", round, convergence)
	} else {
		log.Printf("warning: em: stopped after %d rounds without converging (convergence %g > %g)",
			round, convergence, opts.ConvergenceTarget)
	}
	return result, nil
}
