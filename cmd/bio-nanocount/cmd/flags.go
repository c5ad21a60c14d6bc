package cmd

import (
	"context"
	"flag"

	"github.com/grailbio/base/log"
	"github.com/grailbio/nanocount/nanocount"
)

// registerFilterFlags binds the alignment filtering options to fs.
func registerFilterFlags(fs *flag.FlagSet, opts *nanocount.Opts) {
	fs.IntVar(&opts.MinReadLength, "min-read-length", opts.MinReadLength,
		"Minimum number of aligned query bases in the best alignment of a read")
	fs.Float64Var(&opts.MinQueryFractionAligned, "min-query-fraction-aligned", opts.MinQueryFractionAligned,
		"Minimum fraction of the read covered by its best alignment")
	fs.Float64Var(&opts.EquivalentThreshold, "equivalent-threshold", opts.EquivalentThreshold,
		"Minimum ratio of a secondary alignment's score to the best alignment's score for the secondary alignment to be kept")
	fs.Var(&opts.ScoringValue, "scoring-value",
		"Metric compared by -equivalent-threshold: alignment_score or alignment_length")
	fs.Var(&opts.PrimaryScore, "primary-score",
		"How to pick the best alignment of a read: primary (aligner flag), align_score or align_len")
	fs.BoolVar(&opts.DiscardSupplementary, "discard-supplementary", opts.DiscardSupplementary,
		"Discard supplementary alignments")
	fs.IntVar(&opts.MaxDist3Prime, "max-dist-3-prime", opts.MaxDist3Prime,
		"Maximum distance between the alignment end and the transcript 3' end; -1 disables the check")
	fs.IntVar(&opts.MaxDist5Prime, "max-dist-5-prime", opts.MaxDist5Prime,
		"Maximum distance between the alignment start and the transcript 5' end; -1 disables the check")
}

// registerEMFlags binds the estimation and report options to fs.
func registerEMFlags(fs *flag.FlagSet, opts *nanocount.Opts) {
	fs.Float64Var(&opts.ConvergenceTarget, "convergence-target", opts.ConvergenceTarget,
		"Stop the EM once the L1 distance between two successive abundance vectors is at most this value")
	fs.IntVar(&opts.MaxEMRounds, "max-em-rounds", opts.MaxEMRounds,
		"Maximum number of EM rounds")
	fs.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism,
		"Maximum number of goroutines used within an EM round; 0 = runtime.NumCPU()")
	fs.BoolVar(&opts.ExtraTxInfo, "extra-tx-info", opts.ExtraTxInfo,
		"Add the transcript length column to the report")
}

func registerAllFlags(fs *flag.FlagSet, opts *nanocount.Opts) {
	registerFilterFlags(fs, opts)
	registerEMFlags(fs, opts)
}

// resolveOpts computes the options of a command. If configPath is set, the
// YAML file replaces the defaults, and the flags explicitly set on fs are
// applied on top of it. register must be the function that bound opts to fs.
func resolveOpts(ctx context.Context, fs *flag.FlagSet, configPath string, opts *nanocount.Opts,
	register func(*flag.FlagSet, *nanocount.Opts)) error {
	if configPath != "" {
		loaded, err := nanocount.LoadOpts(ctx, configPath)
		if err != nil {
			return err
		}
		override := flag.NewFlagSet("override", flag.ContinueOnError)
		register(override, &loaded)
		fs.Visit(func(f *flag.Flag) {
			if err != nil || override.Lookup(f.Name) == nil {
				return
			}
			err = override.Set(f.Name, f.Value.String())
		})
		if err != nil {
			return err
		}
		*opts = loaded
	}
	log.Debug.Printf("options: %+v", *opts)
	return opts.Validate()
}
