package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/nanocount/nanocount"
	"v.io/x/lib/cmdline"
)

type emFlags struct {
	configPath string
	output     string
}

func newCmdEM() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "em",
		Short: "Rerun the abundance estimation on a checkpoint written by count",
		Long: `
Em loads the compatibility table saved by "count -checkpoint" and runs the
EM loop on it again, with the convergence options given on the command line.
The filtering options are the ones recorded in the checkpoint.`,
		ArgsName: "checkpoint",
	}
	opts := nanocount.DefaultOpts
	registerEMFlags(&cmd.Flags, &opts)
	flags := emFlags{}
	cmd.Flags.StringVar(&flags.configPath, "config", "", "YAML options file. Flags set on the command line override its values")
	cmd.Flags.StringVar(&flags.output, "output", "nanocount.tsv", "Output counts TSV path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("em takes one checkpoint argument, but got %v", argv)
		}
		ctx := vcontext.Background()
		if err := resolveOpts(ctx, &cmd.Flags, flags.configPath, &opts, registerEMFlags); err != nil {
			return err
		}
		return em(ctx, argv[0], flags, opts)
	})
	return cmd
}

// withFilterOpts returns opts with the filtering options replaced by the
// ones of from.
func withFilterOpts(opts, from nanocount.Opts) nanocount.Opts {
	opts.MinReadLength = from.MinReadLength
	opts.MinQueryFractionAligned = from.MinQueryFractionAligned
	opts.EquivalentThreshold = from.EquivalentThreshold
	opts.ScoringValue = from.ScoringValue
	opts.PrimaryScore = from.PrimaryScore
	opts.DiscardSupplementary = from.DiscardSupplementary
	opts.MaxDist3Prime = from.MaxDist3Prime
	opts.MaxDist5Prime = from.MaxDist5Prime
	return opts
}

func em(ctx context.Context, path string, flags emFlags, opts nanocount.Opts) error {
	cp, err := nanocount.ReadCheckpoint(ctx, path)
	if err != nil {
		return err
	}
	opts = withFilterOpts(opts, cp.Opts)
	log.Printf("em: %d reads, %d transcripts from %s", cp.Table.NumReads(), len(cp.Table.Transcripts()), path)
	result, err := nanocount.EstimateAbundance(ctx, cp.Table, opts)
	if err != nil {
		return err
	}
	return nanocount.NewReport(result, cp.Table.NumReads(), cp.TxLengths, opts).WriteTSV(ctx, flags.output)
}
