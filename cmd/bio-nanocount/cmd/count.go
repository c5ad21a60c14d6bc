package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/nanocount/encoding/bamprovider"
	"github.com/grailbio/nanocount/nanocount"
	"golang.org/x/sync/errgroup"
	"v.io/x/lib/cmdline"
)

type countFlags struct {
	// configPath is a YAML options file.
	configPath string
	// format is "bam", "sam" or empty to guess from the path.
	format string
	// output is the counts TSV path.
	output string
	// filteredBAM, if nonempty, receives the alignments kept by the filter.
	filteredBAM string
	// checkpoint, if nonempty, receives the initial compatibility table.
	checkpoint string
}

func newCmdCount() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "count",
		Short: "Filter alignments and estimate transcript abundances",
		Long: `
Count reads a BAM or SAM file of reads aligned to a transcriptome, in aligner
output order (all the alignments of a read must be adjacent, as minimap2
writes them), and writes the estimated abundance of every transcript.

The counts file has the columns transcript_name, raw (relative abundance),
est_count (raw times the number of reads used) and tpm (raw times 1e6), plus
transcript_length with -extra-tx-info. A path ending in .gz is gzip
compressed.`,
		ArgsName: "path",
	}
	opts := nanocount.DefaultOpts
	registerAllFlags(&cmd.Flags, &opts)
	flags := countFlags{}
	cmd.Flags.StringVar(&flags.configPath, "config", "", "YAML options file. Flags set on the command line override its values")
	cmd.Flags.StringVar(&flags.format, "format", "", `Input format, "bam" or "sam". By default it is guessed from the path`)
	cmd.Flags.StringVar(&flags.output, "output", "nanocount.tsv", "Output counts TSV path")
	cmd.Flags.StringVar(&flags.filteredBAM, "filtered-bam", "", "If set, write the alignments kept by the filter to this BAM path")
	cmd.Flags.StringVar(&flags.checkpoint, "checkpoint", "", "If set, write the compatibility table to this recordio path, for use by the em command")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("count takes one pathname argument, but got %v", argv)
		}
		ctx := vcontext.Background()
		if err := resolveOpts(ctx, &cmd.Flags, flags.configPath, &opts, registerAllFlags); err != nil {
			return err
		}
		return count(ctx, argv[0], flags, opts)
	})
	return cmd
}

func newProvider(path, format string) (bamprovider.Provider, error) {
	if format == "" {
		return bamprovider.NewProvider(path), nil
	}
	switch bamprovider.ParseFileType(format) {
	case bamprovider.BAM:
		return &bamprovider.BAMProvider{Path: path}, nil
	case bamprovider.SAM:
		return &bamprovider.SAMProvider{Path: path}, nil
	}
	return nil, fmt.Errorf("unknown input format \"%s\"", format)
}

func count(ctx context.Context, path string, flags countFlags, opts nanocount.Opts) (err error) {
	p, err := newProvider(path, flags.format)
	if err != nil {
		return err
	}
	defer func() {
		if e := p.Close(); e != nil && err == nil {
			err = e
		}
	}()
	log.Printf("count: reading %s", path)
	result, err := nanocount.Count(ctx, p, opts)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return result.Report(opts).WriteTSV(gctx, flags.output)
	})
	if flags.filteredBAM != "" {
		g.Go(func() error {
			return nanocount.WriteFilteredBAM(gctx, flags.filteredBAM, result.Header, result.Reads)
		})
	}
	if flags.checkpoint != "" {
		g.Go(func() error {
			return nanocount.WriteCheckpoint(gctx, flags.checkpoint, result.Table, result.TxLengths(), opts)
		})
	}
	return g.Wait()
}
