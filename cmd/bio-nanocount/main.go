package main

/*
bio-nanocount estimates transcript abundances from long reads aligned to a
transcriptome, typically Nanopore direct RNA or cDNA reads aligned with
minimap2 in multi-mapping mode (-N 10 or more).

  bio-nanocount count -output counts.tsv reads.bam
  bio-nanocount count -checkpoint table.rio -output counts.tsv reads.bam
  bio-nanocount em -convergence-target 0.001 -output counts.tsv table.rio
*/

import "github.com/grailbio/nanocount/cmd/bio-nanocount/cmd"

func main() {
	cmd.Run()
}
