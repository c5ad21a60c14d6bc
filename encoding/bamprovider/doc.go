// Package bamprovider provides utilities for scanning a BAM or SAM file
// sequentially.
//
// The Provider is an interface for reading the header and the records of an
// alignment file. Records are produced in file order, so alignments that an
// aligner emitted together for one read stay adjacent.
package bamprovider
