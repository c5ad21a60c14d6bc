// Package nanocount estimates transcript abundances from long reads aligned
// to a transcriptome.
//
// The computation has three stages:
//
//   - Filter reads alignment records in order, discards the ones that cannot
//     be used, and groups the rest by read. For each read it then selects
//     the best alignment and keeps the secondary alignments whose score is
//     close enough to it.
//
//   - NewCompatibilityTable gives each read a uniform probability over the
//     transcripts it aligns to.
//
//   - EstimateAbundance runs expectation-maximization: it alternately sums
//     the read probabilities into transcript abundances, and redistributes
//     every read over its transcripts in proportion to their abundances,
//     until the abundances stop changing.
//
// Count chains the three stages, and Report formats the result.
package nanocount
