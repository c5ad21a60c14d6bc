package nanocount

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// ScoringValue selects the alignment metric used to decide whether a
// secondary alignment is equivalent to the best one.
type ScoringValue int

const (
	// AlignmentScore compares the aligner-reported AS tags.
	AlignmentScore ScoringValue = iota
	// AlignmentLength compares the number of aligned query bases.
	AlignmentLength
)

var scoringValueNames = [...]string{
	AlignmentScore:  "alignment_score",
	AlignmentLength: "alignment_length",
}

// String implements fmt.Stringer and flag.Value.
func (v ScoringValue) String() string {
	if int(v) < 0 || int(v) >= len(scoringValueNames) {
		return fmt.Sprintf("ScoringValue(%d)", int(v))
	}
	return scoringValueNames[v]
}

// ParseScoringValue parses "alignment_score" or "alignment_length".
func ParseScoringValue(s string) (ScoringValue, error) {
	for i, name := range scoringValueNames {
		if name == s {
			return ScoringValue(i), nil
		}
	}
	return 0, fmt.Errorf("invalid scoring value %q, expect one of %v", s, scoringValueNames)
}

// Set implements flag.Value.
func (v *ScoringValue) Set(s string) (err error) {
	*v, err = ParseScoringValue(s)
	return
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ScoringValue) UnmarshalYAML(node *yaml.Node) error {
	return v.Set(node.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (v ScoringValue) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// PrimaryScore selects the policy used to pick the best alignment of a read.
type PrimaryScore int

const (
	// Primary trusts the aligner's primary alignment flag.
	Primary PrimaryScore = iota
	// AlignScore picks the alignment with the highest AS tag.
	AlignScore
	// AlignLen picks the alignment with the most aligned query bases.
	AlignLen
)

var primaryScoreNames = [...]string{
	Primary:    "primary",
	AlignScore: "align_score",
	AlignLen:   "align_len",
}

// String implements fmt.Stringer and flag.Value.
func (p PrimaryScore) String() string {
	if int(p) < 0 || int(p) >= len(primaryScoreNames) {
		return fmt.Sprintf("PrimaryScore(%d)", int(p))
	}
	return primaryScoreNames[p]
}

// ParsePrimaryScore parses "primary", "align_score" or "align_len".
func ParsePrimaryScore(s string) (PrimaryScore, error) {
	for i, name := range primaryScoreNames {
		if name == s {
			return PrimaryScore(i), nil
		}
	}
	return 0, fmt.Errorf("invalid primary score %q, expect one of %v", s, primaryScoreNames)
}

// Set implements flag.Value.
func (p *PrimaryScore) Set(s string) (err error) {
	*p, err = ParsePrimaryScore(s)
	return
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PrimaryScore) UnmarshalYAML(node *yaml.Node) error {
	return p.Set(node.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (p PrimaryScore) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Opts controls alignment filtering and abundance estimation.
type Opts struct {
	// MinReadLength is the minimum number of aligned query bases in the best
	// alignment of a read.
	MinReadLength int `yaml:"min_read_length"`
	// MinQueryFractionAligned is the minimum fraction of the read that the best
	// alignment must cover.
	MinQueryFractionAligned float64 `yaml:"min_query_fraction_aligned"`
	// EquivalentThreshold is the minimum ratio between a secondary alignment's
	// score (or length) and the best alignment's score (or length) for the
	// secondary alignment to be kept.
	EquivalentThreshold float64 `yaml:"equivalent_threshold"`
	// ScoringValue is the metric EquivalentThreshold applies to.
	ScoringValue ScoringValue `yaml:"scoring_value"`
	// PrimaryScore is the policy that picks the best alignment of a read.
	PrimaryScore PrimaryScore `yaml:"primary_score"`
	// DiscardSupplementary drops supplementary alignments instead of treating
	// them as secondary candidates.
	DiscardSupplementary bool `yaml:"discard_supplementary"`
	// MaxDist3Prime is the max distance between the alignment end and the 3'
	// end of the transcript. -1 disables the check.
	MaxDist3Prime int `yaml:"max_dist_3_prime"`
	// MaxDist5Prime is the max distance between the alignment start and the 5'
	// end of the transcript. -1 disables the check.
	MaxDist5Prime int `yaml:"max_dist_5_prime"`

	// ConvergenceTarget is the L1 distance between two successive abundance
	// vectors below which the EM loop stops.
	ConvergenceTarget float64 `yaml:"convergence_target"`
	// MaxEMRounds caps the number of EM rounds.
	MaxEMRounds int `yaml:"max_em_rounds"`
	// Parallelism is the max number of goroutines used within an EM round.
	// 0 means runtime.NumCPU().
	Parallelism int `yaml:"parallelism"`

	// ExtraTxInfo adds the transcript length column to the report.
	ExtraTxInfo bool `yaml:"extra_tx_info"`
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	MinReadLength:           50,
	MinQueryFractionAligned: 0.5,
	EquivalentThreshold:     0.9,
	ScoringValue:            AlignmentScore,
	PrimaryScore:            Primary,
	DiscardSupplementary:    false,
	MaxDist3Prime:           100,
	MaxDist5Prime:           -1,
	ConvergenceTarget:       0.005,
	MaxEMRounds:             100,
	Parallelism:             0,
	ExtraTxInfo:             false,
}

// Validate checks that the option values are within their domains.
func (o *Opts) Validate() error {
	switch {
	case o.MinReadLength < 0:
		return fmt.Errorf("min read length must be >= 0, got %d", o.MinReadLength)
	case o.MinQueryFractionAligned < 0 || o.MinQueryFractionAligned > 1:
		return fmt.Errorf("min query fraction aligned must be in [0,1], got %v", o.MinQueryFractionAligned)
	case o.EquivalentThreshold < 0 || o.EquivalentThreshold > 1:
		return fmt.Errorf("equivalent threshold must be in [0,1], got %v", o.EquivalentThreshold)
	case o.ScoringValue < AlignmentScore || o.ScoringValue > AlignmentLength:
		return fmt.Errorf("invalid scoring value %v", o.ScoringValue)
	case o.PrimaryScore < Primary || o.PrimaryScore > AlignLen:
		return fmt.Errorf("invalid primary score %v", o.PrimaryScore)
	case o.MaxDist3Prime < -1:
		return fmt.Errorf("max dist 3 prime must be >= -1, got %d", o.MaxDist3Prime)
	case o.MaxDist5Prime < -1:
		return fmt.Errorf("max dist 5 prime must be >= -1, got %d", o.MaxDist5Prime)
	case o.ConvergenceTarget < 0:
		return fmt.Errorf("convergence target must be >= 0, got %v", o.ConvergenceTarget)
	case o.MaxEMRounds < 1:
		return fmt.Errorf("max EM rounds must be >= 1, got %d", o.MaxEMRounds)
	case o.Parallelism < 0:
		return fmt.Errorf("parallelism must be >= 0, got %d", o.Parallelism)
	}
	return nil
}

// LoadOpts reads a YAML options file. Keys absent from the file keep their
// DefaultOpts values.
func LoadOpts(ctx context.Context, path string) (Opts, error) {
	opts := DefaultOpts
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return opts, errors.E(err, "read options", path)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.E(errors.Invalid, err, "parse options", path)
	}
	if err := opts.Validate(); err != nil {
		return opts, errors.E(errors.Invalid, err, path)
	}
	return opts, nil
}
