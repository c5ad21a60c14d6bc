package nanocount

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// AlignmentKind tells whether the aligner reported an alignment as the
// primary, a secondary or a supplementary one.
type AlignmentKind uint8

const (
	// PrimaryAlignment has neither the secondary nor the supplementary flag.
	PrimaryAlignment AlignmentKind = iota
	// SecondaryAlignment has the 0x100 flag.
	SecondaryAlignment
	// SupplementaryAlignment has the 0x800 flag.
	SupplementaryAlignment
)

func (k AlignmentKind) String() string {
	switch k {
	case PrimaryAlignment:
		return "primary"
	case SecondaryAlignment:
		return "secondary"
	case SupplementaryAlignment:
		return "supplementary"
	}
	return fmt.Sprintf("AlignmentKind(%d)", k)
}

// Alignment is one alignment of a read against a transcript. It is immutable
// once created.
type Alignment struct {
	// QueryName is the read name.
	QueryName string
	// RefName is the transcript name.
	RefName string
	// RefLen is the transcript length, as listed in the file header.
	RefLen int
	// RefStart and RefEnd delimit the aligned interval on the transcript,
	// 0-based, half open.
	RefStart, RefEnd int
	// Score is the value of the AS aux tag, or 0 if absent.
	Score int
	// AlignLen is the number of query bases covered by the alignment.
	AlignLen int
	// QueryLen is the length of the whole read, clipped bases included.
	QueryLen int
	Kind     AlignmentKind
	Reverse  bool
	Unmapped bool

	// Record is the record the alignment was parsed from. It is nil for
	// alignments not created by NewAlignment.
	Record *sam.Record
}

var tagAS = sam.NewTag("AS")

// NewAlignment extracts the fields used by the filter from r. RefLen is taken
// from r.Ref; the filter overwrites it with the header value.
func NewAlignment(r *sam.Record) Alignment {
	a := Alignment{
		QueryName: r.Name,
		RefStart:  r.Pos,
		Unmapped:  (r.Flags&sam.Unmapped) != 0 || r.Ref == nil,
		Reverse:   (r.Flags & sam.Reverse) != 0,
		Record:    r,
	}
	switch {
	case (r.Flags & sam.Supplementary) != 0:
		a.Kind = SupplementaryAlignment
	case (r.Flags & sam.Secondary) != 0:
		a.Kind = SecondaryAlignment
	default:
		a.Kind = PrimaryAlignment
	}
	if r.Ref != nil {
		a.RefName = r.Ref.Name()
		a.RefLen = r.Ref.Len()
	}
	refLen := 0
	for _, co := range r.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			a.AlignLen += n
			a.QueryLen += n
			refLen += n
		case sam.CigarInsertion:
			a.AlignLen += n
			a.QueryLen += n
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			a.QueryLen += n
		case sam.CigarDeletion, sam.CigarSkipped:
			refLen += n
		}
	}
	a.RefEnd = a.RefStart + refLen
	if aux := r.AuxFields.Get(tagAS); aux != nil {
		a.Score = auxInt(aux.Value())
	}
	return a
}

// auxInt converts an integer aux value to int. Non-integer values yield 0.
func auxInt(v interface{}) int {
	switch x := v.(type) {
	case int8:
		return int(x)
	case uint8:
		return int(x)
	case int16:
		return int(x)
	case uint16:
		return int(x)
	case int32:
		return int(x)
	case uint32:
		return int(x)
	case int:
		return x
	case float32:
		return int(x)
	}
	return 0
}

// QueryFractionAligned is the fraction of the read covered by the alignment.
func (a *Alignment) QueryFractionAligned() float64 {
	if a.QueryLen == 0 {
		return 0
	}
	return float64(a.AlignLen) / float64(a.QueryLen)
}

// Dist3Prime is the number of transcript bases past the alignment end.
func (a *Alignment) Dist3Prime() int { return a.RefLen - a.RefEnd }

// Dist5Prime is the number of transcript bases before the alignment start.
func (a *Alignment) Dist5Prime() int { return a.RefStart }

// metric returns the value compared against the best alignment's.
func (a *Alignment) metric(v ScoringValue) int {
	if v == AlignmentLength {
		return a.AlignLen
	}
	return a.Score
}

func (a Alignment) String() string {
	strand := '+'
	if a.Reverse {
		strand = '-'
	}
	return fmt.Sprintf("%s->%s:%d-%d(%c) %s AS=%d len=%d/%d",
		a.QueryName, a.RefName, a.RefStart, a.RefEnd, strand, a.Kind, a.Score, a.AlignLen, a.QueryLen)
}
