package nanocount

// Read groups the alignments that share a query name, in input order.
type Read struct {
	Name       string
	Alignments []Alignment
}

// NumAlignments returns the number of alignments of the read.
func (r *Read) NumAlignments() int { return len(r.Alignments) }

// BestIndex returns the index of the best alignment of the read under the
// given policy, or -1 if none can be determined. Ties go to the alignment
// seen first.
func (r *Read) BestIndex(policy PrimaryScore) int {
	best := -1
	switch policy {
	case Primary:
		for i := range r.Alignments {
			if r.Alignments[i].Kind == PrimaryAlignment {
				return i
			}
		}
	case AlignScore:
		for i := range r.Alignments {
			if best < 0 || r.Alignments[i].Score > r.Alignments[best].Score {
				best = i
			}
		}
	case AlignLen:
		for i := range r.Alignments {
			if best < 0 || r.Alignments[i].AlignLen > r.Alignments[best].AlignLen {
				best = i
			}
		}
	}
	return best
}

// Best returns the best alignment of the read under the given policy. The
// bool is false if the read has no best alignment.
func (r *Read) Best(policy PrimaryScore) (Alignment, bool) {
	i := r.BestIndex(policy)
	if i < 0 {
		return Alignment{}, false
	}
	return r.Alignments[i], true
}

// Secondaries returns every alignment of the read other than the one at
// index best, in input order.
func (r *Read) Secondaries(best int) []Alignment {
	secs := make([]Alignment, 0, len(r.Alignments))
	for i := range r.Alignments {
		if i != best {
			secs = append(secs, r.Alignments[i])
		}
	}
	return secs
}

// FilteredReads holds the reads that survived filtering, in the order their
// first alignment appeared in the input. The first alignment of every read is
// its best alignment; the rest are the secondary alignments that were deemed
// equivalent.
type FilteredReads struct {
	reads []*Read
}

func newFilteredReads() *FilteredReads {
	return &FilteredReads{}
}

func (f *FilteredReads) add(r *Read) {
	f.reads = append(f.reads, r)
}

// Len returns the number of reads.
func (f *FilteredReads) Len() int { return len(f.reads) }

// Reads returns the reads in input order. The caller must not modify them.
func (f *FilteredReads) Reads() []*Read { return f.reads }

// NumAlignments returns the total number of alignments across all reads.
func (f *FilteredReads) NumAlignments() int {
	n := 0
	for _, r := range f.reads {
		n += len(r.Alignments)
	}
	return n
}
