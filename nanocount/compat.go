package nanocount

// CompatibilityTable maps every read to the transcripts it may originate
// from, with the probability that the read comes from each of them. For any
// read, the probabilities sum to 1.
//
// Transcript names are interned: a read refers to its transcripts by index
// into Transcripts(). Reads keep the order in which they were added, so every
// reduction over the table runs in a fixed order.
//
// A table is never modified once built; an EM round produces a new one.
type CompatibilityTable struct {
	transcripts []string
	txIndex     map[string]int32
	reads       []compatRead
}

type compatRead struct {
	name string
	// tx and prob are parallel slices. tx is shared between the tables of
	// successive EM rounds.
	tx   []int32
	prob []float64
}

func newCompatibilityTable() *CompatibilityTable {
	return &CompatibilityTable{txIndex: map[string]int32{}}
}

func (t *CompatibilityTable) intern(name string) int32 {
	if i, ok := t.txIndex[name]; ok {
		return i
	}
	i := int32(len(t.transcripts))
	t.transcripts = append(t.transcripts, name)
	t.txIndex[name] = i
	return i
}

// NewCompatibilityTable builds the initial table: a read with N alignments
// gets probability 1/N for each of the N transcripts.
func NewCompatibilityTable(reads *FilteredReads) *CompatibilityTable {
	t := newCompatibilityTable()
	t.reads = make([]compatRead, 0, reads.Len())
	for _, r := range reads.Reads() {
		n := len(r.Alignments)
		cr := compatRead{
			name: r.Name,
			tx:   make([]int32, n),
			prob: make([]float64, n),
		}
		for i := range r.Alignments {
			cr.tx[i] = t.intern(r.Alignments[i].RefName)
			cr.prob[i] = 1 / float64(n)
		}
		t.reads = append(t.reads, cr)
	}
	return t
}

// NumReads returns the number of reads in the table.
func (t *CompatibilityTable) NumReads() int { return len(t.reads) }

// Transcripts returns the interned transcript names. The caller must not
// modify the slice.
func (t *CompatibilityTable) Transcripts() []string { return t.transcripts }

// ReadName returns the name of the i'th read.
func (t *CompatibilityTable) ReadName(i int) string { return t.reads[i].name }

// Read returns the transcript-to-probability mapping of the i'th read.
func (t *CompatibilityTable) Read(i int) map[string]float64 {
	r := &t.reads[i]
	m := make(map[string]float64, len(r.tx))
	for j, tx := range r.tx {
		m[t.transcripts[tx]] = r.prob[j]
	}
	return m
}

// Map returns the whole table as read name -> transcript name -> probability.
func (t *CompatibilityTable) Map() map[string]map[string]float64 {
	m := make(map[string]map[string]float64, len(t.reads))
	for i := range t.reads {
		m[t.reads[i].name] = t.Read(i)
	}
	return m
}
