package nanocount

import (
	"fmt"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

// newTestHeader creates a header with transcripts tx1, tx2, ... of the given
// lengths.
func newTestHeader(t *testing.T, lens ...int) *sam.Header {
	refs := make([]*sam.Reference, len(lens))
	for i, n := range lens {
		ref, err := sam.NewReference(fmt.Sprintf("tx%d", i+1), "", "", n, nil, nil)
		require.NoError(t, err)
		refs[i] = ref
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	return header
}

func ref(t *testing.T, h *sam.Header, name string) *sam.Reference {
	for _, r := range h.Refs() {
		if r.Name() == name {
			return r
		}
	}
	t.Fatalf("reference %s not found", name)
	return nil
}

// newTestRecord creates a record whose SEQ is as long as the query length of
// the cigar. A negative score means no AS tag.
func newTestRecord(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags, cigar string, score int) *sam.Record {
	var co sam.Cigar
	if cigar != "" {
		var err error
		co, err = sam.ParseCigar([]byte(cigar))
		require.NoError(t, err)
	}
	var aux []sam.Aux
	if score >= 0 {
		a, err := sam.NewAux(tagAS, score)
		require.NoError(t, err)
		aux = append(aux, a)
	}
	_, qlen := co.Lengths()
	if qlen == 0 {
		qlen = 1
	}
	seq := []byte(strings.Repeat("A", qlen))
	qual := make([]byte, len(seq))
	r, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, co, seq, qual, aux)
	require.NoError(t, err)
	r.Flags = flags
	return r
}

// newRead creates a Read with one full-length alignment of score 100 to each
// of the given transcripts.
func newRead(name string, tx ...string) *Read {
	r := &Read{Name: name}
	for _, t := range tx {
		r.Alignments = append(r.Alignments, Alignment{QueryName: name, RefName: t, Score: 100, AlignLen: 100, QueryLen: 100})
	}
	return r
}

// newTestTable builds the initial compatibility table of the given reads.
func newTestTable(reads ...*Read) *CompatibilityTable {
	fr := newFilteredReads()
	for _, r := range reads {
		fr.add(r)
	}
	return NewCompatibilityTable(fr)
}
