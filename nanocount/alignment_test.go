package nanocount

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/expect"
)

func TestNewAlignment(t *testing.T) {
	h := newTestHeader(t, 1000)
	tx1 := ref(t, h, "tx1")
	for _, tc := range []struct {
		cigar    string
		flags    sam.Flags
		score    int
		start    int
		end      int
		alignLen int
		queryLen int
		kind     AlignmentKind
	}{
		{"100M", 0, 90, 900, 1000, 100, 100, PrimaryAlignment},
		{"10S80M2I3D5=5X10H", sam.Secondary, 70, 900, 993, 92, 112, SecondaryAlignment},
		{"20H50M100N30M", sam.Supplementary | sam.Secondary, 60, 800, 980, 80, 100, SupplementaryAlignment},
		{"100M", 0, -1, 900, 1000, 100, 100, PrimaryAlignment},
	} {
		a := NewAlignment(newTestRecord(t, "r", tx1, tc.start, tc.flags, tc.cigar, tc.score))
		expect.EQ(t, a.QueryName, "r")
		expect.EQ(t, a.RefName, "tx1")
		expect.EQ(t, a.RefLen, 1000)
		expect.EQ(t, a.RefStart, tc.start, tc.cigar)
		expect.EQ(t, a.RefEnd, tc.end, tc.cigar)
		expect.EQ(t, a.AlignLen, tc.alignLen, tc.cigar)
		expect.EQ(t, a.QueryLen, tc.queryLen, tc.cigar)
		expect.EQ(t, a.Kind, tc.kind, tc.cigar)
		expect.False(t, a.Unmapped)
		expect.False(t, a.Reverse)
		if tc.score < 0 {
			expect.EQ(t, a.Score, 0)
		} else {
			expect.EQ(t, a.Score, tc.score)
		}
		expect.EQ(t, a.Dist3Prime(), 1000-tc.end)
		expect.EQ(t, a.Dist5Prime(), tc.start)
	}
}

func TestNewAlignmentFlags(t *testing.T) {
	h := newTestHeader(t, 1000)
	a := NewAlignment(newTestRecord(t, "r", nil, -1, sam.Unmapped, "", -1))
	expect.True(t, a.Unmapped)
	expect.EQ(t, a.RefName, "")

	a = NewAlignment(newTestRecord(t, "r", ref(t, h, "tx1"), 10, sam.Reverse, "100M", 10))
	expect.True(t, a.Reverse)
	expect.False(t, a.Unmapped)
}

func TestQueryFractionAligned(t *testing.T) {
	a := Alignment{AlignLen: 60, QueryLen: 80}
	expect.EQ(t, a.QueryFractionAligned(), 0.75)
	a = Alignment{}
	expect.EQ(t, a.QueryFractionAligned(), 0.0)
}

func TestBestIndex(t *testing.T) {
	r := &Read{Name: "r", Alignments: []Alignment{
		{RefName: "tx1", Kind: SecondaryAlignment, Score: 50, AlignLen: 300},
		{RefName: "tx2", Kind: PrimaryAlignment, Score: 80, AlignLen: 100},
		{RefName: "tx3", Kind: SecondaryAlignment, Score: 90, AlignLen: 100},
		{RefName: "tx4", Kind: SecondaryAlignment, Score: 90, AlignLen: 300},
	}}
	expect.EQ(t, r.BestIndex(Primary), 1)
	expect.EQ(t, r.BestIndex(AlignScore), 2)
	expect.EQ(t, r.BestIndex(AlignLen), 0)

	secs := r.Secondaries(1)
	expect.EQ(t, len(secs), 3)
	expect.EQ(t, secs[0].RefName, "tx1")
	expect.EQ(t, secs[2].RefName, "tx4")

	noPrimary := &Read{Name: "r", Alignments: r.Alignments[2:]}
	_, ok := noPrimary.Best(Primary)
	expect.False(t, ok)
	best, ok := noPrimary.Best(AlignLen)
	expect.True(t, ok)
	expect.EQ(t, best.RefName, "tx4")
}
