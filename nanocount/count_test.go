package nanocount

import (
	"errors"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/nanocount/encoding/bamprovider"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	ctx := vcontext.Background()
	h := newTestHeader(t, 1000, 1500, 2000)
	tx1, tx2, tx3 := ref(t, h, "tx1"), ref(t, h, "tx2"), ref(t, h, "tx3")
	p := bamprovider.NewFakeProvider(h, []*sam.Record{
		newTestRecord(t, "r1", tx1, 900, 0, "100M", 100),
		newTestRecord(t, "r1", tx2, 1400, sam.Secondary, "100M", 100),
		newTestRecord(t, "r2", tx1, 900, 0, "100M", 100),
		newTestRecord(t, "r3", tx2, 1400, 0, "100M", 100),
		newTestRecord(t, "r4", tx3, 100, 0, "100M", 100),
		newTestRecord(t, "r5", nil, -1, sam.Unmapped, "", -1),
	})
	opts := DefaultOpts
	opts.ExtraTxInfo = true
	result, err := Count(ctx, p, opts)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	expect.EQ(t, result.Header, h)
	expect.EQ(t, result.Reads.Len(), 3)
	expect.EQ(t, result.FilterStats.Dist3Prime, 1)
	expect.EQ(t, result.FilterStats.Unmapped, 1)
	expect.EQ(t, result.Table.NumReads(), 3)
	expect.True(t, result.EM.Converged)
	// r1 is split evenly between two equally supported transcripts.
	assert.InDelta(t, 0.5, result.EM.Abundance["tx1"], tolerance)
	assert.InDelta(t, 0.5, result.EM.Abundance["tx2"], tolerance)
	_, ok := result.EM.Abundance["tx3"]
	expect.False(t, ok)

	rep := result.Report(opts)
	require.Equal(t, 2, len(rep.Rows))
	expect.EQ(t, rep.Rows[0].TranscriptName, "tx1")
	expect.EQ(t, rep.Rows[0].TranscriptLength, 1000)
	assert.InDelta(t, 1.5, rep.Rows[0].EstCount, tolerance)
	expect.EQ(t, rep.Rows[1].TranscriptLength, 1500)
}

func TestCountNoReads(t *testing.T) {
	ctx := vcontext.Background()
	h := newTestHeader(t, 1000)
	p := bamprovider.NewFakeProvider(h, []*sam.Record{
		newTestRecord(t, "r1", ref(t, h, "tx1"), 900, sam.Reverse, "100M", 100),
	})
	_, err := Count(ctx, p, DefaultOpts)
	expect.True(t, errors.Is(err, ErrNoValidReads))
}

func TestCountInvalidOpts(t *testing.T) {
	opts := DefaultOpts
	opts.MaxEMRounds = 0
	_, err := Count(vcontext.Background(), bamprovider.NewFakeProvider(newTestHeader(t, 1000), nil), opts)
	assert.Error(t, err)
}
