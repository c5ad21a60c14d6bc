package nanocount

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := vcontext.Background()

	table := newTestTable(
		newRead("r1", "tx1", "tx2"),
		newRead("r2", "tx3"),
		newRead("r3", "tx2", "tx3", "tx1"),
	)
	opts := DefaultOpts
	opts.MinReadLength = 200
	opts.PrimaryScore = AlignScore
	path := filepath.Join(tmpDir, "table.rio")
	require.NoError(t, WriteCheckpoint(ctx, path, table, map[string]int{"tx1": 1000, "tx3": 3000}, opts))

	cp, err := ReadCheckpoint(ctx, path)
	require.NoError(t, err)
	expect.EQ(t, cp.Opts, opts)
	expect.EQ(t, cp.TxLengths, map[string]int{"tx1": 1000, "tx3": 3000})
	expect.EQ(t, cp.Table.Transcripts(), table.Transcripts())
	if diff := cmp.Diff(table.Map(), cp.Table.Map()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < table.NumReads(); i++ {
		expect.EQ(t, cp.Table.ReadName(i), table.ReadName(i))
	}

	// The EM gives the same answer on the reloaded table.
	want, err := EstimateAbundance(ctx, table, opts)
	require.NoError(t, err)
	got, err := EstimateAbundance(ctx, cp.Table, cp.Opts)
	require.NoError(t, err)
	expect.EQ(t, got.Abundance, want.Abundance)
	expect.EQ(t, got.Rounds, want.Rounds)
}

func TestCheckpointBadFile(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := vcontext.Background()

	_, err := ReadCheckpoint(ctx, filepath.Join(tmpDir, "missing.rio"))
	assert.Error(t, err)

	path := filepath.Join(tmpDir, "garbage.rio")
	require.NoError(t, ioutil.WriteFile(path, []byte("not a recordio file"), 0600))
	_, err = ReadCheckpoint(ctx, path)
	assert.Error(t, err)
}
