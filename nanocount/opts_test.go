package nanocount

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseEnums(t *testing.T) {
	for _, v := range []ScoringValue{AlignmentScore, AlignmentLength} {
		got, err := ParseScoringValue(v.String())
		require.NoError(t, err)
		expect.EQ(t, got, v)
	}
	for _, p := range []PrimaryScore{Primary, AlignScore, AlignLen} {
		got, err := ParsePrimaryScore(p.String())
		require.NoError(t, err)
		expect.EQ(t, got, p)
	}
	_, err := ParseScoringValue("mapq")
	assert.Error(t, err)
	_, err = ParsePrimaryScore("best")
	assert.Error(t, err)
	expect.EQ(t, PrimaryScore(7).String(), "PrimaryScore(7)")
}

func TestValidate(t *testing.T) {
	opts := DefaultOpts
	require.NoError(t, opts.Validate())
	for _, mod := range []func(o *Opts){
		func(o *Opts) { o.MinReadLength = -1 },
		func(o *Opts) { o.MinQueryFractionAligned = 1.5 },
		func(o *Opts) { o.EquivalentThreshold = -0.1 },
		func(o *Opts) { o.ScoringValue = 3 },
		func(o *Opts) { o.PrimaryScore = -1 },
		func(o *Opts) { o.MaxDist3Prime = -2 },
		func(o *Opts) { o.MaxDist5Prime = -2 },
		func(o *Opts) { o.ConvergenceTarget = -1 },
		func(o *Opts) { o.MaxEMRounds = 0 },
		func(o *Opts) { o.Parallelism = -1 },
	} {
		opts := DefaultOpts
		mod(&opts)
		assert.Error(t, opts.Validate(), "%+v", opts)
	}
}

func TestLoadOpts(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := vcontext.Background()

	path := filepath.Join(tmpDir, "opts.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
min_read_length: 100
equivalent_threshold: 0.8
scoring_value: alignment_length
primary_score: align_score
max_dist_3_prime: -1
max_em_rounds: 20
`), 0600))
	opts, err := LoadOpts(ctx, path)
	require.NoError(t, err)
	want := DefaultOpts
	want.MinReadLength = 100
	want.EquivalentThreshold = 0.8
	want.ScoringValue = AlignmentLength
	want.PrimaryScore = AlignScore
	want.MaxDist3Prime = -1
	want.MaxEMRounds = 20
	expect.EQ(t, opts, want)

	require.NoError(t, ioutil.WriteFile(path, []byte("primary_score: best\n"), 0600))
	_, err = LoadOpts(ctx, path)
	assert.Error(t, err)

	require.NoError(t, ioutil.WriteFile(path, []byte("max_em_rounds: 0\n"), 0600))
	_, err = LoadOpts(ctx, path)
	assert.Error(t, err)

	_, err = LoadOpts(ctx, filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOptsYAMLRoundTrip(t *testing.T) {
	opts := DefaultOpts
	opts.PrimaryScore = AlignLen
	data, err := yaml.Marshal(opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), "primary_score: align_len")
	assert.Contains(t, string(data), "scoring_value: alignment_score")
	var got Opts
	require.NoError(t, yaml.Unmarshal(data, &got))
	expect.EQ(t, got, opts)
}
