package nanocount

// A checkpoint stores the initial compatibility table in a recordio file, so
// that the EM stage can be rerun with other convergence settings without
// reading and filtering the alignments again.
//
// Each record is a gob-encoded checkpointRead. The trailer holds the
// checkpointTrailer: the options used for filtering and the transcript
// table.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	// <checkpointVersionHeader, checkpointVersion> is stored in the recordio
	// header.
	checkpointVersionHeader = "nanocountversion"
	checkpointVersion       = "NANOCOUNT_V1"
)

type checkpointRead struct {
	Name string
	Tx   []int32
	Prob []float64
}

type checkpointTrailer struct {
	Opts        Opts
	Transcripts []string
	// TxLengths is indexed like Transcripts. -1 if unknown.
	TxLengths []int
}

// Checkpoint is the content of a checkpoint file.
type Checkpoint struct {
	// Opts are the options the table was built with.
	Opts  Opts
	Table *CompatibilityTable
	// TxLengths maps the table's transcripts to their lengths.
	TxLengths map[string]int
}

// WriteCheckpoint writes table to path. txLens maps transcript names to
// their lengths, it may be nil.
func WriteCheckpoint(ctx context.Context, path string, table *CompatibilityTable, txLens map[string]int, opts Opts) (err error) {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create checkpoint", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(checkpointVersionHeader, checkpointVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	for i := range table.reads {
		r := &table.reads[i]
		b := bytes.NewBuffer(nil)
		if err := gob.NewEncoder(b).Encode(checkpointRead{Name: r.name, Tx: r.tx, Prob: r.prob}); err != nil {
			return errors.E(err, "encode read", r.name)
		}
		w.Append(b.Bytes())
	}
	trailer := checkpointTrailer{
		Opts:        opts,
		Transcripts: table.transcripts,
		TxLengths:   make([]int, len(table.transcripts)),
	}
	for i, name := range table.transcripts {
		trailer.TxLengths[i] = -1
		if n, ok := txLens[name]; ok {
			trailer.TxLengths[i] = n
		}
	}
	b := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(b).Encode(trailer); err != nil {
		return errors.E(err, "encode checkpoint trailer", path)
	}
	w.SetTrailer(b.Bytes())
	if err := w.Finish(); err != nil {
		return errors.E(err, "write checkpoint", path)
	}
	return nil
}

// ReadCheckpoint reads a file created by WriteCheckpoint.
func ReadCheckpoint(ctx context.Context, path string) (cp Checkpoint, err error) {
	recordiozstd.Init()
	in, err := file.Open(ctx, path)
	if err != nil {
		return cp, errors.E(err, "open checkpoint", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	sc := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range sc.Header() {
		if kv.Key == checkpointVersionHeader {
			if v, _ := kv.Value.(string); v != checkpointVersion {
				return cp, errors.E(errors.Invalid, fmt.Sprintf("checkpoint version mismatch, got %v, expect %v", kv.Value, checkpointVersion), path)
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		if err := sc.Err(); err != nil {
			return cp, errors.E(err, "read checkpoint", path)
		}
		return cp, errors.E(errors.Invalid, checkpointVersionHeader+" not found", path)
	}
	var trailer checkpointTrailer
	if err := gob.NewDecoder(bytes.NewReader(sc.Trailer())).Decode(&trailer); err != nil {
		return cp, errors.E(errors.Invalid, err, "decode checkpoint trailer", path)
	}
	table := newCompatibilityTable()
	for _, name := range trailer.Transcripts {
		table.intern(name)
	}
	for sc.Scan() {
		var r checkpointRead
		if err := gob.NewDecoder(bytes.NewReader(sc.Get().([]byte))).Decode(&r); err != nil {
			return cp, errors.E(errors.Invalid, err, "decode read", path)
		}
		if len(r.Tx) == 0 || len(r.Tx) != len(r.Prob) {
			return cp, errors.E(errors.Invalid, fmt.Sprintf("malformed read %s", r.Name), path)
		}
		for _, tx := range r.Tx {
			if tx < 0 || int(tx) >= len(trailer.Transcripts) {
				return cp, errors.E(errors.Invalid, fmt.Sprintf("read %s: transcript index %d out of range", r.Name, tx), path)
			}
		}
		table.reads = append(table.reads, compatRead{name: r.Name, tx: r.Tx, prob: r.Prob})
	}
	if err := sc.Err(); err != nil {
		return cp, errors.E(err, "read checkpoint", path)
	}
	cp.Opts = trailer.Opts
	cp.Table = table
	cp.TxLengths = make(map[string]int, len(trailer.Transcripts))
	for i, name := range trailer.Transcripts {
		if i < len(trailer.TxLengths) && trailer.TxLengths[i] >= 0 {
			cp.TxLengths[name] = trailer.TxLengths[i]
		}
	}
	return cp, nil
}
