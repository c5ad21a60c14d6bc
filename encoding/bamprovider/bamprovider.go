package bamprovider

import (
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// recordReader is the subset of bam.Reader and sam.Reader used by the
// iterator.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// openFunc opens the file at path and returns a reader positioned at the
// first record. The returned closer releases everything but the file itself.
type openFunc func(in file.File) (recordReader, func() error, error)

// fileProvider holds the state shared by BAMProvider and SAMProvider.
type fileProvider struct {
	err errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type recordIterator struct {
	provider *fileProvider
	in       file.File
	reader   recordReader
	closer   func() error

	active bool
	err    error
	next   *sam.Record
}

func (p *fileProvider) getHeader(path string, open openFunc) (*sam.Header, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header != nil {
		return p.header, nil
	}
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		p.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx)
	reader, closer, err := open(in)
	if err != nil {
		p.err.Set(err)
		return nil, err
	}
	p.header = reader.Header()
	if err := closer(); err != nil {
		p.err.Set(err)
		return nil, err
	}
	return p.header, nil
}

func (p *fileProvider) close(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nActive > 0 {
		vlog.Fatalf("%s: %d iterators still active", path, p.nActive)
	}
	return p.err.Err()
}

func (p *fileProvider) newIterator(path string, open openFunc) Iterator {
	p.mu.Lock()
	p.nActive++
	p.mu.Unlock()

	iter := &recordIterator{provider: p, active: true}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, path); iter.err != nil {
		return iter
	}
	iter.reader, iter.closer, iter.err = open(iter.in)
	return iter
}

// Scan implements the Iterator interface.
func (i *recordIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	i.next, i.err = i.reader.Read()
	return i.err == nil
}

// Record implements the Iterator interface.
func (i *recordIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *recordIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *recordIterator) Close() error {
	if !i.active {
		vlog.Fatal("Closing inactive iterator")
	}
	i.active = false
	if i.closer != nil {
		if err := i.closer(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.closer = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	p := i.provider
	p.err.Set(err)
	p.mu.Lock()
	p.nActive--
	if p.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", p)
	}
	p.mu.Unlock()
	return err
}

// BAMProvider implements Provider for BAM files. The path may be an S3 URL
// if an s3 implementation is registered with grailbio/base/file. No index is
// needed since the file is always read sequentially.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	fileProvider
}

func openBAM(in file.File) (recordReader, func() error, error) {
	r, err := bam.NewReader(in.Reader(vcontext.Background()), 1)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	return b.getHeader(b.Path, openBAM)
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	return b.newIterator(b.Path, openBAM)
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	return b.close(b.Path)
}
