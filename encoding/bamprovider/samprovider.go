package bamprovider

import (
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// SAMProvider implements Provider for text SAM files. Files whose name ends
// in ".gz" are decompressed on the fly.
type SAMProvider struct {
	// Path of the *.sam or *.sam.gz file. Must be nonempty.
	Path string
	fileProvider
}

func (s *SAMProvider) open(in file.File) (recordReader, func() error, error) {
	var (
		r      io.Reader = in.Reader(vcontext.Background())
		closer           = func() error { return nil }
	)
	if fileio.DetermineType(s.Path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s: gzip header", s.Path)
		}
		r, closer = gz, gz.Close
	}
	sr, err := sam.NewReader(r)
	if err != nil {
		closer()
		return nil, nil, errors.Wrapf(err, "%s: read SAM header", s.Path)
	}
	return sr, closer, nil
}

// GetHeader implements the Provider interface.
func (s *SAMProvider) GetHeader() (*sam.Header, error) {
	return s.getHeader(s.Path, s.open)
}

// NewIterator implements the Provider interface.
func (s *SAMProvider) NewIterator() Iterator {
	return s.newIterator(s.Path, s.open)
}

// Close implements the Provider interface.
func (s *SAMProvider) Close() error {
	return s.close(s.Path)
}
