package bamprovider

import (
	"github.com/grailbio/hts/sam"
)

// RefLengths returns the length of every reference listed in the header,
// keyed by reference name.
func RefLengths(h *sam.Header) map[string]int {
	lens := make(map[string]int, len(h.Refs()))
	for _, ref := range h.Refs() {
		lens[ref.Name()] = ref.Len()
	}
	return lens
}

// ReadAll drains the iterator and closes it. The callback is invoked on every
// record in file order; a non-nil error from it stops the scan and is
// returned.
func ReadAll(iter Iterator, fn func(r *sam.Record) error) error {
	for iter.Scan() {
		if err := fn(iter.Record()); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}
