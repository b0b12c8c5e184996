// Package index holds the plain data types shared by the builder, the
// reader and the catalog: term-frequency maps, byte ranges into the flat
// index files, and the tables that tie them together.
package index

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// TermFreqs maps a term to its number of occurrences. The same type is used
// for forward records (term -> count) and inverted records (doc id -> count).
type TermFreqs map[string]int

// Clone returns an independent copy. A nil map clones to an empty one.
func (m TermFreqs) Clone() TermFreqs {
	out := make(TermFreqs, len(m))
	maps.Copy(out, m)
	return out
}

// Keys returns the keys in ascending order.
func (m TermFreqs) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Total is the sum of all counts.
func (m TermFreqs) Total() int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// OffsetRecord is the byte range of one logical record inside a flat file.
// The record terminator that follows it on disk is not part of the range.
type OffsetRecord struct {
	Offset int64 `json:"o"`
	Length int64 `json:"l"`
}

// End is the offset one past the last byte of the record.
func (r OffsetRecord) End() int64 {
	return r.Offset + r.Length
}

// Validate checks that the record, plus trailer bytes, fits in a file of the
// given size.
func (r OffsetRecord) Validate(size int64, trailer int64) error {
	if r.Offset < 0 || r.Length < 0 {
		return fmt.Errorf("negative range [%d,+%d)", r.Offset, r.Length)
	}
	if r.End()+trailer > size {
		return fmt.Errorf("range [%d,+%d) exceeds file size %d", r.Offset, r.Length, size)
	}
	return nil
}

// Locator points at a document's raw text inside the original corpus file.
type Locator struct {
	Path   string `json:"path"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
}

// Tables is everything needed to reopen a built index without rebuilding it.
// It is plain data so any catalog store can persist it as a unit.
type Tables struct {
	Name        string                  `json:"name"`
	BuiltAt     time.Time               `json:"built_at"`
	DocOffsets  map[string]OffsetRecord `json:"doc_offsets"`
	StemOffsets map[string]OffsetRecord `json:"stem_offsets"`
	DocLocators map[string]Locator      `json:"doc_locators"`
	DocLengths  map[string]int          `json:"doc_lengths"`
	DocOrder    []string                `json:"doc_order"`
	Vocabulary  []string                `json:"vocabulary"`
}

// NewTables returns empty tables for the named index.
func NewTables(name string) *Tables {
	return &Tables{
		Name:        name,
		DocOffsets:  make(map[string]OffsetRecord),
		StemOffsets: make(map[string]OffsetRecord),
		DocLocators: make(map[string]Locator),
		DocLengths:  make(map[string]int),
		DocOrder:    make([]string, 0),
		Vocabulary:  make([]string, 0),
	}
}

// Check verifies the structural invariants between the tables: one offset,
// locator and length per document, and a vocabulary matching the inverted
// offsets exactly.
func (t *Tables) Check() error {
	if len(t.DocOrder) != len(t.DocOffsets) {
		return fmt.Errorf("doc order has %d entries, doc offsets %d", len(t.DocOrder), len(t.DocOffsets))
	}
	for _, id := range t.DocOrder {
		if _, ok := t.DocOffsets[id]; !ok {
			return fmt.Errorf("document %q has no forward offset", id)
		}
		if _, ok := t.DocLocators[id]; !ok {
			return fmt.Errorf("document %q has no locator", id)
		}
	}
	if len(t.Vocabulary) != len(t.StemOffsets) {
		return fmt.Errorf("vocabulary has %d terms, stem offsets %d", len(t.Vocabulary), len(t.StemOffsets))
	}
	for _, term := range t.Vocabulary {
		if _, ok := t.StemOffsets[term]; !ok {
			return fmt.Errorf("term %q has no inverted offset", term)
		}
	}
	return nil
}
