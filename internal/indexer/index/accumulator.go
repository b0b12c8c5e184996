package index

import (
	"sort"
)

// Posting is one (document, count) entry of a term's inverted list.
type Posting struct {
	DocID     string
	Frequency int
}

type PostingList []Posting

// TermEntry is a term together with its complete posting list.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// Freqs converts the posting list to the doc id -> count form stored in
// inverted records.
func (pl PostingList) Freqs() TermFreqs {
	out := make(TermFreqs, len(pl))
	for _, p := range pl {
		out[p.DocID] = p.Frequency
	}
	return out
}

// Accumulator collects per-term posting lists during the inverted pass. It
// is fed one forward record at a time, in document order, and is not safe for
// concurrent use.
type Accumulator struct {
	index    map[string]PostingList
	docCount int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		index: make(map[string]PostingList),
	}
}

// Seed registers terms so that they appear in the snapshot even if no
// document ends up contributing a positive count.
func (a *Accumulator) Seed(terms []string) {
	for _, term := range terms {
		if _, exists := a.index[term]; !exists {
			a.index[term] = make(PostingList, 0, 1)
		}
	}
}

// AddDocument appends (docID, count) to the list of every term with a
// positive count in tf.
func (a *Accumulator) AddDocument(docID string, tf TermFreqs) {
	for term, count := range tf {
		if count <= 0 {
			continue
		}
		a.index[term] = append(a.index[term], Posting{DocID: docID, Frequency: count})
	}
	a.docCount++
}

// Snapshot returns every term with its postings, terms in ascending order.
// Postings keep the order in which their documents were added.
func (a *Accumulator) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(a.index))
	for term, postings := range a.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (a *Accumulator) Terms() int {
	return len(a.index)
}

func (a *Accumulator) DocCount() int {
	return a.docCount
}
