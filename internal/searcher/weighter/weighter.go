// Package weighter exposes term-frequency weight vectors for documents,
// terms and free-text queries over a built index.
package weighter

import (
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
)

// Source is the part of the index a Weighter reads from.
type Source interface {
	TermsForDocument(id string) (index.TermFreqs, error)
	DocsForTerm(term string) (index.TermFreqs, error)
	Vocabulary() []string
}

type Weighter struct {
	src       Source
	extractor tokenizer.Extractor
}

// New returns a Weighter over src. Queries are run through extractor, which
// must be the one the index was built with.
func New(src Source, extractor tokenizer.Extractor) *Weighter {
	return &Weighter{src: src, extractor: extractor}
}

// ForDocument is the term -> count vector of a document.
func (w *Weighter) ForDocument(id string) (index.TermFreqs, error) {
	return w.src.TermsForDocument(id)
}

// ForTerm is the document -> count vector of a term. Unknown terms give an
// empty vector.
func (w *Weighter) ForTerm(term string) (index.TermFreqs, error) {
	return w.src.DocsForTerm(term)
}

// ForQuery maps every vocabulary term to 0, then overlays the extracted
// counts of text. Query terms outside the vocabulary are kept.
func (w *Weighter) ForQuery(text string) index.TermFreqs {
	vocab := w.src.Vocabulary()
	extracted := w.extractor.Extract(text)
	weights := make(index.TermFreqs, len(vocab)+len(extracted))
	for _, term := range vocab {
		weights[term] = 0
	}
	for term, n := range extracted {
		weights[term] = n
	}
	return weights
}

// InVocabulary drops every term of weights that is not in the index
// vocabulary, giving a vector with one dimension per indexed term.
func (w *Weighter) InVocabulary(weights index.TermFreqs) index.TermFreqs {
	vocab := w.src.Vocabulary()
	out := make(index.TermFreqs, len(vocab))
	for _, term := range vocab {
		out[term] = weights[term]
	}
	return out
}
