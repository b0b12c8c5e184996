package ranker

import (
	"context"
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
)

const (
	k1 = 1.2
	b  = 0.75
)

const (
	ModelVector = "vector"
	ModelBM25   = "bm25"
)

// Corpus is what the built-in models need from an index.
type Corpus interface {
	DocsForTerm(term string) (index.TermFreqs, error)
	DocCount() int
	DocLength(id string) int
	AvgDocLength() float64
	Extractor() tokenizer.Extractor
}

// NewModel returns the built-in model with the given name.
func NewModel(name string, c Corpus) (Model, error) {
	switch name {
	case ModelVector:
		return &Vector{corpus: c}, nil
	case ModelBM25, "":
		return &BM25{corpus: c}, nil
	default:
		return nil, fmt.Errorf("unknown ranking model %q", name)
	}
}

// Vector scores a document by the dot product of the query's term counts
// and the document's term counts. Only the inverted lists of the query terms
// are read.
type Vector struct {
	corpus Corpus
}

func NewVector(c Corpus) *Vector { return &Vector{corpus: c} }

func (v *Vector) Scores(ctx context.Context, query string) (map[string]float64, error) {
	scores := make(map[string]float64)
	for term, qw := range v.corpus.Extractor().Extract(query) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if qw <= 0 {
			continue
		}
		postings, err := v.corpus.DocsForTerm(term)
		if err != nil {
			return nil, fmt.Errorf("reading postings for %q: %w", term, err)
		}
		for docID, n := range postings {
			scores[docID] += float64(qw * n)
		}
	}
	return scores, nil
}

// BM25 is Okapi BM25 with k1 = 1.2 and b = 0.75.
type BM25 struct {
	corpus Corpus
}

func NewBM25(c Corpus) *BM25 { return &BM25{corpus: c} }

func (m *BM25) Scores(ctx context.Context, query string) (map[string]float64, error) {
	totalDocs := int64(m.corpus.DocCount())
	avgDocLength := m.corpus.AvgDocLength()
	scores := make(map[string]float64)
	for term := range m.corpus.Extractor().Extract(query) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		postings, err := m.corpus.DocsForTerm(term)
		if err != nil {
			return nil, fmt.Errorf("reading postings for %q: %w", term, err)
		}
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(totalDocs, int64(len(postings)))
		for docID, n := range postings {
			tfNorm := computeTFNorm(float64(n), float64(m.corpus.DocLength(docID)), avgDocLength)
			scores[docID] += idf * tfNorm
		}
	}
	for docID, score := range scores {
		scores[docID] = math.Round(score*10000) / 10000
	}
	return scores, nil
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
