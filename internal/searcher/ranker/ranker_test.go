package ranker

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
)

type fakeCorpus struct {
	postings map[string]index.TermFreqs
	lengths  map[string]int
}

func twoDocCorpus() *fakeCorpus {
	return &fakeCorpus{
		postings: map[string]index.TermFreqs{
			"bird": {"D2": 1},
			"cat":  {"D1": 2},
			"dog":  {"D1": 1, "D2": 1},
		},
		lengths: map[string]int{"D1": 3, "D2": 2},
	}
}

func (f *fakeCorpus) DocsForTerm(term string) (index.TermFreqs, error) {
	if p, ok := f.postings[term]; ok {
		return p.Clone(), nil
	}
	return index.TermFreqs{}, nil
}

func (f *fakeCorpus) DocCount() int          { return len(f.lengths) }
func (f *fakeCorpus) DocLength(id string) int { return f.lengths[id] }

func (f *fakeCorpus) AvgDocLength() float64 {
	total := 0
	for _, n := range f.lengths {
		total += n
	}
	return float64(total) / float64(len(f.lengths))
}

func (f *fakeCorpus) Extractor() tokenizer.Extractor { return tokenizer.Whitespace{} }

func TestSort_TiesByDocID(t *testing.T) {
	got := Sort(map[string]float64{"b": 1, "a": 1, "c": 2, "d": 0.5})
	assert.Equal(t, []ScoredDoc{
		{DocID: "c", Score: 2},
		{DocID: "a", Score: 1},
		{DocID: "b", Score: 1},
		{DocID: "d", Score: 0.5},
	}, got)
}

func TestSort_Empty(t *testing.T) {
	assert.Empty(t, Sort(nil))
}

func TestRank_Limit(t *testing.T) {
	m := ModelFunc(func(context.Context, string) (map[string]float64, error) {
		return map[string]float64{"x": 3, "y": 2, "z": 1}, nil
	})
	tests := []struct {
		limit int
		want  []string
	}{
		{0, []string{"x", "y", "z"}},
		{-1, []string{"x", "y", "z"}},
		{2, []string{"x", "y"}},
		{10, []string{"x", "y", "z"}},
	}
	for _, tt := range tests {
		got, err := Rank(context.Background(), m, "q", tt.limit)
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, d := range got {
			ids[i] = d.DocID
		}
		assert.Equal(t, tt.want, ids, "limit %d", tt.limit)
	}
}

func TestRank_PropagatesModelError(t *testing.T) {
	boom := errors.New("boom")
	m := ModelFunc(func(context.Context, string) (map[string]float64, error) { return nil, boom })
	_, err := Rank(context.Background(), m, "q", 5)
	assert.ErrorIs(t, err, boom)
}

func TestVector_DotProduct(t *testing.T) {
	got, err := Rank(context.Background(), NewVector(twoDocCorpus()), "dog cat fox", 0)
	require.NoError(t, err)
	assert.Equal(t, []ScoredDoc{
		{DocID: "D1", Score: 3},
		{DocID: "D2", Score: 1},
	}, got)
}

func TestVector_RepeatedQueryTerm(t *testing.T) {
	scores, err := NewVector(twoDocCorpus()).Scores(context.Background(), "cat cat")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"D1": 4}, scores)
}

func TestBM25_Scores(t *testing.T) {
	scores, err := NewBM25(twoDocCorpus()).Scores(context.Background(), "cat bird")
	require.NoError(t, err)

	idf := math.Log((2.0-1.0)/1.5 + 1)
	d1 := idf * (2 * 2.2) / (2 + 1.2*(0.25+0.75*3/2.5))
	d2 := idf * 2.2 / (1 + 1.2*(0.25+0.75*2/2.5))
	assert.InDelta(t, d1, scores["D1"], 1e-4)
	assert.InDelta(t, d2, scores["D2"], 1e-4)
	assert.Greater(t, scores["D1"], scores["D2"])
}

func TestBM25_UnknownTermsScoreNothing(t *testing.T) {
	scores, err := NewBM25(twoDocCorpus()).Scores(context.Background(), "fox owl")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestModels_StopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, m := range []Model{NewVector(twoDocCorpus()), NewBM25(twoDocCorpus())} {
		_, err := m.Scores(ctx, "dog")
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestNewModel(t *testing.T) {
	m, err := NewModel("vector", twoDocCorpus())
	require.NoError(t, err)
	assert.IsType(t, &Vector{}, m)

	m, err = NewModel("", twoDocCorpus())
	require.NoError(t, err)
	assert.IsType(t, &BM25{}, m)

	_, err = NewModel("tfidf", twoDocCorpus())
	assert.Error(t, err)
}

func TestComputeIDF(t *testing.T) {
	tests := []struct {
		name      string
		totalDocs int64
		docFreq   int64
		wantPos   bool
	}{
		{"rare term", 1000, 1, true},
		{"common term", 1000, 500, true},
		{"every doc", 1000, 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idf := computeIDF(tt.totalDocs, tt.docFreq)
			if tt.wantPos {
				assert.Greater(t, idf, 0.0)
			} else {
				assert.InDelta(t, 0.0, idf, 1e-12)
			}
		})
	}
}

func TestComputeTFNorm_ZeroAverage(t *testing.T) {
	assert.Equal(t, 0.0, computeTFNorm(3, 10, 0))
}
