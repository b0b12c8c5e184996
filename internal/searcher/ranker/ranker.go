// Package ranker orders documents for a free-text query. A Model assigns
// scores; Rank turns scores into a deterministic, truncated list.
package ranker

import (
	"cmp"
	"context"
	"slices"
)

// Model scores the documents relevant to a query. Documents that do not
// match may be left out of the result.
type Model interface {
	Scores(ctx context.Context, query string) (map[string]float64, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, query string) (map[string]float64, error)

func (f ModelFunc) Scores(ctx context.Context, query string) (map[string]float64, error) {
	return f(ctx, query)
}

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank scores query with m and returns at most limit documents. limit <= 0
// returns every scored document.
func Rank(ctx context.Context, m Model, query string, limit int) ([]ScoredDoc, error) {
	scores, err := m.Scores(ctx, query)
	if err != nil {
		return nil, err
	}
	result := Sort(scores)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Sort orders scores by descending score, breaking ties by ascending
// document id.
func Sort(scores map[string]float64) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}
	slices.SortFunc(result, func(a, b ScoredDoc) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DocID, b.DocID)
	})
	return result
}
