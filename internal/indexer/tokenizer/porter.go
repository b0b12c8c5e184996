package tokenizer

import (
	"github.com/kljensen/snowball/english"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
)

// Porter stems with the snowball English (Porter2) algorithm.
type Porter struct {
	stop map[string]struct{}
}

func NewPorter(stop map[string]struct{}) *Porter {
	if stop == nil {
		stop = DefaultStopwords()
	}
	return &Porter{stop: stop}
}

func (p *Porter) Extract(text string) index.TermFreqs {
	return Count(Tokenize(text, p.stop, porterStem))
}

func porterStem(w string) string { return english.Stem(w, true) }
