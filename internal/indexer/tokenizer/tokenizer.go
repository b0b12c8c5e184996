// Package tokenizer turns raw document or query text into term-frequency
// maps. Three extractors are provided and chosen by name from configuration:
// "whitespace" splits on white space and keeps words verbatim, "simple"
// lower-cases, drops stop-words and applies a small suffix stemmer, and
// "porter" does the same with the Porter2 (snowball) English stemmer.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
)

// Extractor maps text to a term-frequency map. Implementations never emit
// terms containing ':', ';' or newlines.
type Extractor interface {
	Extract(text string) index.TermFreqs
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(text string) index.TermFreqs

func (f ExtractorFunc) Extract(text string) index.TermFreqs { return f(text) }

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

const (
	NameWhitespace = "whitespace"
	NamePorter     = "porter"
	NameSimple     = "simple"
)

// New returns the extractor registered under name. A nil stop set selects
// DefaultStopwords for the stemming extractors.
func New(name string, stop map[string]struct{}) (Extractor, error) {
	if stop == nil {
		stop = DefaultStopwords()
	}
	switch name {
	case NameWhitespace:
		return Whitespace{}, nil
	case NameSimple, "":
		return &Simple{stop: stop}, nil
	case NamePorter:
		return &Porter{stop: stop}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}

// Count folds a token stream into a term-frequency map.
func Count(tokens []Token) index.TermFreqs {
	tf := make(index.TermFreqs, len(tokens))
	for _, tok := range tokens {
		tf[tok.Term]++
	}
	return tf
}

// Whitespace splits on white space without any normalisation. Reserved
// separator characters are stripped from each word.
type Whitespace struct{}

func (Whitespace) Extract(text string) index.TermFreqs {
	tf := make(index.TermFreqs)
	for _, word := range strings.Fields(text) {
		word = strings.Map(func(r rune) rune {
			if r == ':' || r == ';' {
				return -1
			}
			return r
		}, word)
		if word != "" {
			tf[word]++
		}
	}
	return tf
}

// Simple is the built-in lower-casing, stop-word filtering suffix stemmer.
type Simple struct {
	stop map[string]struct{}
}

func (s *Simple) Extract(text string) index.TermFreqs {
	return Count(Tokenize(text, s.stop, stem))
}

// Tokenize breaks text into a slice of stemmed, lowercased Tokens with
// stop-words removed.
func Tokenize(text string, stop map[string]struct{}, stemFn func(string) string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stop[word]; isStop {
			continue
		}
		stemmed := stemFn(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}
