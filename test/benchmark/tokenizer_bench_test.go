package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `A forward index maps each document to the terms it contains and their
        counts, while the inverted index maps each term back to the documents that
        contain it. Both sides are written as flat files of records, and offset
        tables give random access to any single record without scanning.`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. These systems combine tokenization, stemming, and stop word
        removal to normalize text into searchable terms. BM25 ranking considers term
        frequency, document length normalization, and inverse document frequency to
        produce relevance scores. `, 20),
}

func BenchmarkExtract(b *testing.B) {
	for _, name := range []string{tokenizer.NameWhitespace, tokenizer.NameSimple, tokenizer.NamePorter} {
		ex, err := tokenizer.New(name, nil)
		if err != nil {
			b.Fatal(err)
		}
		for size, text := range sampleTexts {
			b.Run(name+"/"+size, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(text)))
				for i := 0; i < b.N; i++ {
					_ = ex.Extract(text)
				}
			})
		}
	}
}
