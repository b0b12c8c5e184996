// Package corpus splits a corpus file into documents. Each document keeps a
// locator (path, byte offset, byte length) so its raw text can be fetched
// again after indexing without re-parsing the corpus.
package corpus

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
)

// Document is a single parsed document.
type Document interface {
	ID() string
	Text() string
	Locator() index.Locator
}

// Source yields the documents of a corpus file in order. Next returns io.EOF
// once the corpus is exhausted. Count is only meant for progress reporting.
type Source interface {
	Reset(path string) error
	Next() (Document, error)
	Count() (int, error)
	Close() error
}

const (
	FormatCACM  = "cacm"
	FormatLines = "lines"
)

// New returns an unbound source for the given corpus format. Call Reset
// before Next.
func New(format string) (Source, error) {
	switch format {
	case FormatCACM:
		return NewCACM(), nil
	case FormatLines, "":
		return NewLines(), nil
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

// Doc is the plain Document implementation returned by the built-in
// sources.
type Doc struct {
	DocID   string
	Body    string
	Located index.Locator
}

func (d *Doc) ID() string             { return d.DocID }
func (d *Doc) Text() string           { return d.Body }
func (d *Doc) Locator() index.Locator { return d.Located }
