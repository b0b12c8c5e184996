// Package codec serialises term-frequency maps to the compact text records
// stored in the forward and inverted index files:
//
//	term1:count1;term2:count2;...;termN:countN
//
// Keys are written in ascending order, so equal maps always produce equal
// bytes. An empty map is an empty record.
package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

const (
	PairSeparator  byte = ';'
	CountSeparator byte = ':'
	// Terminator follows every record on disk. It is not part of the record.
	Terminator byte = '\n'
)

// DecodeError describes a malformed record. Pos is the byte position of the
// offending pair inside the record and Pair is its zero-based ordinal.
type DecodeError struct {
	Record index.OffsetRecord
	Pos    int
	Pair   int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding record at offset %d (length %d): pair %d at byte %d: %s",
		e.Record.Offset, e.Record.Length, e.Pair, e.Pos, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return apperrors.ErrDecode
}

// ValidTerm reports whether term can be encoded without ambiguity.
func ValidTerm(term string) bool {
	return term != "" && !strings.ContainsAny(term, string([]byte{PairSeparator, CountSeparator, Terminator}))
}

// Encode writes m as a record. Keys must satisfy ValidTerm and counts must be
// non-negative; Encode does not check either.
func Encode(m index.TermFreqs) []byte {
	if len(m) == 0 {
		return []byte{}
	}
	var buf bytes.Buffer
	for i, term := range m.Keys() {
		if i > 0 {
			buf.WriteByte(PairSeparator)
		}
		buf.WriteString(term)
		buf.WriteByte(CountSeparator)
		buf.WriteString(strconv.Itoa(m[term]))
	}
	return buf.Bytes()
}

// Decode parses a record produced by Encode. It returns either the complete
// map or a *DecodeError, never a partial result.
func Decode(b []byte) (index.TermFreqs, error) {
	out := make(index.TermFreqs)
	if len(b) == 0 {
		return out, nil
	}
	pos := 0
	for pair := 0; ; pair++ {
		end := bytes.IndexByte(b[pos:], PairSeparator)
		last := end < 0
		if last {
			end = len(b)
		} else {
			end += pos
		}
		if err := decodePair(b[pos:end], out); err != "" {
			return nil, &DecodeError{Pos: pos, Pair: pair, Reason: err}
		}
		if last {
			return out, nil
		}
		pos = end + 1
		if pos == len(b) {
			return nil, &DecodeError{Pos: pos, Pair: pair + 1, Reason: "trailing pair separator"}
		}
	}
}

func decodePair(p []byte, out index.TermFreqs) string {
	if len(p) == 0 {
		return "empty pair"
	}
	sep := bytes.IndexByte(p, CountSeparator)
	if sep < 0 {
		return "missing count separator"
	}
	term, raw := string(p[:sep]), p[sep+1:]
	if term == "" {
		return "empty term"
	}
	if bytes.IndexByte(p, Terminator) >= 0 {
		return "embedded record terminator"
	}
	if len(raw) == 0 {
		return "empty count"
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return fmt.Sprintf("non-numeric count %q", raw)
		}
	}
	n, err := strconv.ParseInt(string(raw), 10, strconv.IntSize)
	if err != nil {
		return fmt.Sprintf("count %q out of range", raw)
	}
	if _, dup := out[term]; dup {
		return fmt.Sprintf("duplicate term %q", term)
	}
	out[term] = int(n)
	return ""
}
