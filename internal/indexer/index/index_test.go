package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_SnapshotOrder(t *testing.T) {
	acc := NewAccumulator()
	acc.Seed([]string{"zebra"})
	acc.AddDocument("D1", TermFreqs{"cat": 2, "dog": 1, "none": 0})
	acc.AddDocument("D2", TermFreqs{"dog": 1, "bird": 1})

	snap := acc.Snapshot()
	terms := make([]string, len(snap))
	for i, e := range snap {
		terms[i] = e.Term
	}
	assert.Equal(t, []string{"bird", "cat", "dog", "zebra"}, terms)
	assert.Equal(t, PostingList{{DocID: "D1", Frequency: 1}, {DocID: "D2", Frequency: 1}}, snap[2].Postings)
	assert.Empty(t, snap[3].Postings)
	assert.Equal(t, TermFreqs{"D1": 2}, snap[1].Postings.Freqs())
	assert.Equal(t, 4, acc.Terms())
	assert.Equal(t, 2, acc.DocCount())
}

func TestTermFreqs_CloneIsIndependent(t *testing.T) {
	orig := TermFreqs{"a": 1}
	c := orig.Clone()
	c["a"] = 5
	assert.Equal(t, 1, orig["a"])

	var nilMap TermFreqs
	assert.NotNil(t, nilMap.Clone())
	assert.Equal(t, []string{"a", "b"}, TermFreqs{"b": 1, "a": 2}.Keys())
	assert.Equal(t, 3, TermFreqs{"b": 1, "a": 2}.Total())
}

func TestOffsetRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     OffsetRecord
		size    int64
		wantErr bool
	}{
		{"fits with terminator", OffsetRecord{Offset: 0, Length: 3}, 4, false},
		{"terminator past end", OffsetRecord{Offset: 0, Length: 4}, 4, true},
		{"negative offset", OffsetRecord{Offset: -1, Length: 1}, 10, true},
		{"negative length", OffsetRecord{Offset: 1, Length: -1}, 10, true},
		{"empty record", OffsetRecord{Offset: 9, Length: 0}, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate(tt.size, 1)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTables_Check(t *testing.T) {
	tables := NewTables("x")
	require.NoError(t, tables.Check())

	tables.DocOrder = append(tables.DocOrder, "D1")
	tables.DocOffsets["D1"] = OffsetRecord{}
	assert.ErrorContains(t, tables.Check(), "no locator")

	tables.DocLocators["D1"] = Locator{}
	require.NoError(t, tables.Check())

	tables.Vocabulary = append(tables.Vocabulary, "cat")
	assert.Error(t, tables.Check())
	tables.StemOffsets["dog"] = OffsetRecord{}
	assert.ErrorContains(t, tables.Check(), `"cat"`)
}
