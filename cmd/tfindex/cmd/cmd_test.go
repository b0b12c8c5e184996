package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/ranker"
)

// writeConfig lays out a lines corpus and a config pointing everything at
// a temp directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.tsv")
	require.NoError(t, os.WriteFile(corpusPath, []byte("D1\tcat dog cat\nD2\tdog bird\n"), 0644))
	cfg := fmt.Sprintf(`
index:
  name: test
  dataDir: %s
corpus:
  path: %s
  format: lines
extractor:
  name: whitespace
catalog:
  backend: file
  dir: %s
logging:
  level: error
`, filepath.Join(dir, "data"), corpusPath, filepath.Join(dir, "catalog"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildThenLookups(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "build", "--config", cfgPath)
	require.NoError(t, err)
	var summary indexer.BuildSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "test", summary.Name)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 3, summary.Terms)

	out, err = run(t, "doc", "D1", "--config", cfgPath)
	require.NoError(t, err)
	var terms map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &terms))
	assert.Equal(t, map[string]int{"cat": 2, "dog": 1}, terms)

	out, err = run(t, "term", "dog", "--config", cfgPath)
	require.NoError(t, err)
	var docs map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Equal(t, map[string]int{"D1": 1, "D2": 1}, docs)

	out, err = run(t, "text", "D2", "--config", cfgPath)
	require.NoError(t, err)
	var text string
	require.NoError(t, json.Unmarshal([]byte(out), &text))
	assert.Equal(t, "dog bird", text)

	out, err = run(t, "query", "dog", "cat", "fox", "--config", cfgPath)
	require.NoError(t, err)
	var weights map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &weights))
	assert.Equal(t, map[string]int{"bird": 0, "cat": 1, "dog": 1, "fox": 1}, weights)

	out, err = run(t, "rank", "dog", "cat", "--model", "vector", "--config", cfgPath)
	require.NoError(t, err)
	var ranked []ranker.ScoredDoc
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	assert.Equal(t, []ranker.ScoredDoc{{DocID: "D1", Score: 3}, {DocID: "D2", Score: 1}}, ranked)
}

func TestDoc_Unknown(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, "build", "--config", cfgPath)
	require.NoError(t, err)

	_, err = run(t, "doc", "D9", "--config", cfgPath)
	assert.Error(t, err)
}

func TestLookup_WithoutBuild(t *testing.T) {
	_, err := run(t, "doc", "D1", "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestDoc_RequiresID(t *testing.T) {
	_, err := run(t, "doc", "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range NewRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "doc", "term", "text", "query", "rank", "serve"} {
		assert.True(t, names[want], want)
	}
}
