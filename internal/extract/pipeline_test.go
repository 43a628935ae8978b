package extract_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/invoice-dataset/internal/dataset"
	"github.com/pdiddy/invoice-dataset/internal/extract"
	"github.com/pdiddy/invoice-dataset/internal/journal"
	"github.com/pdiddy/invoice-dataset/pkg/types"
)

// replyByTitle answers with a fixed reply per document title.
type replyByTitle map[string]string

func (r replyByTitle) Complete(_ context.Context, _ string, messages []types.ChatMessage) (string, error) {
	title := strings.TrimSuffix(strings.Fields(messages[1].Content)[1], ".md.pdf")
	return r[title], nil
}

func inputDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func datasetLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func runInto(t *testing.T, ctx context.Context, client extract.Completer, dir, out string, rec extract.Recorder) extract.BatchSummary {
	t.Helper()
	sink, err := dataset.OpenJSONL(out)
	require.NoError(t, err)
	defer sink.Close()

	summary, err := extract.Run(ctx, client, sink, rec, types.ExtractionConfig{InputDir: dir, Concurrency: 1}, &strings.Builder{})
	require.NoError(t, err)
	return summary
}

func TestRunWritesDatasetFile(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "invoiceDataset.jsonl")
	reply := `{"datetime":"2023-04-01","total_amount":12.5,"currency":"USD","business_name":"Acme <Inc>","business_location":null}`

	dir := inputDir(t, map[string]string{
		"a.md":  "Total: 12.50 USD, Acme Inc, 2023-04-01",
		"b.txt": "ignored",
	})
	client := replyByTitle{"a": reply}

	runInto(t, ctx, client, dir, out, nil)
	lines := datasetLines(t, out)
	require.Len(t, lines, 1)

	var line struct {
		Messages []types.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	require.Len(t, line.Messages, 3)
	assert.Equal(t, types.RoleSystem, line.Messages[0].Role)
	assert.Equal(t, extract.SystemPrompt, line.Messages[0].Content)
	assert.True(t, strings.HasPrefix(line.Messages[1].Content, "(original: a.md.pdf markdown: a.md) Total: 12.50 USD"))
	assert.Equal(t, reply, line.Messages[2].Content)

	// An empty reply adds nothing.
	emptyDir := inputDir(t, map[string]string{"e.md": "blank scan"})
	summary := runInto(t, ctx, client, emptyDir, out, nil)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, datasetLines(t, out), 1)

	// Rerunning appends again.
	runInto(t, ctx, client, dir, out, nil)
	lines = datasetLines(t, out)
	require.Len(t, lines, 2)
	assert.Equal(t, lines[0], lines[1])
}

func TestRunJournalsOutcomesAfterCancel(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer j.Close()

	run, err := j.Begin(context.Background(), journal.RunInfo{Sink: types.SinkJSONL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := inputDir(t, map[string]string{"a.md": "x", "b.md": "y"})
	out := filepath.Join(t.TempDir(), "invoiceDataset.jsonl")
	summary := runInto(t, ctx, replyByTitle{"a": "{}", "b": "{}"}, dir, out, run)
	assert.Equal(t, 2, summary.Failed)
	assert.Empty(t, datasetLines(t, out))

	files, err := j.Files(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for i, f := range files {
		assert.Equal(t, i, f.Seq)
		assert.Equal(t, types.FileFailed, f.Status)
		assert.Contains(t, f.Detail, "context canceled")
	}
}
