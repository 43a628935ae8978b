// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter returns canned markdown, failing for names listed in fail.
type fakeConverter struct {
	output string
	fail   map[string]error
	calls  []string
}

func (f *fakeConverter) Convert(_ context.Context, pdfPath string) (string, error) {
	name := filepath.Base(pdfPath)
	f.calls = append(f.calls, name)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	return f.output + name, nil
}

func writeSources(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
	return dir
}

func TestListPDFs(t *testing.T) {
	dir := writeSources(t, "b.pdf", "a.PDF", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	names, err := ListPDFs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.PDF", "b.pdf"}, names)
}

func TestMarkdownName(t *testing.T) {
	assert.Equal(t, "inv-01.md", MarkdownName("inv-01.pdf"))
	assert.Equal(t, "scan.md", MarkdownName("scan.PDF"))
}

func TestConvertDir(t *testing.T) {
	src := writeSources(t, "a.pdf", "b.pdf", "c.pdf")
	dest := filepath.Join(t.TempDir(), "mdData")
	conv := &fakeConverter{output: "# ", fail: map[string]error{"b.pdf": errors.New("corrupt")}}

	var out bytes.Buffer
	result, err := ConvertDir(context.Background(), conv, src, dest, false, &out)
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Converted: 2, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, conv.calls)

	data, err := os.ReadFile(filepath.Join(dest, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# a.pdf", string(data))
	assert.NoFileExists(t, filepath.Join(dest, "b.md"))

	log := out.String()
	assert.Contains(t, log, "converted: a.md")
	assert.Contains(t, log, "failed:    b.pdf (corrupt)")
	assert.Contains(t, log, "2 converted, 0 skipped, 1 failed (total: 3)")
}

func TestConvertDirSkipsExistingUnlessForced(t *testing.T) {
	src := writeSources(t, "a.pdf")
	dest := t.TempDir()
	mdPath := filepath.Join(dest, "a.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("old"), 0o644))

	conv := &fakeConverter{output: "new "}
	result, err := ConvertDir(context.Background(), conv, src, dest, false, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, conv.calls)

	result, err = ConvertDir(context.Background(), conv, src, dest, true, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 1}, result)
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Equal(t, "new a.pdf", string(data))
}

func TestConvertDirMissingSource(t *testing.T) {
	_, err := ConvertDir(context.Background(), &fakeConverter{}, filepath.Join(t.TempDir(), "none"), t.TempDir(), false, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading source directory")
}

func TestConvertDirCancelled(t *testing.T) {
	src := writeSources(t, "a.pdf", "b.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &fakeConverter{}
	result, err := ConvertDir(ctx, conv, src, t.TempDir(), false, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Total())
	assert.Empty(t, conv.calls)
}

// stubRuntime is a container.Runtime that uppercases its input.
type stubRuntime struct {
	images map[string]bool
	image  string
}

func (s *stubRuntime) Name() string                   { return "docker" }
func (s *stubRuntime) Available(context.Context) bool { return true }

func (s *stubRuntime) ImageExists(_ context.Context, image string) error {
	if s.images[image] {
		return nil
	}
	return errors.New("no such image")
}

func (s *stubRuntime) Run(_ context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	s.image = image
	data, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	_, err = stdout.Write([]byte(strings.ToUpper(string(data))))
	return err
}

func TestMarkitdownConverter(t *testing.T) {
	ctx := context.Background()
	rt := &stubRuntime{images: map[string]bool{DefaultImage: true}}

	conv, err := NewMarkitdownConverter(ctx, rt, "")
	require.NoError(t, err)

	src := writeSources(t, "a.pdf")
	md, err := conv.Convert(ctx, filepath.Join(src, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", md)
	assert.Equal(t, DefaultImage, rt.image)

	_, err = NewMarkitdownConverter(ctx, rt, "other:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markitdown image not available in docker")
}

func TestMarkitdownConverterEmptyOutput(t *testing.T) {
	ctx := context.Background()
	src := writeSources(t, "empty.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(src, "empty.pdf"), nil, 0o644))

	conv, err := NewMarkitdownConverter(ctx, &stubRuntime{images: map[string]bool{"custom:2": true}}, "custom:2")
	require.NoError(t, err)
	_, err = conv.Convert(ctx, filepath.Join(src, "empty.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}
