// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns a directory of invoice PDFs into the markdown
// directory that extraction reads from.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	pdfExt      = ".pdf"
	markdownExt = ".md"
)

// Converter transforms a PDF file into Markdown text.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Status is the outcome of converting one PDF.
type Status int

const (
	Converted Status = iota
	Skipped
	Failed
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of PDFs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any PDF failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ListPDFs returns the names of the *.pdf files in dir, sorted by name.
// The extension match is case-insensitive since scanners often emit .PDF.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), pdfExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// MarkdownName maps an invoice PDF name to its markdown file name.
func MarkdownName(pdfName string) string {
	return strings.TrimSuffix(pdfName, filepath.Ext(pdfName)) + markdownExt
}

// ConvertFile converts srcDir/name into destDir, skipping when the markdown
// already exists and force is false.
func ConvertFile(ctx context.Context, c Converter, srcDir, destDir, name string, force bool, w io.Writer) Status {
	mdName := MarkdownName(name)
	mdPath := filepath.Join(destDir, mdName)

	if !force {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", mdName)
			return Skipped
		}
	}

	raw, err := c.Convert(ctx, filepath.Join(srcDir, name))
	if err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return Failed
	}

	if err := os.WriteFile(mdPath, []byte(raw), 0o644); err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
		return Failed
	}

	fmt.Fprintf(w, "converted: %s\n", mdName)
	return Converted
}

// ConvertDir converts every PDF in srcDir into destDir, creating destDir if
// needed. Per-file failures are reported on w and counted; only an
// unreadable source directory or an uncreatable destination is an error.
// A cancelled context stops the batch before the next file.
func ConvertDir(ctx context.Context, c Converter, srcDir, destDir string, force bool, w io.Writer) (BatchResult, error) {
	names, err := ListPDFs(srcDir)
	if err != nil {
		return BatchResult{}, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating markdown directory %s: %w", destDir, err)
	}

	var result BatchResult
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch ConvertFile(ctx, c, srcDir, destDir, name, force, w) {
		case Converted:
			result.Converted++
		case Skipped:
			result.Skipped++
		case Failed:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}
