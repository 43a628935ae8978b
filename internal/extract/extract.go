// Package extract turns a directory of invoice markdown files into
// extraction records by sending each file to a chat-completion backend.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/invoice-dataset/pkg/types"
)

const markdownExt = ".md"

// PreviewLimit is the number of files processed by a preview run.
const PreviewLimit = 5

// Completer abstracts the hosted chat-completion API so tests can supply a
// mock. Complete returns the content of the first choice, or "" when the
// response carries no choices.
type Completer interface {
	Complete(ctx context.Context, model string, messages []types.ChatMessage) (string, error)
}

// Sink receives records for successfully extracted files, in input order.
type Sink interface {
	Write(rec types.ExtractionRecord) error
}

// Recorder observes every per-file outcome. The run journal implements it.
type Recorder interface {
	RecordFile(ctx context.Context, o types.FileOutcome) error
}

// BatchSummary holds counts from one extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of files processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any file failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *BatchSummary) add(status types.FileStatus) {
	switch status {
	case types.FileExtracted:
		s.Extracted++
	case types.FileSkipped:
		s.Skipped++
	case types.FileFailed:
		s.Failed++
	}
}

// ListMarkdown returns the names of the non-directory entries of dir that end
// in .md, in directory order. An unreadable directory is an error.
func ListMarkdown(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading markdown directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), markdownExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ReadDocument loads one markdown file from dir.
func ReadDocument(dir, name string) (types.InvoiceDocument, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return types.InvoiceDocument{}, fmt.Errorf("reading markdown %s: %w", name, err)
	}
	return types.InvoiceDocument{
		FileName: name,
		Title:    strings.TrimSuffix(name, markdownExt),
		Markdown: string(data),
	}, nil
}

// result carries one file's extraction from a worker to the commit loop.
type result struct {
	outcome types.FileOutcome
	record  *types.ExtractionRecord
}

// Run extracts every markdown file of cfg.InputDir and writes a record to sink
// for each file the model answered. Failing or empty files are reported on w
// and skipped; they never abort the batch. Only a directory listing failure is
// returned as an error.
//
// Records reach the sink and rec strictly in input order from a single
// goroutine. A file holds its worker slot until it has been committed, so
// with cfg.Concurrency of 1 the next file is not read until the previous one
// is written; larger values allow that many files in flight.
//
// Journal writes use a context detached from ctx, so outcomes of files
// abandoned after cancellation are still recorded.
func Run(ctx context.Context, client Completer, sink Sink, rec Recorder, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	names, err := ListMarkdown(cfg.InputDir)
	if err != nil {
		return BatchSummary{}, err
	}
	if cfg.Limit > 0 && len(names) > cfg.Limit {
		names = names[:cfg.Limit]
	}

	fmt.Fprintf(w, "processing %d markdown file(s) from %s\n", len(names), cfg.InputDir)

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 1
	}

	slots := make([]chan result, len(names))
	committed := make([]chan struct{}, len(names))
	for i := range slots {
		slots[i] = make(chan result, 1)
		committed[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i, name := range names {
			i, name := i, name
			g.Go(func() error {
				slots[i] <- extractFile(ctx, client, cfg, i, name)
				<-committed[i]
				return nil
			})
		}
	}()

	journalCtx := context.WithoutCancel(ctx)
	var summary BatchSummary
	for i := range slots {
		res := <-slots[i]
		o := commit(res, sink, &summary, w)
		if rec != nil {
			if err := rec.RecordFile(journalCtx, o); err != nil {
				fmt.Fprintf(w, "warning: journal write for %s failed: %v\n", o.FileName, err)
			}
		}
		close(committed[i])
	}
	_ = g.Wait()

	fmt.Fprintf(w, "\nprocessed %d file(s): %d extracted, %d skipped, %d failed\n",
		summary.Total(), summary.Extracted, summary.Skipped, summary.Failed)

	return summary, nil
}

// extractFile reads one file and performs its completion call.
func extractFile(ctx context.Context, client Completer, cfg types.ExtractionConfig, seq int, name string) result {
	start := time.Now()
	o := types.FileOutcome{
		Seq:      seq,
		FileName: name,
		Title:    strings.TrimSuffix(name, markdownExt),
	}
	fail := func(err error) result {
		o.Status = types.FileFailed
		o.Detail = err.Error()
		o.Elapsed = time.Since(start)
		return result{outcome: o}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	doc, err := ReadDocument(cfg.InputDir, name)
	if err != nil {
		return fail(err)
	}

	messages, err := BuildMessages(doc)
	if err != nil {
		return fail(fmt.Errorf("rendering prompt: %w", err))
	}

	reply, err := client.Complete(ctx, cfg.Model, messages)
	o.Elapsed = time.Since(start)
	if err != nil {
		return fail(err)
	}
	if reply == "" {
		o.Status = types.FileSkipped
		o.Detail = "no data extracted"
		return result{outcome: o}
	}

	r := types.NewExtractionRecord(doc.Title, messages[0].Content, messages[1].Content, reply)
	o.Status = types.FileExtracted
	return result{outcome: o, record: &r}
}

// commit writes a successful record to the sink and reports the outcome.
func commit(res result, sink Sink, summary *BatchSummary, w io.Writer) types.FileOutcome {
	o := res.outcome
	if res.record != nil {
		if err := sink.Write(*res.record); err != nil {
			o.Status = types.FileFailed
			o.Detail = fmt.Sprintf("write error: %v", err)
		}
	}

	summary.add(o.Status)

	switch o.Status {
	case types.FileExtracted:
		fmt.Fprintf(w, "extracted %s (%d so far)\n", o.Title, summary.Extracted)
	case types.FileSkipped:
		fmt.Fprintf(w, "skipped   %s: %s\n", o.Title, o.Detail)
	default:
		fmt.Fprintf(w, "failed    %s: %s\n", o.Title, o.Detail)
	}
	return o
}
