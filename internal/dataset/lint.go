package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/invoice-dataset/pkg/types"
)

// invoiceSchema is the shape the system prompt asks the model to return.
const invoiceSchema = `{
	"type": "object",
	"required": ["datetime", "total_amount", "currency", "business_name", "business_location"],
	"additionalProperties": false,
	"properties": {
		"datetime":          {"type": ["string", "null"]},
		"total_amount":      {"type": ["number", "null"]},
		"currency":          {"type": ["string", "null"]},
		"business_name":     {"type": ["string", "null"]},
		"business_location": {"type": ["string", "null"]}
	}
}`

var compiledInvoiceSchema = jsonschema.MustCompileString("invoice.json", invoiceSchema)

// IssueKind names a class of malformed dataset line.
type IssueKind string

const (
	IssueInvalidJSON  IssueKind = "invalid_json"
	IssueMessages     IssueKind = "bad_messages"
	IssueReplyNotJSON IssueKind = "reply_not_json"
	IssueReplySchema  IssueKind = "reply_schema"
)

// Issue describes one malformed line.
type Issue struct {
	Line   int       `json:"line" yaml:"line"`
	Source string    `json:"source,omitempty" yaml:"source,omitempty"`
	Kind   IssueKind `json:"kind" yaml:"kind"`
	Detail string    `json:"detail" yaml:"detail"`
}

// LintReport summarizes a dataset check.
type LintReport struct {
	Lines  int     `json:"lines" yaml:"lines"`
	Valid  int     `json:"valid" yaml:"valid"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Clean reports whether every line passed.
func (r LintReport) Clean() bool { return len(r.Issues) == 0 }

var sourceRe = regexp.MustCompile(`^\(original: (.+?)\.pdf markdown: `)

var wantRoles = []types.Role{types.RoleSystem, types.RoleUser, types.RoleAssistant}

// Lint reads a JSON-Lines dataset and reports every line that is not a
// three-message record whose assistant reply matches the invoice schema.
// Lines are only reported, never changed.
func Lint(r io.Reader) (LintReport, error) {
	var report LintReport
	br := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return report, fmt.Errorf("reading line %d: %w", lineNo, err)
		}
		if line == "" && errors.Is(err, io.EOF) {
			break
		}

		report.Lines++
		if issue, ok := checkLine(lineNo, strings.TrimRight(line, "\r\n")); ok {
			report.Issues = append(report.Issues, issue)
		} else {
			report.Valid++
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	return report, nil
}

// checkLine returns the first problem found on one line, if any.
func checkLine(lineNo int, line string) (Issue, bool) {
	issue := Issue{Line: lineNo}

	var rec types.ExtractionRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		issue.Kind = IssueInvalidJSON
		issue.Detail = err.Error()
		return issue, true
	}

	if len(rec.Messages) > 1 {
		if m := sourceRe.FindStringSubmatch(rec.Messages[1].Content); m != nil {
			issue.Source = m[1]
		}
	}

	if len(rec.Messages) != len(wantRoles) {
		issue.Kind = IssueMessages
		issue.Detail = fmt.Sprintf("got %d messages, want %d", len(rec.Messages), len(wantRoles))
		return issue, true
	}
	for i, role := range wantRoles {
		if rec.Messages[i].Role != role {
			issue.Kind = IssueMessages
			issue.Detail = fmt.Sprintf("message %d has role %q, want %q", i, rec.Messages[i].Role, role)
			return issue, true
		}
	}

	var reply any
	if err := json.Unmarshal([]byte(rec.Reply()), &reply); err != nil {
		issue.Kind = IssueReplyNotJSON
		issue.Detail = err.Error()
		return issue, true
	}
	if err := compiledInvoiceSchema.Validate(reply); err != nil {
		issue.Kind = IssueReplySchema
		issue.Detail = strings.ReplaceAll(err.Error(), "\n", "; ")
		return issue, true
	}

	return Issue{}, false
}
