// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// InvoiceDocument is one markdown rendition of an invoice PDF.
type InvoiceDocument struct {
	// FileName is the directory entry name, e.g. "a.md".
	FileName string

	// Title is FileName without the .md extension.
	Title string

	// Markdown is the raw file content.
	Markdown string
}

// ChatMessage is a single role-tagged message of a completion exchange.
type ChatMessage struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ExtractionRecord is the persisted unit of the dataset: the system
// instruction, the user prompt, and the model reply, in that order.
type ExtractionRecord struct {
	// Source is the title of the document the record was built from. It is
	// not part of the dataset line.
	Source string `json:"-" yaml:"-"`

	Messages []ChatMessage `json:"messages" yaml:"messages"`
}

// NewExtractionRecord builds the three-message record for one document.
func NewExtractionRecord(source, system, user, assistant string) ExtractionRecord {
	return ExtractionRecord{
		Source: source,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
			{Role: RoleAssistant, Content: assistant},
		},
	}
}

// Reply returns the assistant message content, or "" if the record is short.
func (r ExtractionRecord) Reply() string {
	if len(r.Messages) < 3 {
		return ""
	}
	return r.Messages[2].Content
}

// FileStatus classifies what happened to one input file.
type FileStatus string

const (
	// FileExtracted means the record was written to the sink.
	FileExtracted FileStatus = "extracted"

	// FileSkipped means the model returned no content; nothing was written.
	FileSkipped FileStatus = "skipped"

	// FileFailed means reading, the completion call, or the write failed.
	FileFailed FileStatus = "failed"
)

// FileOutcome records the result of processing one input file.
type FileOutcome struct {
	// Seq is the zero-based position of the file in processing order.
	Seq int `json:"seq" yaml:"seq"`

	FileName string        `json:"file_name" yaml:"file_name"`
	Title    string        `json:"title" yaml:"title"`
	Status   FileStatus    `json:"status" yaml:"status"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}
