package types

import "time"

// AIConfig holds settings for the hosted chat-completion endpoint.
type AIConfig struct {
	// Model is the model identifier sent with every request (e.g. "claude-4-sonnet").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the credential for the endpoint. Usually resolved from
	// PREMAI_API_KEY rather than set in a config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the OpenAI-compatible API root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single completion request. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RateLimitRetries is the number of times an HTTP 429 is retried with
	// exponential backoff. Zero disables retries.
	RateLimitRetries int `json:"rate_limit_retries" yaml:"rate_limit_retries" mapstructure:"rate_limit_retries"`
}

// SinkKind selects where extraction records go.
type SinkKind string

const (
	SinkConsole SinkKind = "console"
	SinkJSONL   SinkKind = "jsonl"
)

// ExtractionConfig holds settings for the extract stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// InputDir is the directory holding the invoice markdown files.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// Output is the JSON-Lines dataset path used by the jsonl sink.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Sink selects console or jsonl output.
	Sink SinkKind `json:"sink" yaml:"sink" mapstructure:"sink"`

	// Limit caps the number of files processed. Zero processes all files.
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Concurrency is the maximum number of in-flight completion requests
	// (default 1, fully sequential).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// Journal is the SQLite run journal path. Empty disables the journal.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty" mapstructure:"journal"`
}

// ConversionConfig holds settings for the PDF to Markdown conversion stage.
type ConversionConfig struct {
	// SourceDir holds the original invoice PDFs.
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// MarkdownDir receives one <stem>.md per converted PDF.
	MarkdownDir string `json:"markdown_dir" yaml:"markdown_dir" mapstructure:"markdown_dir"`

	// Image is the markitdown container image.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Force reconverts PDFs whose markdown already exists.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}
