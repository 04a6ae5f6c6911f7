package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known keys of the Info mapping.
const (
	InfoStdout     = "stdout"
	InfoStderr     = "stderr"
	InfoTool       = "tool"
	InfoVerdict    = "verdict"
	InfoExitStatus = "exit_status"
	InfoDuration   = "duration"
	InfoCommand    = "command"
)

// Message is a single structured error entry of a Report.
type Message struct {
	Message string `json:"message"`
}

// Report is the normalized result of one scanner run.
// The JSON shape is consumed by downstream formatters and must not change.
type Report struct {
	Passed bool              `json:"passed"`
	Info   map[string]string `json:"info"`
	Errors []Message         `json:"errors"`
	Logs   string            `json:"logs"`
}

// ErrorMessages returns the plain text of every error entry in order.
func (r Report) ErrorMessages() []string {
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		messages = append(messages, e.Message)
	}
	return messages
}

// MarshalJSON keeps the wire shape stable when the report went through a
// transport that drops empty collections: errors is always a list and info
// always an object.
func (r Report) MarshalJSON() ([]byte, error) {
	type wire Report
	w := wire(r)
	if w.Info == nil {
		w.Info = map[string]string{}
	}
	if w.Errors == nil {
		w.Errors = []Message{}
	}
	return json.Marshal(w)
}

// ToJSON renders the report in its wire format.
func (r Report) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling the report: %w", err)
	}
	return data, nil
}

// Builder accumulates the fields of a Report until Build is called.
type Builder struct {
	passed   bool
	info     map[string]string
	errors   []Message
	sections []section
}

type section struct {
	title string
	body  string
}

// NewBuilder returns an empty builder. Info always carries stdout and stderr keys.
func NewBuilder() *Builder {
	return &Builder{
		info: map[string]string{
			InfoStdout: "",
			InfoStderr: "",
		},
	}
}

// Pass marks the report as passed.
func (b *Builder) Pass() *Builder {
	b.passed = true
	return b
}

// Fail marks the report as failed.
func (b *Builder) Fail() *Builder {
	b.passed = false
	return b
}

// AddInfo stores a value in the Info mapping, replacing a previous value.
func (b *Builder) AddInfo(key, value string) *Builder {
	b.info[key] = value
	return b
}

// AddError appends a structured error message.
func (b *Builder) AddError(format string, args ...interface{}) *Builder {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	b.errors = append(b.errors, Message{Message: msg})
	return b
}

// Log appends a titled section to the rendered logs. Empty bodies are dropped.
func (b *Builder) Log(title, body string) *Builder {
	if strings.TrimSpace(body) == "" {
		return b
	}
	b.sections = append(b.sections, section{title: title, body: body})
	return b
}

// Build returns an immutable snapshot of the accumulated report.
// A passed report never carries errors.
func (b *Builder) Build() Report {
	info := make(map[string]string, len(b.info))
	for k, v := range b.info {
		info[k] = v
	}

	errs := make([]Message, len(b.errors))
	copy(errs, b.errors)

	passed := b.passed && len(errs) == 0

	return Report{
		Passed: passed,
		Info:   info,
		Errors: errs,
		Logs:   b.renderLogs(),
	}
}

func (b *Builder) renderLogs() string {
	var sb strings.Builder
	if len(b.errors) > 0 {
		sb.WriteString("== errors\n")
		for _, e := range b.errors {
			sb.WriteString("- ")
			sb.WriteString(e.Message)
			sb.WriteString("\n")
		}
	}
	for _, s := range b.sections {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("== ")
		sb.WriteString(s.title)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(s.body, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
