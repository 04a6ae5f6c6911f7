package gosec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/scan-io-git/scanio-gate/internal/findings"
)

// Output is the document gosec prints with -fmt=json.
type Output struct {
	GolangErrors map[string][]GolangError `json:"Golang errors"`
	Issues       []Issue                  `json:"Issues"`
	Stats        Stats                    `json:"Stats"`
	GosecVersion string                   `json:"GosecVersion"`
}

// GolangError is a type checking error of the scanned project.
type GolangError struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Error  string `json:"error"`
}

// CWE references the weakness an issue maps to.
type CWE struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Issue is one gosec finding. Line and column are strings since gosec reports ranges as "12-14".
type Issue struct {
	Severity   string `json:"severity"`
	Confidence string `json:"confidence"`
	CWE        CWE    `json:"cwe"`
	RuleID     string `json:"rule_id"`
	Details    string `json:"details"`
	File       string `json:"file"`
	Code       string `json:"code"`
	Line       string `json:"line"`
	Column     string `json:"column"`
	NoSec      bool   `json:"nosec"`
}

// Stats are the counters gosec prints at the end of a run.
type Stats struct {
	Files int `json:"files"`
	Lines int `json:"lines"`
	NoSec int `json:"nosec"`
	Found int `json:"found"`
}

// CompileError is a flattened GolangError.
type CompileError struct {
	File string
	GolangError
}

// String renders the error the way the Go toolchain does.
func (e CompileError) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Error)
}

// ParseOutput decodes gosec JSON output. Text printed before the document is ignored.
func ParseOutput(stdout string) (*Output, error) {
	start := strings.Index(stdout, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON document in gosec output")
	}

	var out Output
	if err := json.Unmarshal([]byte(stdout[start:]), &out); err != nil {
		return nil, fmt.Errorf("failed to decode gosec output: %w", err)
	}
	return &out, nil
}

// CompileErrors returns every Golang error ordered by file, line and column.
func (o *Output) CompileErrors() []CompileError {
	var errs []CompileError
	for file, list := range o.GolangErrors {
		for _, e := range list {
			errs = append(errs, CompileError{File: file, GolangError: e})
		}
	}
	sort.Slice(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Error < b.Error
	})
	return errs
}

// Findings converts the reported issues into findings with paths relative to root.
func (o *Output) Findings(root string) []findings.Finding {
	result := make([]findings.Finding, 0, len(o.Issues))
	for _, issue := range o.Issues {
		start, end := parseLineRange(issue.Line)
		column, _ := strconv.Atoi(strings.TrimSpace(issue.Column))

		f := findings.Finding{
			RuleID:      issue.RuleID,
			Title:       issue.Details,
			Description: issue.Details,
			Severity:    strings.ToLower(issue.Severity),
			Confidence:  strings.ToLower(issue.Confidence),
			Scanner:     PluginName,
			FilePath:    relativePath(root, issue.File),
			StartLine:   start,
			EndLine:     end,
			StartColumn: column,
			Snippet:     issue.Code,
			Suppressed:  issue.NoSec,
		}
		if issue.CWE.ID != "" {
			f.Tags = append(f.Tags, findings.Property{Name: "cwe", Value: "CWE-" + issue.CWE.ID})
		}
		if issue.CWE.URL != "" {
			f.References = append(f.References, findings.Property{Name: "cwe", Value: issue.CWE.URL})
		}
		result = append(result, f)
	}
	findings.Sort(result)
	return result
}

// parseLineRange parses "12" or "12-14".
func parseLineRange(value string) (int, int) {
	value = strings.TrimSpace(value)
	if from, to, ok := strings.Cut(value, "-"); ok {
		start, err1 := strconv.Atoi(strings.TrimSpace(from))
		end, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 == nil && err2 == nil {
			return start, end
		}
		return 0, 0
	}
	if line, err := strconv.Atoi(value); err == nil {
		return line, line
	}
	return 0, 0
}

func relativePath(root, path string) string {
	if root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
