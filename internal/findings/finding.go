package findings

import (
	"sort"
	"strings"
)

// Property is a simple name/value pair used for tags, references, or custom metadata.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Finding is a minimal internal domain model extracted from scanner output.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence,omitempty"`
	Scanner     string `json:"scanner"`

	FilePath    string `json:"file_path"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	StartColumn int    `json:"start_column,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	Suppressed  bool   `json:"suppressed,omitempty"`

	Tags       []Property `json:"tags,omitempty"`
	References []Property `json:"references,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

var severityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
	"info":     4,
}

// SeverityRank orders severities, most severe first. Unknown severities sort last.
func SeverityRank(severity string) int {
	if rank, ok := severityRank[strings.ToLower(strings.TrimSpace(severity))]; ok {
		return rank
	}
	return len(severityRank)
}

// Sort orders findings by severity, then file path, line and rule.
func Sort(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if ra, rb := SeverityRank(a.Severity), SeverityRank(b.Severity); ra != rb {
			return ra < rb
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.RuleID < b.RuleID
	})
}

// Active drops suppressed findings.
func Active(fs []Finding) []Finding {
	out := make([]Finding, 0, len(fs))
	for _, f := range fs {
		if !f.Suppressed {
			out = append(out, f)
		}
	}
	return out
}

// CountBySeverity returns the number of findings per lower-cased severity.
func CountBySeverity(fs []Finding) map[string]int {
	counts := make(map[string]int)
	for _, f := range fs {
		counts[strings.ToLower(f.Severity)]++
	}
	return counts
}
