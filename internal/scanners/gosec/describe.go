package gosec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scan-io-git/scanio-gate/pkg/shared/core"
	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

const zeroLinesMessage = "0 lines of code were scanned"

// describer words classifications using the decoded gosec document when it is available.
type describer struct{}

// Describe implements core.Describer.
func (describer) Describe(tool string, c verdict.Classification, res executor.Result) core.Description {
	out, _ := ParseOutput(res.Stdout)

	switch c.Verdict {
	case verdict.FailedToolError:
		return describeToolError(c, res)
	case verdict.FailedTargetBroken:
		return describeTargetBroken(out)
	case verdict.FailedWithFindings:
		return describeFindings(tool, c, out)
	}
	return core.Description{}
}

func describeToolError(c verdict.Classification, res executor.Result) core.Description {
	if len(c.Matches) == 0 {
		// Unrecognized failures get the generic exit status message.
		return core.Description{}
	}

	var phrases []string
	for _, m := range c.Matches {
		if m.Marker == MarkerZeroLines {
			continue
		}
		phrases = appendUnique(phrases, m.Phrase())
	}
	if len(phrases) == 0 {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			phrases = append(phrases, stderr)
		}
	}

	msg := zeroLinesMessage
	if len(phrases) > 0 {
		msg = fmt.Sprintf("%s: %s", zeroLinesMessage, strings.Join(phrases, "; "))
	}
	return core.Description{Errors: []string{msg}}
}

func describeTargetBroken(out *Output) core.Description {
	var d core.Description
	if out == nil || len(out.GolangErrors) == 0 {
		d.Errors = []string{"Golang errors: the target project failed to build"}
		return d
	}
	for _, e := range out.CompileErrors() {
		line := "Golang errors: " + e.String()
		d.Errors = append(d.Errors, line)
		d.Excerpts = append(d.Excerpts, line)
	}
	return d
}

func describeFindings(tool string, c verdict.Classification, out *Output) core.Description {
	var d core.Description

	if out == nil || len(out.Issues) == 0 {
		var details []string
		for _, m := range c.Matches {
			detail := unescapeDetails(m.Phrase())
			details = append(details, detail)
			d.Excerpts = append(d.Excerpts, detail)
		}
		d.Errors = []string{fmt.Sprintf("%s reported %d issue(s): %s", tool, len(details), countSummary(details))}
		return d
	}

	details := make([]string, 0, len(out.Issues))
	for _, issue := range out.Issues {
		details = append(details, issue.Details)
		d.Excerpts = append(d.Excerpts, fmt.Sprintf("[%s] %s at %s:%s (severity %s, confidence %s)",
			issue.RuleID, issue.Details, issue.File, issue.Line, issue.Severity, issue.Confidence))
	}
	d.Errors = []string{fmt.Sprintf("%s reported %d issue(s): %s", tool, len(details), countSummary(details))}
	return d
}

// unescapeDetails decodes a JSON string body matched by the issue marker.
func unescapeDetails(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &s); err != nil {
		return raw
	}
	return s
}

// countSummary renders "value (count)" pairs in first seen order.
func countSummary(values []string) string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	parts := make([]string, 0, len(order))
	for _, v := range order {
		parts = append(parts, fmt.Sprintf("%s (%d)", v, counts[v]))
	}
	return strings.Join(parts, ", ")
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
