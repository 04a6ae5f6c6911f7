package gosec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

const findingsOutput = `[gosec] 2025/01/01 00:00:00 Including rules: default
{
	"Golang errors": {},
	"Issues": [
		{
			"severity": "MEDIUM",
			"confidence": "HIGH",
			"cwe": {"id": "338", "url": "https://cwe.mitre.org/data/definitions/338.html"},
			"rule_id": "G404",
			"details": "Use of weak random number generator (math/rand instead of crypto/rand)",
			"file": "/src/app/token/token.go",
			"code": "12: n := rand.Int()",
			"line": "12",
			"column": "7",
			"nosec": false
		},
		{
			"severity": "HIGH",
			"confidence": "LOW",
			"cwe": {"id": "798", "url": "https://cwe.mitre.org/data/definitions/798.html"},
			"rule_id": "G101",
			"details": "Potential hardcoded credentials",
			"file": "/src/app/main.go",
			"code": "5: password := \"hunter2\"",
			"line": "5-6",
			"column": "2",
			"nosec": false
		},
		{
			"severity": "HIGH",
			"confidence": "LOW",
			"cwe": {"id": "798", "url": "https://cwe.mitre.org/data/definitions/798.html"},
			"rule_id": "G101",
			"details": "Potential hardcoded credentials",
			"file": "/src/app/config/config.go",
			"code": "9: token := \"abc\"",
			"line": "9",
			"column": "2",
			"nosec": false
		}
	],
	"Stats": {"files": 3, "lines": 120, "nosec": 0, "found": 3},
	"GosecVersion": "2.21.4"
}`

const brokenOutput = `{
	"Golang errors": {
		"/src/app/z.go": [{"line": 3, "column": 1, "error": "expected declaration, found foo"}],
		"/src/app/main.go": [
			{"line": 9, "column": 2, "error": "undefined: y"},
			{"line": 6, "column": 6, "error": "Pintl not declared by package fmt"}
		]
	},
	"Issues": [],
	"Stats": {"files": 2, "lines": 20, "nosec": 0, "found": 0}
}`

func TestParseOutput(t *testing.T) {
	out, err := ParseOutput(findingsOutput)
	require.NoError(t, err)

	assert.Len(t, out.Issues, 3)
	assert.Equal(t, Stats{Files: 3, Lines: 120, Found: 3}, out.Stats)
	assert.Equal(t, "2.21.4", out.GosecVersion)
	assert.Equal(t, "798", out.Issues[1].CWE.ID)

	_, err = ParseOutput("No packages found")
	assert.Error(t, err)

	_, err = ParseOutput("{ truncated")
	assert.Error(t, err)
}

func TestCompileErrorsAreSorted(t *testing.T) {
	out, err := ParseOutput(brokenOutput)
	require.NoError(t, err)

	var rendered []string
	for _, e := range out.CompileErrors() {
		rendered = append(rendered, e.String())
	}
	assert.Equal(t, []string{
		"/src/app/main.go:6:6: Pintl not declared by package fmt",
		"/src/app/main.go:9:2: undefined: y",
		"/src/app/z.go:3:1: expected declaration, found foo",
	}, rendered)
}

func TestFindings(t *testing.T) {
	out, err := ParseOutput(findingsOutput)
	require.NoError(t, err)

	fs := out.Findings("/src/app")
	require.Len(t, fs, 3)

	// high severity first, then by path
	assert.Equal(t, "config/config.go", fs[0].FilePath)
	assert.Equal(t, "main.go", fs[1].FilePath)
	assert.Equal(t, 5, fs[1].StartLine)
	assert.Equal(t, 6, fs[1].EndLine)
	assert.Equal(t, 2, fs[1].StartColumn)
	assert.Equal(t, "high", fs[1].Severity)
	assert.Equal(t, "low", fs[1].Confidence)
	assert.Equal(t, "G101", fs[1].RuleID)
	assert.Equal(t, PluginName, fs[1].Scanner)
	assert.Equal(t, "CWE-798", fs[1].Tags[0].Value)
	assert.Equal(t, "token/token.go", fs[2].FilePath)
	assert.Equal(t, "medium", fs[2].Severity)
}

func TestParseLineRange(t *testing.T) {
	tests := map[string][2]int{
		"12":    {12, 12},
		"12-14": {12, 14},
		" 7 ":   {7, 7},
		"a-b":   {0, 0},
		"":      {0, 0},
	}
	for in, want := range tests {
		start, end := parseLineRange(in)
		assert.Equal(t, want, [2]int{start, end}, in)
	}
}

func TestDescribeFindings(t *testing.T) {
	res := executor.Result{ExitStatus: 1, Stdout: findingsOutput}
	c := DefaultTable().Classify(res)
	require.Equal(t, verdict.FailedWithFindings, c.Verdict)

	d := describer{}.Describe(PluginName, c, res)

	assert.Equal(t, []string{
		"gosec reported 3 issue(s): Use of weak random number generator (math/rand instead of crypto/rand) (1), Potential hardcoded credentials (2)",
	}, d.Errors)
	assert.Contains(t, d.Excerpts, "[G101] Potential hardcoded credentials at /src/app/main.go:5-6 (severity HIGH, confidence LOW)")
}

func TestDescribeFindingsWithoutJSON(t *testing.T) {
	res := executor.Result{ExitStatus: 1, Stdout: `"details": "Potential hardcoded credentials" (truncated`}
	c := DefaultTable().Classify(res)
	require.Equal(t, verdict.FailedWithFindings, c.Verdict)

	d := describer{}.Describe(PluginName, c, res)
	assert.Equal(t, []string{"gosec reported 1 issue(s): Potential hardcoded credentials (1)"}, d.Errors)
}

func TestDescribeTargetBroken(t *testing.T) {
	res := executor.Result{ExitStatus: 1, Stdout: brokenOutput}
	c := DefaultTable().Classify(res)
	require.Equal(t, verdict.FailedTargetBroken, c.Verdict)

	d := describer{}.Describe(PluginName, c, res)
	require.Len(t, d.Errors, 3)
	assert.Equal(t, "Golang errors: /src/app/main.go:6:6: Pintl not declared by package fmt", d.Errors[0])
}

func TestDescribeToolError(t *testing.T) {
	tests := []struct {
		name string
		res  executor.Result
		want []string
	}{
		{
			name: "No packages",
			res: executor.Result{
				ExitStatus: 1,
				Stdout:     `{"Issues": [], "Stats": {"files": 0, "lines": 0, "nosec": 0, "found": 0}}`,
				Stderr:     "No packages found\n",
			},
			want: []string{"0 lines of code were scanned: No packages found"},
		},
		{
			name: "Zero lines only",
			res: executor.Result{
				ExitStatus: 0,
				Stdout:     `{"Issues": [], "Stats": {"files": 0, "lines": 0, "nosec": 0, "found": 0}}`,
				Stderr:     "Checking packages\n",
			},
			want: []string{"0 lines of code were scanned: Checking packages"},
		},
		{
			name: "Unrecognized failure falls back",
			res:  executor.Result{ExitStatus: 2, Stderr: "flag provided but not defined: -bogus"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultTable().Classify(tt.res)
			require.Equal(t, verdict.FailedToolError, c.Verdict)
			assert.Equal(t, tt.want, describer{}.Describe(PluginName, c, tt.res).Errors)
		})
	}
}
