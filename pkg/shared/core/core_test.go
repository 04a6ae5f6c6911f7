package core

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

var table = verdict.Table{
	verdict.MustMarker("no-code", `no code found`, verdict.Stderr, verdict.FailedToolError),
	verdict.MustMarker("compile", `compile error: (.+)`, verdict.Stdout, verdict.FailedTargetBroken),
	verdict.MustMarker("issue", `ISSUE: (.+)`, verdict.Stdout, verdict.FailedWithFindings),
}

func fakeTool(t *testing.T, body string) *Tool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return &Tool{Name: "faketool", Binary: path, Table: table}
}

func TestScanPassed(t *testing.T) {
	tool := fakeTool(t, "echo all good\nexit 0\n")

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.Passed, out.Verdict)
	assert.True(t, out.Report.Passed)
	assert.Empty(t, out.Report.Errors)
	assert.Equal(t, "all good\n", out.Report.Info[report.InfoStdout])
	assert.Equal(t, "0", out.Report.Info[report.InfoExitStatus])
	assert.Equal(t, "PASSED", out.Report.Info[report.InfoVerdict])
}

func TestScanFindings(t *testing.T) {
	tool := fakeTool(t, "echo 'ISSUE: Potential hardcoded credentials'\necho 'ISSUE: Potential hardcoded credentials'\nexit 1\n")

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.FailedWithFindings, out.Verdict)
	assert.False(t, out.Report.Passed)
	require.Len(t, out.Report.Errors, 1)
	assert.Equal(t, "faketool reported 2 finding(s): Potential hardcoded credentials (2)", out.Report.Errors[0].Message)
	assert.Contains(t, out.Report.Logs, "== findings\nPotential hardcoded credentials\nPotential hardcoded credentials\n")
}

func TestScanToolErrorMarker(t *testing.T) {
	tool := fakeTool(t, "echo 'no code found' >&2\nexit 1\n")

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.FailedToolError, out.Verdict)
	assert.Equal(t, "no code found\n", out.Report.Info[report.InfoStderr])
	assert.Equal(t, []string{"faketool could not scan the target: no code found"}, out.Report.ErrorMessages())
}

func TestScanTargetBroken(t *testing.T) {
	tool := fakeTool(t, "echo 'compile error: undefined: fmt.Pintl'\nexit 1\n")

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.FailedTargetBroken, out.Verdict)
	assert.Equal(t, []string{"target project failed to build: undefined: fmt.Pintl"}, out.Report.ErrorMessages())
	assert.Contains(t, out.Report.Logs, "undefined: fmt.Pintl")
}

func TestScanUnrecognizedFailure(t *testing.T) {
	tool := fakeTool(t, "echo 'segmentation fault' >&2\nexit 139\n")

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.FailedToolError, out.Verdict)
	require.Len(t, out.Report.Errors, 1)
	assert.Contains(t, out.Report.Errors[0].Message, "status 139")
	assert.Contains(t, out.Report.Errors[0].Message, "segmentation fault")
}

func TestScanMissingBinary(t *testing.T) {
	tool := &Tool{Name: "gosec", Binary: "scanio-gate-no-such-binary", Table: table}

	out := tool.Scan(context.Background(), t.TempDir(), nil)

	assert.Equal(t, verdict.FailedToolError, out.Verdict)
	assert.False(t, out.Report.Passed)
	require.Len(t, out.Report.Errors, 1)
	assert.Contains(t, out.Report.Errors[0].Message, "gosec could not be executed")
	assert.Contains(t, out.Report.Info, report.InfoStdout)
	assert.Contains(t, out.Report.Info, report.InfoStderr)
}

func TestScanMissingTargetDir(t *testing.T) {
	tool := fakeTool(t, "echo unreachable\n")
	dir := filepath.Join(t.TempDir(), "gone")

	out := tool.Scan(context.Background(), dir, nil)

	assert.Equal(t, verdict.FailedToolError, out.Verdict)
	require.Len(t, out.Report.Errors, 1)
	assert.Contains(t, out.Report.Errors[0].Message, "target "+dir+" cannot be scanned")
	assert.NotContains(t, out.Report.Errors[0].Message, "could not be executed")
}

func TestScanPassesArgumentsAndDir(t *testing.T) {
	tool := fakeTool(t, "echo \"$@\"\nls\n")
	tool.Args = []string{"-fmt=json"}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0o644))

	out := tool.Scan(context.Background(), dir, []string{"-exclude=G104", "./..."})

	assert.Equal(t, "-fmt=json -exclude=G104 ./...\nmarker.txt\n", out.Report.Info[report.InfoStdout])
}

type stubDescriber struct{}

func (stubDescriber) Describe(tool string, c verdict.Classification, res executor.Result) Description {
	if c.Verdict == verdict.FailedWithFindings {
		return Description{Errors: []string{"custom findings message"}, Excerpts: []string{"custom excerpt"}}
	}
	return Description{}
}

func TestScanUsesDescriberAndFallsBack(t *testing.T) {
	tool := fakeTool(t, "echo 'ISSUE: x'\nexit 1\n")
	tool.Describer = stubDescriber{}

	out := tool.Scan(context.Background(), t.TempDir(), nil)
	assert.Equal(t, []string{"custom findings message"}, out.Report.ErrorMessages())
	assert.Contains(t, out.Report.Logs, "custom excerpt")

	tool = fakeTool(t, "exit 4\n")
	tool.Describer = stubDescriber{}

	out = tool.Scan(context.Background(), t.TempDir(), nil)
	require.Len(t, out.Report.Errors, 1)
	assert.Contains(t, out.Report.Errors[0].Message, "status 4")
}
