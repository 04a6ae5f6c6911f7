package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

// Description is the scanner specific wording of a classification.
type Description struct {
	Errors   []string // One entry per Report error, empty for a passed verdict
	Excerpts []string // Lines rendered into the logs findings section
}

// Describer turns a classification into user facing messages.
type Describer interface {
	Describe(tool string, c verdict.Classification, res executor.Result) Description
}

// Outcome is the result of one tool run.
type Outcome struct {
	Verdict verdict.Verdict
	Report  report.Report
}

// Tool runs one external analysis tool and classifies its output.
type Tool struct {
	Name      string             // Tool name used in messages
	Binary    string             // Binary name or path
	Args      []string           // Arguments placed before the request's additional arguments
	Timeout   time.Duration      // Zero means no timeout
	Env       []string           // Extra environment for the subprocess
	Table     verdict.Table      // Marker table used for classification
	Describer Describer          // Optional, DefaultDescriber when nil
	Executor  *executor.Executor // Optional, a new executor when nil
	Logger    hclog.Logger       // Optional
}

// Scan runs the tool once inside dir and returns the classified outcome.
// It never returns an error: every failure ends up in the report.
func (t *Tool) Scan(ctx context.Context, dir string, additionalArgs []string) Outcome {
	logger := t.logger()

	cmd := executor.Command{
		Name:    t.Binary,
		Args:    t.buildArgs(additionalArgs),
		Dir:     dir,
		Env:     t.Env,
		Timeout: t.Timeout,
	}

	runner := t.Executor
	if runner == nil {
		runner = executor.New(logger)
	}

	logger.Info("running tool", "tool", t.Name, "dir", dir)
	res, err := runner.Execute(ctx, cmd)
	if err != nil {
		logger.Error("tool execution failed", "tool", t.Name, "error", err)
		return t.executionFailure(cmd, res, err)
	}

	c := t.Table.Classify(res)
	logger.Info("tool finished", "tool", t.Name, "verdict", c.Verdict, "exitStatus", res.ExitStatus, "duration", res.Duration)

	return Outcome{
		Verdict: c.Verdict,
		Report:  t.populate(cmd, res, c),
	}
}

func (t *Tool) buildArgs(additionalArgs []string) []string {
	var args []string
	args = append(args, t.Args...)
	args = append(args, additionalArgs...)
	return args
}

func (t *Tool) logger() hclog.Logger {
	if t.Logger == nil {
		return hclog.NewNullLogger()
	}
	return t.Logger
}

func (t *Tool) describer() Describer {
	if t.Describer == nil {
		return DefaultDescriber{}
	}
	return t.Describer
}

// executionFailure builds the report for a tool that could not be started at all.
func (t *Tool) executionFailure(cmd executor.Command, res executor.Result, err error) Outcome {
	msg := fmt.Sprintf("%s could not be executed: %v", t.Name, err)
	if errors.Is(err, executor.ErrWorkDir) {
		msg = fmt.Sprintf("target %s cannot be scanned: %v", cmd.Dir, err)
	}

	b := report.NewBuilder().
		Fail().
		AddInfo(report.InfoTool, t.Name).
		AddInfo(report.InfoCommand, cmd.String()).
		AddInfo(report.InfoVerdict, verdict.FailedToolError.String()).
		AddInfo(report.InfoStdout, res.Stdout).
		AddInfo(report.InfoStderr, res.Stderr).
		AddError(msg)

	return Outcome{
		Verdict: verdict.FailedToolError,
		Report:  b.Build(),
	}
}

// populate writes the classification into a report.
func (t *Tool) populate(cmd executor.Command, res executor.Result, c verdict.Classification) report.Report {
	b := report.NewBuilder().
		AddInfo(report.InfoTool, t.Name).
		AddInfo(report.InfoCommand, cmd.String()).
		AddInfo(report.InfoVerdict, c.Verdict.String()).
		AddInfo(report.InfoExitStatus, strconv.Itoa(res.ExitStatus)).
		AddInfo(report.InfoDuration, res.Duration.String()).
		AddInfo(report.InfoStdout, res.Stdout).
		AddInfo(report.InfoStderr, res.Stderr)

	desc := t.describer().Describe(t.Name, c, res)

	if c.Verdict.IsPassed() {
		b.Pass()
	} else {
		b.Fail()
		if len(desc.Errors) == 0 {
			desc.Errors = DefaultDescriber{}.Describe(t.Name, c, res).Errors
		}
		for _, e := range desc.Errors {
			b.AddError(e)
		}
	}

	b.Log("verdict", c.Verdict.String())
	b.Log("findings", strings.Join(desc.Excerpts, "\n"))
	b.Log("stdout", res.Stdout)
	b.Log("stderr", res.Stderr)

	return b.Build()
}

// DefaultDescriber words a classification using only the matched marker text.
type DefaultDescriber struct{}

// Describe implements Describer.
func (DefaultDescriber) Describe(tool string, c verdict.Classification, res executor.Result) Description {
	var d Description

	switch c.Verdict {
	case verdict.Passed:
		return d
	case verdict.FailedToolError:
		switch {
		case len(c.Matches) > 0:
			d.Errors = append(d.Errors, fmt.Sprintf("%s could not scan the target: %s", tool, strings.Join(c.Phrases(), "; ")))
		case res.TimedOut:
			d.Errors = append(d.Errors, fmt.Sprintf("%s timed out after %s; stderr: %s", tool, res.Duration.Round(time.Millisecond), strings.TrimSpace(res.Stderr)))
		default:
			d.Errors = append(d.Errors, fmt.Sprintf("%s exited with status %d without a recognizable result; stderr: %s", tool, res.ExitStatus, strings.TrimSpace(res.Stderr)))
		}
	case verdict.FailedTargetBroken:
		for _, p := range c.Phrases() {
			d.Errors = append(d.Errors, fmt.Sprintf("target project failed to build: %s", p))
		}
	case verdict.FailedWithFindings:
		d.Errors = append(d.Errors, fmt.Sprintf("%s reported %d finding(s): %s", tool, len(c.Matches), summarize(c.Matches)))
		for _, m := range c.Matches {
			d.Excerpts = append(d.Excerpts, m.Phrase())
		}
	}
	return d
}

// summarize renders "phrase (count)" pairs in first seen order.
func summarize(matches []verdict.Match) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range matches {
		p := m.Phrase()
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}
	parts := make([]string, 0, len(order))
	for _, p := range order {
		parts = append(parts, fmt.Sprintf("%s (%d)", p, counts[p]))
	}
	return strings.Join(parts, ", ")
}
