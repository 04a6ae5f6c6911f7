package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

var (
	// ErrToolNotFound is returned when the tool binary cannot be resolved or started.
	ErrToolNotFound = errors.New("tool could not be executed")
	// ErrWorkDir is returned when the working directory is missing or not a directory.
	ErrWorkDir = errors.New("working directory is not usable")
	// ErrStart covers any other failure to start the subprocess.
	ErrStart = errors.New("tool could not be started")
)

// pipeWaitDelay bounds how long output is drained after the tool exits or is killed.
// Children of the tool that inherited its stdout would otherwise block the run.
const pipeWaitDelay = 2 * time.Second

// Command describes one subprocess invocation.
type Command struct {
	Name    string        // Binary name or path
	Args    []string      // Arguments passed to the binary
	Dir     string        // Working directory of the subprocess
	Env     []string      // Extra environment variables in KEY=VALUE form
	Timeout time.Duration // Zero means no timeout
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured outcome of a finished subprocess.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
	Duration   time.Duration
	TimedOut   bool
}

// Executor runs commands and captures their streams.
type Executor struct {
	logger hclog.Logger
}

// New creates an Executor. Subprocess output is mirrored to logger at debug level.
func New(logger hclog.Logger) *Executor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Executor{logger: logger}
}

// LookPath resolves the binary of a command without running it.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}
	return path, nil
}

// Execute runs cmd in cmd.Dir and waits for it.
// A nonzero exit status is reported in Result, not as an error.
// Errors are an unusable working directory, an unresolvable binary, a failed start
// or a context that is already done.
func (e *Executor) Execute(ctx context.Context, cmd Command) (Result, error) {
	var result Result

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := checkWorkDir(cmd.Dir); err != nil {
		return result, err
	}

	path, err := LookPath(cmd.Name)
	if err != nil {
		return result, err
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = pipeWaitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	logWriter := e.logger.StandardWriter(&hclog.StandardLoggerOptions{
		ForceLevel: hclog.Debug,
	})
	c.Stdout = io.MultiWriter(&stdout, logWriter)
	c.Stderr = io.MultiWriter(&stderr, logWriter)

	e.logger.Debug("executing command", "cmd", cmd.String(), "dir", cmd.Dir)

	start := time.Now()
	runErr := c.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if errors.Is(runErr, exec.ErrWaitDelay) {
		// the tool exited cleanly, a leftover child held its output open
		e.logger.Warn("tool output was still open after exit", "cmd", cmd.String())
		runErr = nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return result, startError(runErr)
		}
		result.ExitStatus = exitErr.ExitCode()
		if result.ExitStatus < 0 {
			// killed by a signal
			result.ExitStatus = -1
		}
	}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
	}

	e.logger.Debug("command finished", "cmd", cmd.String(), "exitStatus", result.ExitStatus, "duration", result.Duration)
	return result, nil
}

func checkWorkDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrWorkDir, dir)
	}
	return nil
}

// startError maps a failed start to the binary or to a generic start failure.
func startError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrStart, err)
}
