package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

// recordingScanner records every call made by the orchestrator.
type recordingScanner struct {
	mu         sync.Mutex
	applicable bool
	setupErr   error
	scanErr    error
	panicScan  bool
	response   shared.ScannerScanResponse
	setups     int
	shouldRuns int
	scans      int
}

func (r *recordingScanner) Setup(config.Config) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setups++
	return r.setupErr == nil, r.setupErr
}

func (r *recordingScanner) ShouldRun(shared.ScannerScanRequest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldRuns++
	return r.applicable, nil
}

func (r *recordingScanner) Scan(shared.ScannerScanRequest) (shared.ScannerScanResponse, error) {
	r.mu.Lock()
	r.scans++
	r.mu.Unlock()
	if r.panicScan {
		panic("boom")
	}
	return r.response, r.scanErr
}

func newRegistry(scanners map[string]*recordingScanner) *registry.Registry {
	reg := registry.New()
	for name, sc := range scanners {
		sc := sc
		reg.Register(name, func(hclog.Logger) shared.Scanner { return sc })
	}
	return reg
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Scanio: config.Scanio{PluginsFolder: t.TempDir()}}
}

func passedResponse() shared.ScannerScanResponse {
	return shared.ScannerScanResponse{
		Verdict: verdict.Passed.String(),
		Report:  report.NewBuilder().Pass().Build(),
	}
}

func TestScanRepoSkipsWhenNotApplicable(t *testing.T) {
	rec := &recordingScanner{applicable: false, response: passedResponse()}
	s := New(newRegistry(map[string]*recordingScanner{"fake": rec}), Options{Jobs: 1}, nil)

	result, err := s.ScanRepo(context.Background(), testConfig(t), t.TempDir())
	require.NoError(t, err)

	require.Len(t, result.Launches, 1)
	launch := result.Launches[0]
	assert.Equal(t, "SKIPPED", launch.Status)
	assert.Nil(t, launch.Result)
	assert.Equal(t, 1, rec.shouldRuns)
	assert.Zero(t, rec.scans, "scan must not run when the predicate is false")
	assert.False(t, result.Failed())
}

func TestScanRepoForceRunsAnyway(t *testing.T) {
	rec := &recordingScanner{applicable: false, response: passedResponse()}
	s := New(newRegistry(map[string]*recordingScanner{"fake": rec}), Options{Jobs: 1, Force: true}, nil)

	result, err := s.ScanRepo(context.Background(), testConfig(t), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.scans)
	assert.Equal(t, "PASSED", result.Launches[0].Status)
}

func TestScanRepoCarriesVerdictAndReport(t *testing.T) {
	rec := &recordingScanner{
		applicable: true,
		response: shared.ScannerScanResponse{
			Verdict: verdict.FailedWithFindings.String(),
			Report:  report.NewBuilder().Fail().AddError("fake reported 1 finding(s): x (1)").Build(),
		},
	}
	s := New(newRegistry(map[string]*recordingScanner{"fake": rec}), Options{Jobs: 1, AdditionalArgs: []string{"-v"}}, nil)

	target := t.TempDir()
	result, err := s.ScanRepo(context.Background(), testConfig(t), target)
	require.NoError(t, err)

	launch := result.Launches[0]
	assert.Equal(t, "FAILED_WITH_FINDINGS", launch.Status)
	assert.Equal(t, shared.SourceBuiltin, launch.Source)
	assert.Equal(t, "fake reported 1 finding(s): x (1)", launch.Message)
	assert.Equal(t, target, launch.Args.TargetPath)
	assert.Equal(t, []string{"-v"}, launch.Args.AdditionalArgs)
	require.NotNil(t, launch.Result)
	assert.False(t, launch.Result.Passed)
	assert.NotEmpty(t, launch.ID)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, result.Failed())
}

func TestScanRepoFailures(t *testing.T) {
	tests := []struct {
		name        string
		scanner     *recordingScanner
		wantMessage string
	}{
		{
			name:        "Setup error",
			scanner:     &recordingScanner{applicable: true, setupErr: errors.New("bad markers")},
			wantMessage: "scanner setup failed: bad markers",
		},
		{
			name:        "Scan error",
			scanner:     &recordingScanner{applicable: true, scanErr: errors.New("target path is required")},
			wantMessage: "scan failed: target path is required",
		},
		{
			name:        "Panic is recovered",
			scanner:     &recordingScanner{applicable: true, panicScan: true},
			wantMessage: "scanner fake panicked: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newRegistry(map[string]*recordingScanner{"fake": tt.scanner}), Options{Jobs: 1}, nil)

			result, err := s.ScanRepo(context.Background(), testConfig(t), t.TempDir())
			require.NoError(t, err)

			launch := result.Launches[0]
			assert.Equal(t, "FAILED_TOOL_ERROR", launch.Status)
			assert.Equal(t, tt.wantMessage, launch.Message)
			assert.Nil(t, launch.Result)
		})
	}
}

func TestScanRepoDisabledScanner(t *testing.T) {
	rec := &recordingScanner{applicable: true, response: passedResponse()}
	s := New(newRegistry(map[string]*recordingScanner{"fake": rec}), Options{Jobs: 1}, nil)

	cfg := testConfig(t)
	cfg.Scanners = map[string]config.ScannerConfig{"fake": {Disabled: true}}

	result, err := s.ScanRepo(context.Background(), cfg, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "SKIPPED", result.Launches[0].Status)
	assert.Zero(t, rec.setups)
}

func TestScanRepoCancelledContext(t *testing.T) {
	rec := &recordingScanner{applicable: true, response: passedResponse()}
	s := New(newRegistry(map[string]*recordingScanner{"fake": rec}), Options{Jobs: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.ScanRepo(ctx, testConfig(t), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "FAILED_TOOL_ERROR", result.Launches[0].Status)
	assert.Contains(t, result.Launches[0].Message, "launch cancelled")
	assert.Zero(t, rec.scans)
}

func TestScanRepoConcurrentLaunchesAreSorted(t *testing.T) {
	scanners := map[string]*recordingScanner{
		"zeta":  {applicable: true, response: passedResponse()},
		"alpha": {applicable: false},
		"mid":   {applicable: true, response: passedResponse()},
	}
	s := New(newRegistry(scanners), Options{Jobs: 3}, nil)

	result, err := s.ScanRepo(context.Background(), testConfig(t), t.TempDir())
	require.NoError(t, err)

	require.Len(t, result.Launches, 3)
	assert.Equal(t, "alpha", result.Launches[0].Scanner)
	assert.Equal(t, "mid", result.Launches[1].Scanner)
	assert.Equal(t, "zeta", result.Launches[2].Scanner)
	assert.Equal(t, map[string]int{"SKIPPED": 1, "PASSED": 2}, result.Counts())

	ids := map[string]struct{}{}
	for _, l := range result.Launches {
		ids[l.ID] = struct{}{}
	}
	assert.Len(t, ids, 3)
}

func TestResolve(t *testing.T) {
	reg := newRegistry(map[string]*recordingScanner{"fake": {}, "other": {}})
	cfg := testConfig(t)

	names, err := New(reg, Options{}, nil).Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"fake", "other"}, names)

	names, err = New(reg, Options{Scanners: []string{"other", " other ", "fake"}}, nil).Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "fake"}, names)

	_, err = New(reg, Options{Scanners: []string{"bandit"}}, nil).Resolve(cfg)
	assert.ErrorIs(t, err, registry.ErrUnknownScanner)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Scanio.PluginsFolder, "bandit"), []byte("#!/bin/sh\n"), 0o755))
	names, err = New(reg, Options{Scanners: []string{"bandit"}}, nil).Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"bandit"}, names)

	_, err = New(registry.New(), Options{}, nil).Resolve(cfg)
	assert.ErrorContains(t, err, "no scanners to run")
}

func TestScanRepoBuiltinGosecSkipsNonGoTarget(t *testing.T) {
	t.Setenv("SCANIO_GOSEC_BINARY", filepath.Join(t.TempDir(), "missing-gosec"))

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "app.py"), []byte("print('hi')\n"), 0o644))

	s := New(registry.Default(), Options{Jobs: 1}, nil)
	result, err := s.ScanRepo(context.Background(), testConfig(t), target)
	require.NoError(t, err)

	require.Len(t, result.Launches, 1)
	assert.Equal(t, "gosec", result.Launches[0].Scanner)
	assert.Equal(t, "SKIPPED", result.Launches[0].Status)
	assert.Equal(t, target, result.Target.Path)
}
