package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/internal/metadata"
	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

// Options controls which scanners run and how they are invoked.
type Options struct {
	Scanners       []string          // Scanner names, every registered scanner when empty
	ConfigPath     string            // Path to the configuration file for the tools
	AdditionalArgs []string          // Additional arguments for the tools
	ScanOptions    map[string]string // Scanner specific options
	Jobs           int               // Number of concurrent launches
	Force          bool              // Run scanners whose applicability predicate is false
}

// Scanner gates, runs and aggregates scanner launches against one target.
type Scanner struct {
	registry *registry.Registry
	options  Options
	logger   hclog.Logger
	newID    func() string
}

// New creates a new Scanner instance with the provided registry and options.
func New(reg *registry.Registry, options Options, logger hclog.Logger) *Scanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{
		registry: reg,
		options:  options,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Resolve returns the deduplicated scanner names to launch.
// A name is valid when a plugin binary with that name exists or the registry knows it.
func (s *Scanner) Resolve(cfg *config.Config) ([]string, error) {
	names := s.options.Scanners
	if len(names) == 0 {
		names = s.registry.Names()
	}

	var resolved []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || shared.IsInList(name, resolved) {
			continue
		}
		if _, ok := shared.PluginPath(cfg, name); !ok {
			if _, err := s.registry.Lookup(name); err != nil {
				return nil, err
			}
		}
		resolved = append(resolved, name)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("no scanners to run")
	}
	return resolved, nil
}

// ScanRepo runs every resolved scanner against targetPath and returns the aggregated results ordered by scanner name.
func (s *Scanner) ScanRepo(ctx context.Context, cfg *config.Config, targetPath string) (shared.LaunchesResult, error) {
	names, err := s.Resolve(cfg)
	if err != nil {
		return shared.LaunchesResult{}, err
	}

	results := shared.LaunchesResult{
		RunID:     s.newID(),
		StartedAt: time.Now().UTC(),
		Target:    metadata.Collect(s.logger, targetPath),
	}
	s.logger.Info("scan starting", "target", targetPath, "scanners", names, "goroutines", s.options.Jobs, "runID", results.RunID)

	resultsChannel := make(chan shared.LaunchResult, len(names))
	values := make([]interface{}, len(names))
	for i := range names {
		values[i] = names[i]
	}

	shared.ForEveryStringWithBoundedGoroutines(s.options.Jobs, values, func(i int, value interface{}) {
		name, ok := value.(string)
		if !ok {
			s.logger.Error("invalid scanner name type")
			return
		}
		s.logger.Debug("goroutine started", "#", i+1, "scanner", name)
		resultsChannel <- s.launch(ctx, cfg, name, s.scanRequest(targetPath))
	})

	close(resultsChannel)
	for result := range resultsChannel {
		results.Launches = append(results.Launches, result)
	}
	results.SortLaunches()

	s.logger.Info("scan finished", "target", targetPath, "counts", results.Counts())
	return results, nil
}

func (s *Scanner) scanRequest(targetPath string) shared.ScannerScanRequest {
	return shared.ScannerScanRequest{
		TargetPath:     targetPath,
		ConfigPath:     s.options.ConfigPath,
		AdditionalArgs: s.options.AdditionalArgs,
		Options:        s.options.ScanOptions,
	}
}

// launch runs a single scanner. Every failure, including a panic, becomes a tool error launch.
func (s *Scanner) launch(ctx context.Context, cfg *config.Config, name string, req shared.ScannerScanRequest) (launch shared.LaunchResult) {
	launch = shared.LaunchResult{
		ID:      s.newID(),
		Scanner: name,
		Source:  shared.SourceBuiltin,
		Args:    req,
	}
	logger := s.logger.Named(name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("scanner panicked", "panic", r)
			launch.Result = nil
			fail(&launch, fmt.Errorf("scanner %s panicked: %v", name, r))
		}
		launch.Duration = time.Since(start)
		logger.Info("launch finished", "status", launch.Status, "duration", launch.Duration)
	}()

	if err := ctx.Err(); err != nil {
		fail(&launch, fmt.Errorf("launch cancelled: %w", err))
		return launch
	}

	if cfg.Scanner(name).Disabled {
		launch.Status = verdict.Skipped.String()
		launch.Message = "scanner is disabled in the configuration"
		return launch
	}

	if _, ok := shared.PluginPath(cfg, name); ok {
		launch.Source = shared.SourcePlugin
		err := shared.WithPlugin(cfg, "plugin-"+name, shared.PluginTypeScanner, name, func(raw interface{}) error {
			sc, ok := raw.(shared.Scanner)
			if !ok {
				return fmt.Errorf("invalid plugin type")
			}
			s.run(cfg, sc, &launch, logger)
			return nil
		})
		if err != nil {
			logger.Error("scanner plugin failed", "error", err)
			fail(&launch, err)
		}
		return launch
	}

	factory, err := s.registry.Lookup(name)
	if err != nil {
		fail(&launch, err)
		return launch
	}
	s.run(cfg, factory(logger), &launch, logger)
	return launch
}

// run applies the applicability gate and scans when it allows.
func (s *Scanner) run(cfg *config.Config, sc shared.Scanner, launch *shared.LaunchResult, logger hclog.Logger) {
	configData := config.Config{}
	if cfg != nil {
		configData = *cfg
	}
	if _, err := sc.Setup(configData); err != nil {
		fail(launch, fmt.Errorf("scanner setup failed: %w", err))
		return
	}

	applicable, err := sc.ShouldRun(launch.Args)
	if err != nil {
		fail(launch, fmt.Errorf("applicability check failed: %w", err))
		return
	}
	if !applicable {
		if !s.options.Force {
			logger.Info("no applicable files, skipping", "target", launch.Args.TargetPath)
			launch.Status = verdict.Skipped.String()
			launch.Message = "no applicable files found in the target"
			return
		}
		logger.Warn("no applicable files, running anyway", "target", launch.Args.TargetPath)
	}

	resp, err := sc.Scan(launch.Args)
	if err != nil {
		fail(launch, fmt.Errorf("scan failed: %w", err))
		return
	}

	launch.Status = resp.Verdict
	launch.Message = strings.Join(resp.Report.ErrorMessages(), "; ")
	report := resp.Report
	launch.Result = &report
}

func fail(launch *shared.LaunchResult, err error) {
	launch.Status = verdict.FailedToolError.String()
	launch.Message = err.Error()
}
