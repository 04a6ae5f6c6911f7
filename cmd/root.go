package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-gate/cmd/scan"
	"github.com/scan-io-git/scanio-gate/cmd/scanners"
	"github.com/scan-io-git/scanio-gate/cmd/version"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/errors"
	"github.com/scan-io-git/scanio-gate/pkg/shared/logger"
)

const configEnv = "SCANIO_GATE_CONFIG"

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "scanio-gate [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Scanio-gate runs static analysis scanners and classifies their results.",
		Long: `Scanio-gate runs static analysis scanners against a repository and turns
	the raw output of each tool into a uniform pass/fail report.
	It separates findings from tool failures and from projects that do not build.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default is $SCANIO_GATE_CONFIG or config.yml)")
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(scanners.NewScannersCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		if cmdErr, ok := err.(*errors.CommandError); ok {
			return cmdErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCodeUsage
	}
	return errors.ExitCodeOK
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = os.Getenv(configEnv)
	}
	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config file %q: %v\n", cfgFile, err)
		os.Exit(errors.ExitCodeUsage)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCodeUsage)
	}

	scan.Init(AppConfig, logger.NewLogger(AppConfig, "core-scan"))
	scanners.Init(AppConfig)
	version.Init(AppConfig)
}
