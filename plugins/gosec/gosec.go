package main

import (
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/scanio-gate/internal/scanners/gosec"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

func main() {
	logger := shared.PluginLogger(gosec.PluginName)

	gosecInstance := gosec.New(logger)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeScanner: &shared.ScannerPlugin{Impl: gosecInstance},
		},
		Logger: logger,
	})
}
