package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
)

// Scanner is implemented by every tool specific scanner, built in or served as a plugin.
type Scanner interface {
	Setup(configData config.Config) (bool, error)
	ShouldRun(args ScannerScanRequest) (bool, error)
	Scan(args ScannerScanRequest) (ScannerScanResponse, error)
}

// ScannerScanRequest represents a single scan request.
type ScannerScanRequest struct {
	TargetPath     string            `json:"target_path"`               // Path to the repository root to scan
	ConfigPath     string            `json:"config_path,omitempty"`     // Path to the configuration file for the tool
	AdditionalArgs []string          `json:"additional_args,omitempty"` // Additional arguments for the tool
	Options        map[string]string `json:"options,omitempty"`         // Scanner specific options, passed through unexamined
}

// ScannerScanResponse carries the verdict and the normalized report of one scan.
type ScannerScanResponse struct {
	Verdict string        `json:"verdict"`
	Report  report.Report `json:"report"`
}

type ScannerRPCClient struct{ client *rpc.Client }

func (g *ScannerRPCClient) Setup(configData config.Config) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", configData, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *ScannerRPCClient) ShouldRun(req ScannerScanRequest) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.ShouldRun", req, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *ScannerRPCClient) Scan(req ScannerScanRequest) (ScannerScanResponse, error) {
	var resp ScannerScanResponse

	err := g.client.Call("Plugin.Scan", req, &resp)
	if err != nil {
		return resp, err
	}

	// gob does not transmit empty slices
	if resp.Report.Errors == nil {
		resp.Report.Errors = []report.Message{}
	}
	return resp, nil
}

type ScannerRPCServer struct {
	Impl Scanner
}

func (s *ScannerRPCServer) Setup(configData config.Config, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(configData)
	return err
}

func (s *ScannerRPCServer) ShouldRun(args ScannerScanRequest, resp *bool) error {
	var err error
	*resp, err = s.Impl.ShouldRun(args)
	return err
}

func (s *ScannerRPCServer) Scan(args ScannerScanRequest, resp *ScannerScanResponse) error {
	var err error
	*resp, err = s.Impl.Scan(args)
	return err
}

// ScannerPlugin is the go-plugin glue for Scanner implementations.
type ScannerPlugin struct {
	Impl Scanner
}

func (p *ScannerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ScannerRPCServer{Impl: p.Impl}, nil
}

func (ScannerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ScannerRPCClient{client: c}, nil
}
