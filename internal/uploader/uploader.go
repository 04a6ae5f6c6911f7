package uploader

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/httpclient"
)

// ErrNoEndpoint is returned when no upload URL is configured.
var ErrNoEndpoint = errors.New("upload url is not configured")

// Uploader posts aggregate scan results to a collector endpoint.
type Uploader struct {
	client *resty.Client
	url    string
	token  string
	logger hclog.Logger
}

// New creates an Uploader from the upload and http_client sections of cfg.
func New(logger hclog.Logger, cfg *config.Config) (*Uploader, error) {
	if cfg == nil || cfg.Upload.URL == "" {
		return nil, ErrNoEndpoint
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Uploader{
		client: httpclient.InitializeRestyClient(logger, cfg),
		url:    cfg.Upload.URL,
		token:  cfg.Upload.Token,
		logger: logger,
	}, nil
}

// Upload sends result as JSON. Any non 2xx response is an error.
func (u *Uploader) Upload(ctx context.Context, result shared.LaunchesResult) error {
	req := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Scanio-Run-Id", result.RunID).
		SetBody(result)
	if u.token != "" {
		req.SetAuthToken(u.token)
	}

	u.logger.Info("uploading results", "url", u.url, "runId", result.RunID, "launches", len(result.Launches))
	resp, err := req.Post(u.url)
	if err != nil {
		return fmt.Errorf("failed to upload results to %q: %w", u.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload to %q failed with status %d: %s", u.url, resp.StatusCode(), resp.String())
	}

	u.logger.Debug("results uploaded", "status", resp.StatusCode())
	return nil
}
