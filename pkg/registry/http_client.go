package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config mirrors pkg/waldur's Config shape: base URL plus timeout, scaled
// down to what this simpler registry client needs.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultTimeout matches pkg/waldur's DefaultConfig's request timeout.
const DefaultTimeout = 30 * time.Second

// HTTPClient is a RegistryAdapter backed by an external HTTP service
// exposing /v1/block, /v1/mrenclave, and /v1/mrsigner.
type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewHTTPClient builds an HTTPClient against cfg.BaseURL.
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type blockResponse struct {
	BlockNumber uint64 `json:"block_number"`
}

// CurrentBlockNumber implements handover.RegistryAdapter.
func (c *HTTPClient) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	var out blockResponse
	if err := c.getJSON(ctx, "/v1/block", &out); err != nil {
		return 0, err
	}
	return out.BlockNumber, nil
}

// MrenclaveRegistry implements handover.RegistryAdapter.
func (c *HTTPClient) MrenclaveRegistry(ctx context.Context) (map[string]uint64, error) {
	var out map[string]uint64
	if err := c.getJSON(ctx, "/v1/mrenclave", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MrsignerRegistry implements handover.RegistryAdapter.
func (c *HTTPClient) MrsignerRegistry(ctx context.Context) (map[string]uint64, error) {
	var out map[string]uint64
	if err := c.getJSON(ctx, "/v1/mrsigner", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return ErrUnavailable.Wrap(err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrUnavailable.Wrap(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrUnavailable.Wrap(fmt.Sprintf("%s returned status %d", path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrInvalidResponse.Wrap(err.Error())
	}
	return nil
}
