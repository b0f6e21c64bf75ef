package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/config"
	"fleet-service/internal/model"
)

// DirectoryClient talks to the external resource/operator directory. The
// directory owns truck, equipment and driver records; this service never
// mutates them.
type DirectoryClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewDirectoryClient(cfg *config.Config) *DirectoryClient {
	return &DirectoryClient{
		baseURL:       cfg.Directory.BaseURL,
		internalToken: cfg.Directory.InternalToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *DirectoryClient) GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var out struct {
		Data model.Resource `json:"data"`
	}
	if err := c.get(ctx, "/internal/resources/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *DirectoryClient) ListResources(ctx context.Context, kind model.ResourceKind) ([]model.Resource, error) {
	query := url.Values{}
	if kind != "" {
		query.Set("kind", string(kind))
	}
	var out struct {
		Data []model.Resource `json:"data"`
	}
	if err := c.get(ctx, "/internal/resources", query, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *DirectoryClient) GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	var out struct {
		Data model.Operator `json:"data"`
	}
	if err := c.get(ctx, "/internal/operators/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *DirectoryClient) ListOperators(ctx context.Context) ([]model.Operator, error) {
	var out struct {
		Data []model.Operator `json:"data"`
	}
	if err := c.get(ctx, "/internal/operators", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ErrDirectoryNotFound reports a 404 from the directory so services can
// translate it into their own not-found error.
var ErrDirectoryNotFound = fmt.Errorf("directory: not found")

func (c *DirectoryClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("directory service URL is not configured")
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid directory service URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrDirectoryNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
