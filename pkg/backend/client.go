package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// ErrBackendResponse is returned for non-200 responses
var ErrBackendResponse = errors.New("backend error")

type fieldsResponse struct {
	Fields filter.Fields `json:"fields"`
}

type recordsResponse struct {
	Records []filter.Record `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the crawler backend over HTTP
type Client struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	baseURL    string
	debug      bool
	timeout    time.Duration
	maxRecords int
}

// NewClient creates a backend client
func NewClient(log logrus.FieldLogger, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.SetDefaults()

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     cfg.KeepAlive,
	}

	return &Client{
		log:        log.WithField("component", "backend-http"),
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		debug:      cfg.Debug,
		timeout:    cfg.Timeout,
		maxRecords: cfg.MaxRecords,
	}, nil
}

// Stop closes idle connections
func (c *Client) Stop() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetFields fetches the field catalog of datasetType
func (c *Client) GetFields(ctx context.Context, datasetType string) (filter.Fields, error) {
	if datasetType == "" {
		return nil, catalog.ErrDatasetRequired
	}

	var resp fieldsResponse
	if err := c.get(ctx, datasetType, "/api/datasets/"+url.PathEscape(datasetType)+"/fields", &resp); err != nil {
		return nil, err
	}

	return resp.Fields, nil
}

// FetchRecords fetches up to limit records of datasetType. A non-positive
// limit uses the configured maximum.
func (c *Client) FetchRecords(ctx context.Context, datasetType string, limit int) ([]filter.Record, error) {
	if datasetType == "" {
		return nil, catalog.ErrDatasetRequired
	}

	if limit <= 0 || limit > c.maxRecords {
		limit = c.maxRecords
	}

	path := "/api/datasets/" + url.PathEscape(datasetType) + "/records?limit=" + strconv.Itoa(limit)

	var resp recordsResponse
	if err := c.get(ctx, datasetType, path, &resp); err != nil {
		return nil, err
	}

	return resp.Records, nil
}

func (c *Client) get(ctx context.Context, datasetType, path string, dest any) error {
	body, status, err := c.do(ctx, path)
	if err != nil {
		return &catalog.FetchError{DatasetType: datasetType, Err: err}
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", catalog.ErrUnknownDataset, datasetType)
	default:
		var errResp errorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			return &catalog.FetchError{
				DatasetType: datasetType,
				Err:         fmt.Errorf("%w (status %d): %s", ErrBackendResponse, status, errResp.Error),
			}
		}
		return &catalog.FetchError{
			DatasetType: datasetType,
			Err:         fmt.Errorf("%w (status %d): %s", ErrBackendResponse, status, string(body)),
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &catalog.FetchError{DatasetType: datasetType, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout(ctx))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.debug {
		c.log.WithField("path", path).Debug("Requesting backend")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return c.timeout
}
