// Package client is a typed HTTP client for the royalty valuation API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
)

// Default client settings.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// Client calls the valuation API.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPollInterval sets how often WaitJob polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New creates a client for the service at baseURL, e.g. http://localhost:9080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: DefaultTimeout},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RevenueTypes fetches the revenue type catalog.
func (c *Client) RevenueTypes(ctx context.Context) ([]revenue.Info, error) {
	var out []revenue.Info
	_, err := c.do(ctx, http.MethodGet, "/revenue-types", nil, &out)
	return out, err
}

// ValuateRevenue capitalizes revenue sources remotely.
func (c *Client) ValuateRevenue(ctx context.Context, sources []revenue.RawSource) (valuation.Result, error) {
	var out valuation.Result
	_, err := c.do(ctx, http.MethodPost, "/valuations/revenue", map[string]any{"sources": sources}, &out)
	return out, err
}

// AssessRisk rates revenue sources remotely.
func (c *Client) AssessRisk(ctx context.Context, sources []revenue.RawSource) (risk.Assessment, error) {
	var out risk.Assessment
	_, err := c.do(ctx, http.MethodPost, "/valuations/risk", map[string]any{"sources": sources}, &out)
	return out, err
}

// EstimatePipeline estimates the royalty pipeline of songs remotely.
func (c *Client) EstimatePipeline(ctx context.Context, songs []pipeline.RawSong) (pipeline.Result, error) {
	var out pipeline.Result
	_, err := c.do(ctx, http.MethodPost, "/valuations/pipeline", map[string]any{"songs": songs}, &out)
	return out, err
}

// Appraise values a catalog synchronously.
func (c *Client) Appraise(ctx context.Context, catalog model.RawCatalog) (model.Report, error) {
	var out model.Report
	_, err := c.do(ctx, http.MethodPost, "/appraisals", catalog, &out)
	return out, err
}

// Submit queues a catalog appraisal.
func (c *Client) Submit(ctx context.Context, requestID string, catalog model.RawCatalog) (model.Submission, error) {
	body := struct {
		RequestID string           `json:"request_id"`
		Catalog   model.RawCatalog `json:"catalog"`
	}{requestID, catalog}

	var out model.Submission
	status, err := c.do(ctx, http.MethodPost, "/jobs", body, &out)
	if err != nil {
		return model.Submission{}, err
	}
	out.Duplicate = status == http.StatusOK
	return out, nil
}

// Job fetches the status of a job.
func (c *Client) Job(ctx context.Context, jobID string) (model.Job, error) {
	var out model.Job
	_, err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, &out)
	return out, err
}

// WaitJob polls until the job is terminal or ctx ends. A failed job is
// returned together with ErrJobFailed.
func (c *Client) WaitJob(ctx context.Context, jobID string) (model.Job, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		j, err := c.Job(ctx, jobID)
		if err != nil {
			return model.Job{}, err
		}
		switch j.Status {
		case model.JobDone:
			return j, nil
		case model.JobFailed:
			return j, fmt.Errorf("%w: %s", ErrJobFailed, j.Error)
		}
		select {
		case <-ctx.Done():
			return j, fmt.Errorf("wait for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Report fetches the stored report of a catalog.
func (c *Client) Report(ctx context.Context, catalogID string) (model.Report, error) {
	var out model.Report
	_, err := c.do(ctx, http.MethodGet, "/catalogs/"+url.PathEscape(catalogID), nil, &out)
	return out, err
}

// Rank fetches the ranking position of a catalog.
func (c *Client) Rank(ctx context.Context, catalogID string) (model.RankedEntry, error) {
	var out model.RankedEntry
	_, err := c.do(ctx, http.MethodGet, "/catalogs/"+url.PathEscape(catalogID)+"/rank", nil, &out)
	return out, err
}

// TopN fetches the n most valuable stored catalogs.
func (c *Client) TopN(ctx context.Context, n int) ([]model.RankedEntry, error) {
	var out []model.RankedEntry
	_, err := c.do(ctx, http.MethodGet, "/catalogs?limit="+strconv.Itoa(n), nil, &out)
	return out, err
}

// do sends a JSON request and decodes a JSON response into out. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
