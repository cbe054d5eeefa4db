package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contact-scrape-go/pkg/models"

	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseURL      = "http://localhost:3000"
	defaultBasePath     = "/api/scraping"
	defaultTimeout      = 60 * time.Second
	defaultRetryBackoff = 250 * time.Millisecond
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	BasePath     string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client is an HTTP client for the scraping/discovery backend. It
// implements Service and registry.Source.
type Client struct {
	baseURL      string
	basePath     string
	apiKey       string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a new backend client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	basePath := strings.TrimSuffix(opts.BasePath, "/")
	if opts.BasePath == "" {
		basePath = defaultBasePath
	}
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:      baseURL,
		basePath:     basePath,
		apiKey:       opts.APIKey,
		httpClient:   httpClient,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		logger:       logger,
	}
}

// CheckHealth verifies the service is available
func (c *Client) CheckHealth(ctx context.Context) error {
	const op = "health"
	req, err := c.buildRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return newInvalidRequestError(op, "failed to create request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newServiceUnavailableError(op, resp.StatusCode, fmt.Errorf("service unhealthy: status %d", resp.StatusCode))
	}
	return nil
}

// DiscoverOne asks the backend to find a candidate website for one contact.
func (c *Client) DiscoverOne(ctx context.Context, contactID int64) (models.DiscoveryResult, error) {
	const op = "discover"
	result := models.DiscoveryResult{ContactID: contactID}

	var env envelope[DiscoverData]
	if err := c.call(ctx, op, http.MethodPost, c.endpoint("/discover/%d", contactID), nil, &env); err != nil {
		return result, err
	}
	if !env.Success {
		return result, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		return result, newInvalidResponseError(op, "missing discovery data", nil)
	}

	result.BusinessName = env.Data.BusinessName
	result.DiscoveredWebsite = strings.TrimSpace(env.Data.DiscoveredWebsite)
	result.SearchQuery = env.Data.SearchQuery
	if result.DiscoveredWebsite == "" {
		result.Message = "no website discovered"
		return result, nil
	}
	result.Success = true
	result.Confidence = models.ParseConfidence(env.Data.Confidence)
	return result, nil
}

// DiscoverBatch discovers websites for up to limit contacts of an upload.
func (c *Client) DiscoverBatch(ctx context.Context, uploadID int64, limit int) (models.BatchDiscoveryResult, error) {
	const op = "discover_batch"
	result := models.BatchDiscoveryResult{UploadID: uploadID}
	if limit <= 0 {
		return result, newInvalidRequestError(op, "limit must be positive", nil)
	}

	path := c.endpoint("/discoverBatch/%d", uploadID) + "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	var env envelope[DiscoverBatchData]
	if err := c.call(ctx, op, http.MethodPost, path, nil, &env); err != nil {
		return result, err
	}
	if !env.Success {
		return result, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		return result, newInvalidResponseError(op, "missing batch discovery data", nil)
	}

	result.Results = make([]models.DiscoveryResult, 0, len(env.Data.Results))
	for _, entry := range env.Data.Results {
		result.Results = append(result.Results, entry.toModel())
	}
	return result, nil
}

// ScrapeOne scrapes a single contact, optionally forcing the target URL.
// A backend verdict of "scrape failed" is returned as an unsuccessful
// outcome, not as an error.
func (c *Client) ScrapeOne(ctx context.Context, contactID int64, urlOverride string) (models.ScrapeOutcome, error) {
	const op = "scrape"
	outcome := models.ScrapeOutcome{ContactID: contactID}

	var payload any
	if override := strings.TrimSpace(urlOverride); override != "" {
		payload = ScrapeRequest{URLOverride: override}
	}

	var env envelope[ScrapeData]
	if err := c.call(ctx, op, http.MethodPost, c.endpoint("/scrape/%d", contactID), payload, &env); err != nil {
		return outcome, err
	}
	if !env.Success {
		return outcome, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		outcome.Success = true
		outcome.Message = env.Message
		return outcome, nil
	}

	outcome.Success = env.Data.Success
	outcome.Message = env.Data.Message
	outcome.Data = env.Data.Data
	if !outcome.Success && outcome.Message == "" {
		outcome.Message = "scrape failed"
	}
	return outcome, nil
}

// ScrapeBatch scrapes up to limit contacts of an upload, applying the
// per-contact URL overrides.
func (c *Client) ScrapeBatch(ctx context.Context, uploadID int64, limit int, overrides map[int64]string) (models.ScrapeBatchOutcome, error) {
	const op = "scrape_batch"
	var result models.ScrapeBatchOutcome
	if limit <= 0 {
		return result, newInvalidRequestError(op, "limit must be positive", nil)
	}

	payload := ScrapeBatchRequest{UploadID: uploadID, Limit: limit}
	if len(overrides) > 0 {
		payload.URLOverrides = overrides
	}

	var env envelope[ScrapeBatchData]
	if err := c.call(ctx, op, http.MethodPost, c.endpoint("/scrapeBatch"), payload, &env); err != nil {
		return result, err
	}
	if !env.Success {
		return result, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		return result, newInvalidResponseError(op, "missing batch scrape data", nil)
	}

	result.Results = make([]models.ScrapeOutcome, 0, len(env.Data.Results))
	for _, entry := range env.Data.Results {
		result.Results = append(result.Results, entry.toModel())
	}
	result.Summary = env.Data.Summary
	if result.Summary.Total == 0 && len(result.Results) > 0 {
		result.Summary = models.Summarize(result.Results)
	}
	return result, nil
}

// ResetContact moves a contact back to a scrapeable state and returns the
// status the backend reports for it.
func (c *Client) ResetContact(ctx context.Context, contactID int64) (models.ScrapeStatus, error) {
	const op = "reset_contact"
	var env envelope[ResetData]
	if err := c.call(ctx, op, http.MethodPost, c.endpoint("/resetContact/%d", contactID), nil, &env); err != nil {
		return models.StatusUnknown, err
	}
	if !env.Success {
		return models.StatusUnknown, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		return models.StatusUnknown, nil
	}
	return models.ClassifyStatus(env.Data.Status), nil
}

// ListContacts fetches the authoritative contact list.
func (c *Client) ListContacts(ctx context.Context, q models.ContactQuery) ([]models.Contact, error) {
	const op = "list_contacts"
	params := url.Values{}
	if q.UploadID > 0 {
		params.Set("uploadId", strconv.FormatInt(q.UploadID, 10))
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	path := c.endpoint("/contacts")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var env envelope[ContactsData]
	if err := c.call(ctx, op, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, newRemoteError(op, http.StatusOK, env.failureMessage())
	}
	if env.Data == nil {
		return nil, nil
	}
	return env.Data.Contacts, nil
}

func (c *Client) endpoint(format string, args ...any) string {
	return c.basePath + fmt.Sprintf(format, args...)
}

// buildRequest creates an HTTP request with proper headers
func (c *Client) buildRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// call performs one logical backend call, retrying transient failures with
// exponential backoff.
func (c *Client) call(ctx context.Context, op, method, path string, payload, result any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return newInvalidRequestError(op, "failed to marshal request", err)
		}
		body = data
	}

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryBackoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.doOnce(ctx, op, method, path, body, result)
		if err != nil && IsRetryable(err) {
			c.logger.WarnContext(ctx, "scraper call failed",
				"op", op,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return classifyTransportError(op, err)
	}
	return nil
}

// doOnce performs an HTTP request and handles the response
func (c *Client) doOnce(ctx context.Context, op, method, path string, body []byte, result any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := c.buildRequest(ctx, method, path, reader)
	if err != nil {
		return newInvalidRequestError(op, "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newNetworkError(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, resp.StatusCode, errorMessage(data, resp.Status))
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return newInvalidResponseError(op, "failed to decode response", err)
		}
	}
	return nil
}

// errorMessage extracts a message from an error response body.
func errorMessage(body []byte, fallback string) string {
	var errorResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if errorResp.Message != "" {
			return errorResp.Message
		}
		if errorResp.Error != "" {
			return errorResp.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fallback
}
