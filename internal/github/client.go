package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiVersion     = "2022-11-28"
	defaultBaseURL = "https://api.github.com"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com".
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with a
	// 15 second timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed GitHub REST API client. Credentials are passed per call
// so one Client serves every user and installation.
//
// WHY PER-CALL CREDENTIALS?
// A client bound to one token would have to be rebuilt for every user and
// every installation token. Passing the credential with each call keeps a
// single Client (and its connection pool) for the whole process. The typed
// credential parameters stop a user token from reaching an endpoint that
// expects an App assertion.
type Client struct {
	baseURL    string
	base       *url.URL // parsed baseURL; pagination links must stay on its origin
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return nil, fmt.Errorf("github: invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		base:       parsed,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// do executes an authenticated request against path (relative to the base
// URL) and decodes a 2xx JSON body into result. Non-2xx responses become
// an *APIError or *RateLimitError.
func (c *Client) do(ctx context.Context, cred credential, method, path string, requestBody, result any) error {
	body, _, err := c.doURL(ctx, cred, method, c.baseURL+path, requestBody)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// doURL is do for an absolute URL. It returns the raw body and headers so
// pagination can read the Link header.
func (c *Client) doURL(ctx context.Context, cred credential, method, rawURL string, requestBody any) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("github: creating request: %w", err)
	}
	req.Header.Set("Authorization", cred.authorization())
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("github: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("github: reading response body: %w", err)
	}

	c.logger.Debug("github request",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"rate_limit_remaining", resp.Header.Get("X-RateLimit-Remaining"),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, parseAPIError(resp.StatusCode, resp.Header, body)
	}
	return body, resp.Header, nil
}
