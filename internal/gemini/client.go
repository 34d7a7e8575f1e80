// Package gemini implements a minimal client for the Google Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

// ErrNoAPIKey is returned before any network call when the client has no key.
var ErrNoAPIKey = errors.New("gemini: API key not configured")

// Client represents a Google Gemini API client
type Client struct {
	apiKey       string
	baseURL      string
	apiVersion   string
	defaultModel string
	maxTokens    int
	temperature  *float64
	maxRetries   int
	httpClient   *http.Client
	logger       *loggy.Logger
}

// NewClient creates a new Gemini client from config
func NewClient(cfg config.GeminiConfig, logger *loggy.Logger) *Client {
	temperature := cfg.Temperature

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiVersion:   cfg.APIVersion,
		defaultModel: cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  &temperature,
		maxRetries:   cfg.MaxRetries,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.defaultModel
}

// GenerateContent sends a single-turn prompt to the configured model and
// returns the raw text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	req := GenerateRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: prompt}},
			},
		},
		GenerationConfig: &GenerationConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temperature,
		},
	}

	var resp GenerateResponse
	path := fmt.Sprintf("models/%s:generateContent", c.defaultModel)
	if err := c.makeRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return resp.Text(), nil
}

// makeRequest makes a request to the Gemini API with exponential backoff on
// retryable failures (429 and 5xx).
func (c *Client) makeRequest(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, strings.TrimPrefix(path, "/"))

	var requestBytes []byte
	if requestBody != nil {
		var err error
		requestBytes, err = json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
	}

	c.logger.Debug("Sending Gemini request",
		"method", method,
		"url", url,
		"model", c.defaultModel,
		"body_length", len(requestBytes))

	var lastErr error
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(requestBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")

		// API key goes in a query parameter, never a header
		q := req.URL.Query()
		q.Add("key", c.apiKey)
		req.URL.RawQuery = q.Encode()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("sending request: %w", err)
			return lastErr
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			return lastErr
		}

		c.logger.Debug("Gemini API response",
			"status", resp.Status,
			"content_length", len(bodyBytes))

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			c.logger.Error("Gemini API error response",
				"status", resp.Status,
				"body", string(bodyBytes))

			var apiErr APIError
			if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.ErrorDetail != nil {
				lastErr = &apiErr
			} else {
				lastErr = fmt.Errorf("HTTP error: %s, body: %s", resp.Status, string(bodyBytes))
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return lastErr // retryable
			}
			return backoff.Permanent(lastErr)
		}

		if responseBody != nil {
			if err := json.Unmarshal(bodyBytes, responseBody); err != nil {
				lastErr = fmt.Errorf("unmarshalling response: %w, body: %s", err, string(bodyBytes))
				return backoff.Permanent(lastErr)
			}
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}

	return nil
}
