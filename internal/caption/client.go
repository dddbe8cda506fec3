// Package caption calls the external image-captioning model. The model is
// an opaque collaborator: bytes in, description out, and it may fail or
// decline to describe an image.
package caption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Describer produces a natural-language description of an image.
type Describer interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

// Client calls a captioning HTTP endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type captionRequest struct {
	Model       string `json:"model"`
	ImageBase64 string `json:"image_base64"`
}

type captionResponse struct {
	Description string `json:"description"`
	Error       *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Describe sends the image to the captioning model and returns its
// description. Transient failures (429, 5xx) are returned as
// *RetryableError so callers can back off and retry.
func (c *Client) Describe(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(captionRequest{
		Model:       c.model,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("caption api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption api status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp captionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("caption error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	return strings.TrimSpace(apiResp.Description), nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// NotWorthDescribing reports whether a model response is one of the
// sentinel values meaning the image carries no describable content.
func NotWorthDescribing(desc string) bool {
	switch strings.ToUpper(strings.TrimSpace(desc)) {
	case "", "NO_DESCRIPTION", "NOT_WORTH_DESCRIBING":
		return true
	}
	return false
}

// RetryableError indicates a transient captioning failure.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}
