package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskchat/internal/config"
	"taskchat/internal/logging"
)

const (
	defaultBaseURL        = "http://127.0.0.1:8086"
	defaultRequestTimeout = 10 * time.Second
	submitTimeout         = 30 * time.Second
	enhanceTimeout        = 60 * time.Second
)

// Client talks to the agent web API: plain JSON request/response calls
// plus the long-lived event stream.
type Client struct {
	baseURL string
	http    *http.Client
	stream  StreamOptions
	logger  logging.Logger
}

func New(cfg config.CoreConfig, logger logging.Logger) *Client {
	c := NewWithBaseURL(cfg.ServerBaseURL())
	initialMS, maxMS := cfg.StreamBackoff()
	c.stream = StreamOptions{
		Transport:      cfg.StreamTransport(),
		InitialBackoff: time.Duration(initialMS) * time.Millisecond,
		MaxBackoff:     time.Duration(maxMS) * time.Millisecond,
		Debug:          cfg.StreamDebugEnabled(),
	}
	if logger != nil {
		c.logger = logger.With(logging.F("component", "client"))
	}
	return c
}

func NewWithBaseURL(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		stream: DefaultStreamOptions(),
		logger: logging.Nop(),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SubmitTask(ctx context.Context, req SubmitTaskRequest) (*SubmitTaskResponse, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, errors.New("task is required")
	}
	var resp SubmitTaskResponse
	if err := c.doJSONWithTimeout(ctx, http.MethodPost, "/api/task", req, &resp, submitTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) EnhanceTask(ctx context.Context, text string) (*EnhanceResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}
	var resp EnhanceResponse
	if err := c.doJSONWithTimeout(ctx, http.MethodPost, "/api/enhance", EnhanceRequest{Text: text}, &resp, enhanceTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the server to stop its agent. The response body is not
// required to carry anything.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/shutdown", nil, nil)
}

func (c *Client) ClearRemoteHistory(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/clear-history", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	return c.doJSONWithClient(ctx, method, path, body, out, c.http)
}

func (c *Client) doJSONWithTimeout(ctx context.Context, method, path string, body any, out any, timeout time.Duration) error {
	httpClient := c.http
	if timeout > 0 && (httpClient == nil || httpClient.Timeout < timeout) {
		httpClient = &http.Client{Timeout: timeout}
		if c.http != nil {
			httpClient.Transport = c.http.Transport
		}
	}
	return c.doJSONWithClient(ctx, method, path, body, out, httpClient)
}

func (c *Client) doJSONWithClient(ctx context.Context, method, path string, body any, out any, httpClient *http.Client) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := logging.NewRequestID()
	req.Header.Set("X-Request-ID", requestID)

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		c.log().Warn("request failed",
			logging.F("method", method),
			logging.F("path", path),
			logging.F("request_id", requestID),
			logging.Err(err),
		)
		return err
	}
	defer resp.Body.Close()
	c.log().Debug("request done",
		logging.F("method", method),
		logging.F("path", path),
		logging.F("request_id", requestID),
		logging.F("status", resp.StatusCode),
		logging.F("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) log() logging.Logger {
	if c.logger == nil {
		return logging.Nop()
	}
	return c.logger
}

// decodeAPIError understands both {"error": ...} bodies and the
// {"detail": ...} bodies the agent server produces for rejected requests.
func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: detail}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(payload.Detail)}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsRateLimited reports whether err is the server's 429 response.
func IsRateLimited(err error) bool {
	apiErr := AsAPIError(err)
	return apiErr != nil && apiErr.StatusCode == http.StatusTooManyRequests
}
