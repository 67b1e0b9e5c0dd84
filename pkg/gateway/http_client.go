package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	consent "github.com/goliatone/go-consent/components/consent"
)

// NonceHeader carries the session nonce on every request.
const NonceHeader = "X-WP-Nonce"

// HTTPConfig configures the HTTP gateway client.
type HTTPConfig struct {
	BaseURL    string
	Namespace  string
	Nonce      string
	HTTPClient *http.Client
}

// HTTPClient talks to the consent service REST endpoints.
type HTTPClient struct {
	baseURL string
	nonce   string
	client  *http.Client
}

// NewHTTPClient builds a client for the remote consent service.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(namespace, "/"),
		nonce:   cfg.Nonce,
		client:  httpClient,
	}, nil
}

// WelcomeStatus reports whether the onboarding wizard should run.
func (c *HTTPClient) WelcomeStatus(ctx context.Context) (bool, error) {
	var resp welcomeResponse
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: PathWelcomeStatus}, &resp); err != nil {
		return false, err
	}
	return resp.ShowWelcome, nil
}

// RegisterDomain registers the site domain with the consent service.
func (c *HTTPClient) RegisterDomain(ctx context.Context) (consent.StepResponse, error) {
	return c.step(ctx, PathRegister)
}

// QuickScan asks the service to scan the site for cookies.
func (c *HTTPClient) QuickScan(ctx context.Context) (consent.StepResponse, error) {
	return c.step(ctx, PathQuickScan)
}

// EnableConsentManagement activates consent management for the site.
func (c *HTTPClient) EnableConsentManagement(ctx context.Context) (consent.StepResponse, error) {
	return c.step(ctx, PathEnableConsentManagement)
}

// FetchSettings returns the stored settings form.
func (c *HTTPClient) FetchSettings(ctx context.Context) (consent.Settings, error) {
	var settings consent.Settings
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: PathSettings}, &settings); err != nil {
		return consent.Settings{}, err
	}
	return settings, nil
}

// SaveSettings posts the settings form and returns the service message.
func (c *HTTPClient) SaveSettings(ctx context.Context, payload consent.SettingsPayload) (string, error) {
	raw, err := c.Request(ctx, Request{Method: http.MethodPost, Path: PathSaveSettings, Body: payload})
	if err != nil {
		return "", err
	}
	return decodeMessage(raw), nil
}

func (c *HTTPClient) step(ctx context.Context, path string) (consent.StepResponse, error) {
	var resp consent.StepResponse
	if err := c.call(ctx, Request{Method: http.MethodPost, Path: path}, &resp); err != nil {
		return consent.StepResponse{}, err
	}
	return resp, nil
}

// Request performs one call and returns the raw response body. The nonce
// header is sent on every call unless req.Headers replaces it.
func (c *HTTPClient) Request(ctx context.Context, req Request) (json.RawMessage, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.nonce != "" {
		httpReq.Header.Set(NonceHeader, c.nonce)
	}
	for key, values := range req.Headers {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, decodeRemoteError(resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	return json.RawMessage(raw), nil
}

func (c *HTTPClient) call(ctx context.Context, req Request, target any) error {
	raw, err := c.Request(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(raw, target)
}

func decodeInto(raw json.RawMessage, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

type welcomeResponse struct {
	ShowWelcome bool `json:"show_welcome"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeRemoteError(resp *http.Response) error {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	remote := &RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(buf.String())}
	var payload errorResponse
	if err := json.Unmarshal(buf.Bytes(), &payload); err == nil {
		remote.Code = payload.Code
		if payload.Message != "" {
			remote.Message = payload.Message
		}
	}
	return remote
}

// decodeMessage accepts either a bare JSON string or an object with a
// message field.
func decodeMessage(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(raw))
}
