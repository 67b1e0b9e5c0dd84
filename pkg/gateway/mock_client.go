package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	consent "github.com/goliatone/go-consent/components/consent"
)

// MockData seeds deterministic gateway responses for tests or local demos.
type MockData struct {
	ShowWelcome bool
	// Steps maps an endpoint path to the queued responses for it. An empty
	// queue answers with {status: true}.
	Steps       map[string][]consent.StepResponse
	Errors      map[string]error
	Settings    consent.Settings
	SaveMessage string
	// Responses answers Request for a path with a fixed raw body. Paths not
	// listed fall back to the typed fixtures above.
	Responses map[string]json.RawMessage
}

// MockClient implements Client using in-memory fixtures and records calls.
type MockClient struct {
	mu       sync.Mutex
	data     MockData
	calls    []string
	saved    []consent.SettingsPayload
	requests []Request
}

// NewMockClient builds a mock gateway from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	if data.Steps == nil {
		data.Steps = map[string][]consent.StepResponse{}
	}
	if data.Errors == nil {
		data.Errors = map[string]error{}
	}
	if data.SaveMessage == "" {
		data.SaveMessage = "Settings saved successfully."
	}
	return &MockClient{data: data}
}

// Calls lists the endpoint paths hit so far.
func (c *MockClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Requests lists the calls made through Request, headers included.
func (c *MockClient) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

// Request answers from Responses when the path is scripted there and
// otherwise serves the typed fixtures as JSON. Unknown paths answer with a
// 404 RemoteError.
func (c *MockClient) Request(ctx context.Context, req Request) (json.RawMessage, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	raw, scripted := c.data.Responses[req.Path]
	if scripted {
		c.calls = append(c.calls, req.Path)
		err := c.data.Errors[req.Path]
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return append(json.RawMessage(nil), raw...), nil
	}
	c.mu.Unlock()

	var (
		out any
		err error
	)
	switch req.Path {
	case PathWelcomeStatus:
		var show bool
		show, err = c.WelcomeStatus(ctx)
		out = welcomeResponse{ShowWelcome: show}
	case PathRegister, PathQuickScan, PathEnableConsentManagement:
		out, err = c.step(req.Path)
	case PathSettings:
		out, err = c.FetchSettings(ctx)
	case PathSaveSettings:
		var payload consent.SettingsPayload
		if payload, err = decodePayload(req.Body); err != nil {
			return nil, err
		}
		var message string
		message, err = c.SaveSettings(ctx, payload)
		out = map[string]string{"message": message}
	default:
		c.mu.Lock()
		c.calls = append(c.calls, req.Path)
		c.mu.Unlock()
		return nil, &RemoteError{
			Status:  http.StatusNotFound,
			Code:    "rest_no_route",
			Message: fmt.Sprintf("no route for %s %s", req.Method, req.Path),
		}
	}
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode mock response: %w", err)
	}
	return data, nil
}

func decodePayload(body any) (consent.SettingsPayload, error) {
	if payload, ok := body.(consent.SettingsPayload); ok {
		return payload, nil
	}
	var payload consent.SettingsPayload
	data, err := json.Marshal(body)
	if err != nil {
		return payload, fmt.Errorf("gateway: encode payload: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("gateway: decode payload: %w", err)
	}
	return payload, nil
}

// Saved lists the payloads posted to save-settings.
func (c *MockClient) Saved() []consent.SettingsPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]consent.SettingsPayload(nil), c.saved...)
}

// WelcomeStatus returns the configured onboarding flag.
func (c *MockClient) WelcomeStatus(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, PathWelcomeStatus)
	if err := c.data.Errors[PathWelcomeStatus]; err != nil {
		return false, err
	}
	return c.data.ShowWelcome, nil
}

// RegisterDomain pops the next scripted register response.
func (c *MockClient) RegisterDomain(context.Context) (consent.StepResponse, error) {
	return c.step(PathRegister)
}

// QuickScan pops the next scripted quickscan response.
func (c *MockClient) QuickScan(context.Context) (consent.StepResponse, error) {
	return c.step(PathQuickScan)
}

// EnableConsentManagement pops the next scripted activation response.
func (c *MockClient) EnableConsentManagement(context.Context) (consent.StepResponse, error) {
	return c.step(PathEnableConsentManagement)
}

// FetchSettings returns the configured settings.
func (c *MockClient) FetchSettings(context.Context) (consent.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, PathSettings)
	if err := c.data.Errors[PathSettings]; err != nil {
		return consent.Settings{}, err
	}
	out := c.data.Settings
	if out.Theme != nil {
		doc := out.Theme.Clone()
		out.Theme = &doc
	}
	out.CookiePreference = append([]string(nil), out.CookiePreference...)
	return out, nil
}

// SaveSettings records the payload and returns the configured message.
func (c *MockClient) SaveSettings(_ context.Context, payload consent.SettingsPayload) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, PathSaveSettings)
	if err := c.data.Errors[PathSaveSettings]; err != nil {
		return "", err
	}
	c.saved = append(c.saved, payload)
	return c.data.SaveMessage, nil
}

func (c *MockClient) step(path string) (consent.StepResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, path)
	if err := c.data.Errors[path]; err != nil {
		return consent.StepResponse{}, err
	}
	queue := c.data.Steps[path]
	if len(queue) == 0 {
		return consent.StepResponse{Status: true}, nil
	}
	c.data.Steps[path] = queue[1:]
	return queue[0], nil
}
