package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	consent "github.com/goliatone/go-consent/components/consent"
)

// DefaultNamespace prefixes every endpoint of the remote service.
const DefaultNamespace = "/cookiex/v1"

// Endpoint paths relative to the namespace.
const (
	PathWelcomeStatus           = "/welcome-status"
	PathRegister                = "/register"
	PathQuickScan               = "/quickscan"
	PathEnableConsentManagement = "/enable-consent-management"
	PathSettings                = "/settings"
	PathSaveSettings            = "/save-settings"
)

// Client is a convenience union for services that implement every remote call.
type Client interface {
	consent.OnboardingClient
	consent.SettingsClient
}

// Request is one call against the remote service. Path is relative to the
// namespace. A nil Body sends no payload. Headers are applied after the
// client defaults, so they can override them.
type Request struct {
	Method  string
	Path    string
	Headers http.Header
	Body    any
}

// Gateway is the generic request port the typed helpers are built on. It
// returns the raw JSON body of a successful answer and a *RemoteError for
// non-2xx answers.
type Gateway interface {
	Request(ctx context.Context, req Request) (json.RawMessage, error)
}

var (
	_ Gateway = (*HTTPClient)(nil)
	_ Gateway = (*MockClient)(nil)
	_ Client  = (*HTTPClient)(nil)
	_ Client  = (*MockClient)(nil)
)
