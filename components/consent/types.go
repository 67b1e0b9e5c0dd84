package consent

import (
	"context"
	"errors"
)

// ErrInvalidNonce marks remote failures caused by an expired or invalid
// session nonce. Gateway errors match it through errors.Is.
var ErrInvalidNonce = errors.New("consent: invalid session nonce")

// ErrUnknownRegulation is returned for regulation ids missing from the catalog.
var ErrUnknownRegulation = errors.New("consent: unknown regulation")

// ChangeListener is notified synchronously after every document mutation.
type ChangeListener interface {
	DocumentChanged(doc Document)
}

// ChangeListenerFunc adapts a function into a ChangeListener.
type ChangeListenerFunc func(doc Document)

// DocumentChanged calls f(doc).
func (f ChangeListenerFunc) DocumentChanged(doc Document) { f(doc) }

// Embed is the port to the external banner script.
type Embed interface {
	Init(ctx context.Context, cfg EmbedConfig) error
	Remove(ctx context.Context, selectorID string) error
}

// ScriptLoader fetches the embed script.
type ScriptLoader interface {
	Load(ctx context.Context, url string) error
}

// ScriptLoaderFunc adapts a function into a ScriptLoader.
type ScriptLoaderFunc func(ctx context.Context, url string) error

// Load calls f(ctx, url).
func (f ScriptLoaderFunc) Load(ctx context.Context, url string) error { return f(ctx, url) }

// OnboardingClient is the subset of the remote service used by onboarding.
type OnboardingClient interface {
	WelcomeStatus(ctx context.Context) (bool, error)
	RegisterDomain(ctx context.Context) (StepResponse, error)
	QuickScan(ctx context.Context) (StepResponse, error)
	EnableConsentManagement(ctx context.Context) (StepResponse, error)
}

// SettingsClient is the subset of the remote service used by the settings form.
type SettingsClient interface {
	FetchSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, payload SettingsPayload) (string, error)
}

// StepResponse is the body returned by the onboarding endpoints.
type StepResponse struct {
	Status  bool           `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// StepObserver is notified whenever an onboarding step changes.
type StepObserver interface {
	StepUpdated(ctx context.Context, event StepEvent) error
}

// EmbedConfig is the object handed to the embed's init entry point.
type EmbedConfig struct {
	DomainID       string     `json:"domainId"`
	SelectorID     string     `json:"selectorId"`
	Theme          EmbedTheme `json:"theme"`
	InitialPreview bool       `json:"initialPreview"`
}

// EmbedTheme carries the document fields the embed paints with.
type EmbedTheme struct {
	Layout        string       `json:"layout"`
	Alignment     string       `json:"alignment"`
	Theme         Theme        `json:"theme"`
	BannerContent string       `json:"bannerContent"`
	Type          SchemeType   `json:"type"`
	Regulation    RegulationID `json:"regulation"`
}

type noopStepObserver struct{}

func (noopStepObserver) StepUpdated(context.Context, StepEvent) error { return nil }

type noopEmbed struct{}

func (noopEmbed) Init(context.Context, EmbedConfig) error { return nil }
func (noopEmbed) Remove(context.Context, string) error    { return nil }
