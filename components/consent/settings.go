package consent

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Messages shown in the settings form banner.
const (
	MessageInvalidDomainID    = "Please enter a valid UUID for the domain ID."
	MessageGTMIDRequired      = "GTM ID cannot be empty when GTM is enabled."
	MessageGTMPreference      = "Please select at least one cookie preference when GTM is enabled."
	MessageLanguageRequired   = "Please select a primary language."
	MessageSecurityCheck      = "Security check failed."
	MessageSaveFailed         = "Could not save settings"
	MessageInvalidBannerTheme = "Please review the banner colors."
)

var errMissingSettingsClient = errors.New("consent: settings client not configured")

// DefaultLanguages is offered when the remote service does not list any.
var DefaultLanguages = map[string]string{
	"en": "English",
	"fr": "Français",
	"es": "Español",
	"pt": "Português",
	"ar": "العربية",
}

// Settings is the full settings form as returned by the remote service.
type Settings struct {
	DomainID           string            `json:"domainId"`
	GTMID              string            `json:"gtmId"`
	GTMEnabled         bool              `json:"gtmEnabled"`
	AutoBlockCookies   bool              `json:"autoBlockCookies"`
	Language           string            `json:"language"`
	CookiePreference   []string          `json:"cookiePreference"`
	ServerCountry      string            `json:"serverCountry,omitempty"`
	LanguagesAvailable map[string]string `json:"languagesAvailable,omitempty"`
	Regulation         RegulationID      `json:"regulation,omitempty"`
	Theme              *Document         `json:"theme,omitempty"`
}

// SettingsPayload is the body posted to save-settings.
type SettingsPayload struct {
	Language         string   `json:"language"`
	AutoBlockCookies bool     `json:"autoBlockCookies"`
	GTMEnabled       bool     `json:"gtmEnabled"`
	GTMID            string   `json:"gtmId"`
	CookiePreference []string `json:"cookiePreference"`
	Theme            Document `json:"theme"`
}

// SaveResult is the outcome banner of a save: exactly one field is set.
type SaveResult struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the save succeeded.
func (r SaveResult) OK() bool { return r.Error == "" }

// ValidationError carries the user-facing message of a rejected form.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SettingsOptions configures a SettingsService.
type SettingsOptions struct {
	Client    SettingsClient
	Store     *ConfigStore
	Preview   *PreviewScheduler
	Validator DocumentValidator
	Logger    *zap.Logger
	Telemetry Telemetry
}

// SettingsService loads, validates and saves the settings form. The banner
// document part of the form lives in the ConfigStore.
type SettingsService struct {
	opts SettingsOptions

	mu       sync.RWMutex
	settings Settings
}

// NewSettingsService builds a service with safe defaults.
func NewSettingsService(opts SettingsOptions) *SettingsService {
	if opts.Store == nil {
		opts.Store = NewConfigStore(DefaultDocument())
	}
	if opts.Validator == nil {
		opts.Validator = noopDocumentValidator{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &SettingsService{
		opts: opts,
		settings: Settings{
			Language:           "en",
			ServerCountry:      "in",
			LanguagesAvailable: cloneLanguages(DefaultLanguages),
			Regulation:         RegulationGDPR,
		},
	}
}

// Store exposes the document store backing the form.
func (s *SettingsService) Store() *ConfigStore {
	return s.opts.Store
}

// Load fetches the stored settings and seeds the document store. A missing
// theme falls back to the default document.
func (s *SettingsService) Load(ctx context.Context) (Settings, error) {
	if s.opts.Client == nil {
		return Settings{}, errMissingSettingsClient
	}
	remote, err := s.opts.Client.FetchSettings(ctx)
	if err != nil {
		s.opts.Logger.Error("fetch settings", zap.Error(err))
		return Settings{}, err
	}

	doc := DefaultDocument()
	if remote.Theme != nil {
		doc = remote.Theme.Clone()
	}
	if remote.Regulation != "" {
		doc.Regulation = remote.Regulation
	}
	if doc.Regulation == "" {
		doc.Regulation = RegulationGDPR
	}
	if !validScheme(doc.Type) {
		s.opts.Logger.Warn("stored theme has unknown scheme, using Light",
			zap.String("type", string(doc.Type)),
		)
		doc.Type = SchemeLight
	}
	if len(remote.LanguagesAvailable) == 0 {
		remote.LanguagesAvailable = cloneLanguages(DefaultLanguages)
	}
	remote.Regulation = doc.Regulation
	remote.Theme = nil

	s.mu.Lock()
	s.settings = remote
	s.mu.Unlock()

	s.opts.Store.Replace(doc)
	if s.opts.Preview != nil {
		s.opts.Preview.SetDomainID(remote.DomainID)
	}
	s.opts.Telemetry.Record(ctx, "consent.settings.load", map[string]any{
		"domain_id": remote.DomainID,
		"type":      string(doc.Type),
	})
	return s.Current(), nil
}

// Current returns the form with the latest document snapshot.
func (s *SettingsService) Current() Settings {
	s.mu.RLock()
	out := s.settings
	out.CookiePreference = append([]string(nil), s.settings.CookiePreference...)
	out.LanguagesAvailable = cloneLanguages(s.settings.LanguagesAvailable)
	s.mu.RUnlock()
	doc := s.opts.Store.Get()
	out.Theme = &doc
	out.Regulation = doc.Regulation
	return out
}

// Update applies fn to the non-document part of the form. Document edits go
// through the store.
func (s *SettingsService) Update(fn func(*Settings)) Settings {
	s.mu.Lock()
	next := s.settings
	next.CookiePreference = append([]string(nil), s.settings.CookiePreference...)
	fn(&next)
	next.Theme = nil
	regulation := next.Regulation
	next.Regulation = s.settings.Regulation
	s.settings = next
	s.mu.Unlock()
	if s.opts.Preview != nil {
		s.opts.Preview.SetDomainID(next.DomainID)
	}
	if regulation != "" && regulation != s.opts.Store.Get().Regulation {
		s.opts.Store.PatchField(FieldRegulation, string(regulation))
	}
	return s.Current()
}

// Validate runs the form checks in order and reports the first failure.
func (s *SettingsService) Validate(settings Settings) error {
	if _, err := uuid.Parse(settings.DomainID); err != nil {
		return &ValidationError{Message: MessageInvalidDomainID}
	}
	if settings.GTMEnabled {
		if settings.GTMID == "" {
			return &ValidationError{Message: MessageGTMIDRequired}
		}
		if len(settings.CookiePreference) == 0 {
			return &ValidationError{Message: MessageGTMPreference}
		}
	}
	if settings.Language == "" {
		return &ValidationError{Message: MessageLanguageRequired}
	}
	if settings.Theme != nil {
		if err := s.opts.Validator.ValidateDocument(*settings.Theme); err != nil {
			return &ValidationError{Message: MessageInvalidBannerTheme, Err: err}
		}
	}
	return nil
}

// Save validates the current form and posts it. Validation failures never
// reach the network.
func (s *SettingsService) Save(ctx context.Context) SaveResult {
	current := s.Current()
	if err := s.Validate(current); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		s.opts.Telemetry.Record(ctx, "consent.settings.invalid", map[string]any{"message": verr.Message})
		return SaveResult{Error: verr.Message}
	}
	if s.opts.Client == nil {
		s.opts.Logger.Error("save settings", zap.Error(errMissingSettingsClient))
		return SaveResult{Error: MessageSaveFailed}
	}

	payload := SettingsPayload{
		Language:         current.Language,
		AutoBlockCookies: current.AutoBlockCookies,
		GTMEnabled:       current.GTMEnabled,
		GTMID:            current.GTMID,
		CookiePreference: current.CookiePreference,
		Theme:            *current.Theme,
	}
	message, err := s.opts.Client.SaveSettings(ctx, payload)
	if err != nil {
		s.opts.Logger.Error("save settings", zap.Error(err))
		s.opts.Telemetry.Record(ctx, "consent.settings.save_error", map[string]any{"error": err.Error()})
		if errors.Is(err, ErrInvalidNonce) {
			return SaveResult{Error: MessageSecurityCheck}
		}
		return SaveResult{Error: MessageSaveFailed}
	}
	s.opts.Telemetry.Record(ctx, "consent.settings.save", map[string]any{"domain_id": current.DomainID})
	return SaveResult{Success: message}
}

func cloneLanguages(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
