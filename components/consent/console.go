package consent

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"
)

// ConsoleOptions wires the console components together.
type ConsoleOptions struct {
	Settings   SettingsClient
	Onboarding OnboardingClient
	Embed      Embed
	Loader     ScriptLoader
	Validator  DocumentValidator
	Hub        *EventHub
	Observers  []StepObserver

	ScriptURL       string
	SelectorID      string
	SettleDelay     time.Duration
	BannerDelay     time.Duration
	CompletionDelay time.Duration
	StepTimeout     time.Duration

	Clock     clock.Clock
	Logger    *zap.Logger
	Telemetry Telemetry
}

// Console groups the document store, preview, onboarding and settings form
// behind a single handle.
type Console struct {
	store      *ConfigStore
	preview    *PreviewScheduler
	onboarding *Orchestrator
	settings   *SettingsService
	hub        *EventHub
}

// NewConsole builds a console. When a hub is provided and no embed is set, the
// preview is pushed to browsers through the hub.
func NewConsole(opts ConsoleOptions) *Console {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Embed == nil && opts.Hub != nil {
		opts.Embed = NewBroadcastEmbed(opts.Hub)
	}

	store := NewConfigStore(DefaultDocument())
	if opts.Hub != nil {
		store.Subscribe(opts.Hub)
	}
	preview := NewPreviewScheduler(PreviewOptions{
		Store:       store,
		Embed:       opts.Embed,
		Loader:      opts.Loader,
		ScriptURL:   opts.ScriptURL,
		SelectorID:  opts.SelectorID,
		SettleDelay: opts.SettleDelay,
		Clock:       opts.Clock,
		Logger:      opts.Logger.Named("preview"),
		Telemetry:   opts.Telemetry,
	})

	observers := append([]StepObserver(nil), opts.Observers...)
	if opts.Hub != nil {
		observers = append(observers, opts.Hub)
	}
	onboarding := NewOrchestrator(OnboardingOptions{
		Client:          opts.Onboarding,
		Observer:        StepObservers(observers),
		Telemetry:       opts.Telemetry,
		Logger:          opts.Logger.Named("onboarding"),
		Clock:           opts.Clock,
		BannerDelay:     opts.BannerDelay,
		CompletionDelay: opts.CompletionDelay,
		StepTimeout:     opts.StepTimeout,
	})
	settings := NewSettingsService(SettingsOptions{
		Client:    opts.Settings,
		Store:     store,
		Preview:   preview,
		Validator: opts.Validator,
		Logger:    opts.Logger.Named("settings"),
		Telemetry: opts.Telemetry,
	})
	return &Console{
		store:      store,
		preview:    preview,
		onboarding: onboarding,
		settings:   settings,
		hub:        opts.Hub,
	}
}

func (c *Console) Store() *ConfigStore { return c.store }
func (c *Console) Preview() *PreviewScheduler { return c.preview }
func (c *Console) Onboarding() *Orchestrator { return c.onboarding }
func (c *Console) Settings() *SettingsService { return c.settings }
func (c *Console) Hub() *EventHub { return c.hub }

// State is the JSON view of the console served to the browser.
type State struct {
	Document        Document      `json:"document"`
	Settings        Settings      `json:"settings"`
	Preview         PreviewStatus `json:"preview"`
	Steps           []Step        `json:"steps"`
	Phase           Phase         `json:"phase"`
	NeedsOnboarding bool          `json:"needsOnboarding"`
	Regulations     []Regulation  `json:"regulations"`
	VisibleKeys     []string      `json:"visibleKeys"`
}

// State snapshots every component.
func (c *Console) State() State {
	doc := c.store.Get()
	return State{
		Document:        doc,
		Settings:        c.settings.Current(),
		Preview:         c.preview.Status(),
		Steps:           c.onboarding.Steps(),
		Phase:           c.onboarding.Phase(),
		NeedsOnboarding: c.onboarding.NeedsOnboarding(),
		Regulations:     Regulations(),
		VisibleKeys:     VisibleThemeKeys(doc.Regulation),
	}
}

// Close releases the preview subscription.
func (c *Console) Close(ctx context.Context) {
	c.preview.Disable(ctx)
	c.preview.Close()
}

// StepObservers fans one step event out to several observers. Every observer
// is called; the first error is returned.
type StepObservers []StepObserver

// StepUpdated implements StepObserver.
func (o StepObservers) StepUpdated(ctx context.Context, event StepEvent) error {
	var first error
	for _, observer := range o {
		if observer == nil {
			continue
		}
		if err := observer.StepUpdated(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
