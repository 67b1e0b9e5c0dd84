package consent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSettleDelay is the debounce window between the last edit and the
	// preview render.
	DefaultSettleDelay = time.Second
	// DefaultSelectorID is the DOM id the embed renders the preview into.
	DefaultSelectorID = "coookiex-comp-banner-preview"
)

// PreviewOptions configures a PreviewScheduler.
type PreviewOptions struct {
	Store       *ConfigStore
	Embed       Embed
	Loader      ScriptLoader
	ScriptURL   string
	SelectorID  string
	SettleDelay time.Duration
	Clock       clock.Clock
	Logger      *zap.Logger
	Telemetry   Telemetry
}

// PreviewStatus is a read-only view of the scheduler state.
type PreviewStatus struct {
	Enabled       bool         `json:"enabled"`
	ScriptLoaded  bool         `json:"script_loaded"`
	PendingRender bool         `json:"pending_render"`
	Renders       int          `json:"renders"`
	LastError     string       `json:"last_error,omitempty"`
	LastRender    *EmbedConfig `json:"last_render,omitempty"`
}

// PreviewScheduler keeps the on-screen embed in sync with the ConfigStore.
// Document changes are coalesced: a burst of edits renders once, SettleDelay
// after the last edit.
type PreviewScheduler struct {
	opts  PreviewOptions
	loads singleflight.Group

	// renderMu orders embed Init calls against Remove.
	renderMu sync.Mutex

	mu           sync.Mutex
	enabled      bool
	scriptLoaded bool
	timer        *clock.Timer
	generation   uint64
	epoch        uint64
	domainID     string
	renders      int
	lastErr      error
	lastRender   *EmbedConfig
	unsubscribe  func()
}

// NewPreviewScheduler builds a scheduler and subscribes it to the store.
func NewPreviewScheduler(opts PreviewOptions) *PreviewScheduler {
	if opts.Store == nil {
		panic("consent: preview scheduler requires a config store")
	}
	if opts.Embed == nil {
		opts.Embed = noopEmbed{}
	}
	if opts.Loader == nil {
		opts.Loader = ScriptLoaderFunc(func(context.Context, string) error { return nil })
	}
	if opts.SelectorID == "" {
		opts.SelectorID = DefaultSelectorID
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	p := &PreviewScheduler{opts: opts}
	p.unsubscribe = opts.Store.Subscribe(p)
	return p
}

// SetDomainID sets the domain id passed to the embed on the next render.
func (p *PreviewScheduler) SetDomainID(domainID string) {
	p.mu.Lock()
	p.domainID = domainID
	p.mu.Unlock()
}

// Enable shows the preview. The embed script is fetched at most once; calls
// racing an in-flight fetch share it. Load failures are logged and leave the
// preview unrendered. A Disable that lands while the script loads wins.
func (p *PreviewScheduler) Enable(ctx context.Context) {
	p.mu.Lock()
	p.enabled = true
	epoch := p.epoch
	loaded := p.scriptLoaded
	p.mu.Unlock()

	if !loaded {
		if err := p.ensureScript(ctx); err != nil {
			p.recordError(ctx, "consent.preview.script_error", err)
			return
		}
	}
	p.render(ctx, true, epoch)
}

// Disable hides the preview and cancels any scheduled render. It waits for
// an in-flight render so the embed is removed after it, never before.
func (p *PreviewScheduler) Disable(ctx context.Context) {
	p.mu.Lock()
	p.enabled = false
	p.epoch++
	p.cancelTimerLocked()
	p.mu.Unlock()

	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	if err := p.opts.Embed.Remove(ctx, p.opts.SelectorID); err != nil {
		p.opts.Logger.Warn("remove preview embed",
			zap.String("selector_id", p.opts.SelectorID),
			zap.Error(err),
		)
	}
	p.opts.Telemetry.Record(ctx, "consent.preview.disable", nil)
}

// DocumentChanged implements ChangeListener. While the preview is enabled each
// call replaces the pending render with one due SettleDelay from now.
func (p *PreviewScheduler) DocumentChanged(Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.cancelTimerLocked()
	gen := p.generation
	p.timer = p.opts.Clock.AfterFunc(p.opts.SettleDelay, func() {
		p.fire(gen)
	})
}

// Status returns the current scheduler state.
func (p *PreviewScheduler) Status() PreviewStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := PreviewStatus{
		Enabled:       p.enabled,
		ScriptLoaded:  p.scriptLoaded,
		PendingRender: p.timer != nil,
		Renders:       p.renders,
	}
	if p.lastErr != nil {
		status.LastError = p.lastErr.Error()
	}
	if p.lastRender != nil {
		cfg := *p.lastRender
		cfg.Theme.Theme = cfg.Theme.Theme.Clone()
		status.LastRender = &cfg
	}
	return status
}

// Close detaches the scheduler from the store and drops pending renders.
func (p *PreviewScheduler) Close() {
	p.mu.Lock()
	p.enabled = false
	p.epoch++
	p.cancelTimerLocked()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// ensureScript shares one load between concurrent callers. The load runs
// detached from the caller's cancellation so one caller going away does not
// fail the others waiting on it.
func (p *PreviewScheduler) ensureScript(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	_, err, _ := p.loads.Do(p.opts.ScriptURL, func() (any, error) {
		p.mu.Lock()
		loaded := p.scriptLoaded
		p.mu.Unlock()
		if loaded {
			return nil, nil
		}
		if err := p.opts.Loader.Load(ctx, p.opts.ScriptURL); err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.scriptLoaded = true
		p.mu.Unlock()
		p.opts.Logger.Debug("embed script loaded", zap.String("url", p.opts.ScriptURL))
		return nil, nil
	})
	return err
}

// cancelTimerLocked stops the pending timer. Bumping the generation also
// disarms a timer that already fired but has not taken the lock yet.
func (p *PreviewScheduler) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.generation++
}

func (p *PreviewScheduler) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || !p.enabled {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	epoch := p.epoch
	loaded := p.scriptLoaded
	p.mu.Unlock()
	if !loaded {
		// the initial render after the load picks up this change
		return
	}
	p.render(context.Background(), false, epoch)
}

// render initialises the embed unless the preview was disabled after the
// caller captured epoch. The check and the Init call share renderMu with
// Disable's Remove.
func (p *PreviewScheduler) render(ctx context.Context, initial bool, epoch uint64) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	doc := p.opts.Store.Get()
	p.mu.Lock()
	if !p.enabled || epoch != p.epoch {
		p.mu.Unlock()
		return
	}
	cfg := EmbedConfig{
		DomainID:   p.domainID,
		SelectorID: p.opts.SelectorID,
		Theme: EmbedTheme{
			Layout:        doc.Layout,
			Alignment:     doc.Alignment,
			Theme:         doc.Theme,
			BannerContent: doc.BannerContent,
			Type:          doc.Type,
			Regulation:    doc.Regulation,
		},
		InitialPreview: initial,
	}
	p.mu.Unlock()

	if err := p.invoke(ctx, cfg); err != nil {
		p.recordError(ctx, "consent.preview.render_error", err)
		return
	}
	p.mu.Lock()
	p.renders++
	p.lastErr = nil
	p.lastRender = &cfg
	p.mu.Unlock()
	p.opts.Telemetry.Record(ctx, "consent.preview.render", map[string]any{
		"type":            string(doc.Type),
		"regulation":      string(doc.Regulation),
		"initial_preview": initial,
	})
}

func (p *PreviewScheduler) invoke(ctx context.Context, cfg EmbedConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consent: embed init panicked: %v", r)
		}
	}()
	return p.opts.Embed.Init(ctx, cfg)
}

func (p *PreviewScheduler) recordError(ctx context.Context, event string, err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	p.opts.Logger.Error("preview failed",
		zap.String("event", event),
		zap.String("script_url", p.opts.ScriptURL),
		zap.Error(err),
	)
	p.opts.Telemetry.Record(ctx, event, map[string]any{"error": err.Error()})
}
