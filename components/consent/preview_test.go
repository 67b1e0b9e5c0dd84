package consent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingEmbed struct {
	mu      sync.Mutex
	inits   []EmbedConfig
	removed []string
	err     error
	panics  bool
}

func (e *recordingEmbed) Init(_ context.Context, cfg EmbedConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panics {
		panic("embed exploded")
	}
	if e.err != nil {
		return e.err
	}
	e.inits = append(e.inits, cfg)
	return nil
}

func (e *recordingEmbed) Remove(_ context.Context, selectorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, selectorID)
	return nil
}

func (e *recordingEmbed) Inits() []EmbedConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EmbedConfig(nil), e.inits...)
}

func (e *recordingEmbed) Removed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.removed...)
}

type previewFixture struct {
	store   *ConfigStore
	embed   *recordingEmbed
	clock   *clock.Mock
	loads   *atomic.Int32
	preview *PreviewScheduler
}

func newPreviewFixture(t *testing.T, loadErr error) previewFixture {
	t.Helper()
	store := NewConfigStore(DefaultDocument())
	embed := &recordingEmbed{}
	mock := clock.NewMock()
	loads := &atomic.Int32{}
	preview := NewPreviewScheduler(PreviewOptions{
		Store:     store,
		Embed:     embed,
		ScriptURL: "https://cdn.example.com/embed.js",
		Clock:     mock,
		Loader: ScriptLoaderFunc(func(context.Context, string) error {
			loads.Add(1)
			return loadErr
		}),
	})
	t.Cleanup(preview.Close)
	return previewFixture{store: store, embed: embed, clock: mock, loads: loads, preview: preview}
}

func TestPreviewEnableLoadsScriptAndRendersInitialPreview(t *testing.T) {
	f := newPreviewFixture(t, nil)
	f.preview.SetDomainID("4f7c2d8e-8c1b-4a55-9c7e-1b2f3a4d5e6f")

	f.preview.Enable(context.Background())

	inits := f.embed.Inits()
	require.Len(t, inits, 1)
	assert.True(t, inits[0].InitialPreview)
	assert.Equal(t, DefaultSelectorID, inits[0].SelectorID)
	assert.Equal(t, "4f7c2d8e-8c1b-4a55-9c7e-1b2f3a4d5e6f", inits[0].DomainID)
	assert.Equal(t, "box", inits[0].Theme.Layout)
	assert.Equal(t, SchemeLight, inits[0].Theme.Type)
	assert.EqualValues(t, 1, f.loads.Load())
}

func TestPreviewDebounceRendersOnceAfterBurst(t *testing.T) {
	f := newPreviewFixture(t, nil)
	f.preview.Enable(context.Background())
	require.Len(t, f.embed.Inits(), 1)

	for _, layout := range []string{"banner", "popup", "box", "classic", "cloud"} {
		f.store.PatchField(FieldLayout, layout)
		f.clock.Add(200 * time.Millisecond)
	}
	assert.Len(t, f.embed.Inits(), 1)
	assert.True(t, f.preview.Status().PendingRender)

	f.clock.Add(799 * time.Millisecond)
	assert.Len(t, f.embed.Inits(), 1)

	f.clock.Add(time.Millisecond)
	inits := f.embed.Inits()
	require.Len(t, inits, 2)
	assert.False(t, inits[1].InitialPreview)
	assert.Equal(t, "cloud", inits[1].Theme.Layout)
	assert.False(t, f.preview.Status().PendingRender)

	f.clock.Add(5 * time.Second)
	assert.Len(t, f.embed.Inits(), 2)
}

func TestPreviewSchemeSwitchUsesDebounce(t *testing.T) {
	f := newPreviewFixture(t, nil)
	f.preview.Enable(context.Background())

	f.store.SwitchScheme(SchemeDark)
	assert.Len(t, f.embed.Inits(), 1)

	f.clock.Add(DefaultSettleDelay)
	inits := f.embed.Inits()
	require.Len(t, inits, 2)
	assert.Equal(t, SchemeDark, inits[1].Theme.Type)
	assert.True(t, inits[1].Theme.Theme.Equal(MustPreset(SchemeDark)))
}

func TestPreviewDisableCancelsPendingRender(t *testing.T) {
	f := newPreviewFixture(t, nil)
	ctx := context.Background()
	f.preview.Enable(ctx)

	f.store.PatchField(FieldAlignment, "bottom-right")
	f.clock.Add(500 * time.Millisecond)
	f.preview.Disable(ctx)
	f.clock.Add(2 * time.Second)

	assert.Len(t, f.embed.Inits(), 1)
	assert.Equal(t, []string{DefaultSelectorID}, f.embed.Removed())
	assert.False(t, f.preview.Status().Enabled)
}

func TestPreviewIgnoresChangesWhileDisabled(t *testing.T) {
	f := newPreviewFixture(t, nil)

	f.store.PatchField(FieldLayout, "banner")
	f.clock.Add(2 * time.Second)

	assert.Empty(t, f.embed.Inits())
	assert.False(t, f.preview.Status().PendingRender)
	assert.Zero(t, f.loads.Load())
}

func TestPreviewLoadsScriptOnce(t *testing.T) {
	f := newPreviewFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.preview.Enable(ctx)
		}()
	}
	wg.Wait()
	f.preview.Disable(ctx)
	f.preview.Enable(ctx)

	assert.EqualValues(t, 1, f.loads.Load())
	assert.True(t, f.preview.Status().ScriptLoaded)
}

func TestPreviewScriptFailureIsLoggedWithoutRender(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := NewConfigStore(DefaultDocument())
	embed := &recordingEmbed{}
	preview := NewPreviewScheduler(PreviewOptions{
		Store:  store,
		Embed:  embed,
		Clock:  clock.NewMock(),
		Logger: zap.New(core),
		Loader: ScriptLoaderFunc(func(context.Context, string) error {
			return errors.New("404")
		}),
	})
	defer preview.Close()

	preview.Enable(context.Background())

	assert.Empty(t, embed.Inits())
	status := preview.Status()
	assert.False(t, status.ScriptLoaded)
	assert.Contains(t, status.LastError, "404")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "preview failed", logs.All()[0].Message)
}

func TestPreviewRecoversFromEmbedPanic(t *testing.T) {
	f := newPreviewFixture(t, nil)
	f.embed.panics = true

	f.preview.Enable(context.Background())
	assert.Contains(t, f.preview.Status().LastError, "panicked")

	f.embed.mu.Lock()
	f.embed.panics = false
	f.embed.mu.Unlock()

	f.store.PatchField(FieldLayout, "banner")
	f.clock.Add(DefaultSettleDelay)

	status := f.preview.Status()
	assert.Equal(t, 1, status.Renders)
	assert.Empty(t, status.LastError)
	require.NotNil(t, status.LastRender)
	assert.Equal(t, "banner", status.LastRender.Theme.Layout)
}

func TestPreviewDarkThenCustomWithinWindowRendersOnce(t *testing.T) {
	f := newPreviewFixture(t, nil)
	f.preview.Enable(context.Background())

	f.store.SwitchScheme(SchemeDark)
	f.clock.Add(100 * time.Millisecond)
	f.store.SwitchScheme(SchemeCustom)
	f.store.PatchButton(ButtonReject, PropertyTextColor, "#00ff00")
	f.clock.Add(DefaultSettleDelay)

	inits := f.embed.Inits()
	require.Len(t, inits, 2)
	last := inits[1]
	assert.Equal(t, SchemeCustom, last.Theme.Type)
	assert.Equal(t, "#00ff00", last.Theme.Theme["buttonRejectTextColor"])
	assert.Equal(t, MustPreset(SchemeDark)[ThemeBackground], last.Theme.Theme[ThemeBackground])
}

func TestPreviewRenderSkipsAfterDisable(t *testing.T) {
	f := newPreviewFixture(t, nil)
	ctx := context.Background()
	f.preview.Enable(ctx)

	f.preview.mu.Lock()
	stale := f.preview.epoch
	f.preview.mu.Unlock()

	f.preview.Disable(ctx)
	f.preview.render(ctx, false, stale)
	assert.Len(t, f.embed.Inits(), 1)

	f.preview.Enable(ctx)
	require.Len(t, f.embed.Inits(), 2)
	f.preview.render(ctx, false, stale)
	assert.Len(t, f.embed.Inits(), 2)
}

func TestPreviewDisableDuringScriptLoadWins(t *testing.T) {
	store := NewConfigStore(DefaultDocument())
	embed := &recordingEmbed{}
	var preview *PreviewScheduler
	preview = NewPreviewScheduler(PreviewOptions{
		Store: store,
		Embed: embed,
		Clock: clock.NewMock(),
		Loader: ScriptLoaderFunc(func(ctx context.Context, _ string) error {
			preview.Disable(ctx)
			return nil
		}),
	})
	defer preview.Close()

	preview.Enable(context.Background())

	assert.Empty(t, embed.Inits())
	assert.Equal(t, []string{DefaultSelectorID}, embed.Removed())
	status := preview.Status()
	assert.True(t, status.ScriptLoaded)
	assert.False(t, status.Enabled)
}

type gatedEmbed struct {
	recordingEmbed
	entered chan struct{}
	release chan struct{}

	orderMu sync.Mutex
	order   []string
}

func (e *gatedEmbed) Init(ctx context.Context, cfg EmbedConfig) error {
	close(e.entered)
	<-e.release
	e.orderMu.Lock()
	e.order = append(e.order, "init")
	e.orderMu.Unlock()
	return e.recordingEmbed.Init(ctx, cfg)
}

func (e *gatedEmbed) Remove(ctx context.Context, selectorID string) error {
	e.orderMu.Lock()
	e.order = append(e.order, "remove")
	e.orderMu.Unlock()
	return e.recordingEmbed.Remove(ctx, selectorID)
}

func (e *gatedEmbed) Order() []string {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	return append([]string(nil), e.order...)
}

func TestPreviewDisableWaitsForInFlightRender(t *testing.T) {
	store := NewConfigStore(DefaultDocument())
	embed := &gatedEmbed{entered: make(chan struct{}), release: make(chan struct{})}
	preview := NewPreviewScheduler(PreviewOptions{
		Store: store,
		Embed: embed,
		Clock: clock.NewMock(),
	})
	defer preview.Close()
	ctx := context.Background()

	enabled := make(chan struct{})
	go func() {
		defer close(enabled)
		preview.Enable(ctx)
	}()
	<-embed.entered

	disabled := make(chan struct{})
	go func() {
		defer close(disabled)
		preview.Disable(ctx)
	}()

	select {
	case <-disabled:
		t.Fatal("disable returned while a render was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(embed.release)
	<-enabled
	<-disabled

	assert.Equal(t, []string{"init", "remove"}, embed.Order())
	assert.False(t, preview.Status().Enabled)
}

func TestPreviewScriptLoadIgnoresCallerCancellation(t *testing.T) {
	store := NewConfigStore(DefaultDocument())
	embed := &recordingEmbed{}
	preview := NewPreviewScheduler(PreviewOptions{
		Store: store,
		Embed: embed,
		Clock: clock.NewMock(),
		Loader: ScriptLoaderFunc(func(ctx context.Context, _ string) error {
			return ctx.Err()
		}),
	})
	defer preview.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	preview.Enable(ctx)

	status := preview.Status()
	assert.True(t, status.ScriptLoaded)
	assert.Empty(t, status.LastError)
	assert.Len(t, embed.Inits(), 1)
}
