package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/internal/config"
	"github.com/goliatone/go-consent/internal/logging"
	"github.com/goliatone/go-consent/pkg/activity"
	"github.com/goliatone/go-consent/pkg/activity/usersink"
	"github.com/goliatone/go-consent/pkg/gateway"
)

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Serve the console API, preview page and live event socket."`
	Onboard  onboardCmd  `cmd:"" help:"Run the onboarding steps against the remote service."`
	Settings settingsCmd `cmd:"" help:"Inspect or save banner settings."`
}

// Globals override values read from the CONSENT_* environment.
type Globals struct {
	BaseURL   string `name:"base-url" help:"Remote REST root, e.g. https://site.test/wp-json."`
	Nonce     string `help:"Request nonce sent as X-WP-Nonce."`
	Mock      bool   `help:"Use the in-memory gateway instead of the remote service."`
	LogLevel  string `name:"log-level" help:"debug, info, warn or error."`
	LogFormat string `name:"log-format" help:"json or console."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("consolectl"),
		kong.Description("Consent banner settings console."),
		kong.UsageOnError(),
		kong.Bind(&root.Globals),
	)
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.BindTo(runCtx, (*context.Context)(nil))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// environment is everything a command needs once configuration is resolved.
type environment struct {
	cfg       config.Config
	logger    *zap.Logger
	client    gateway.Client
	observer  activity.StepObserver
	telemetry activity.Telemetry
}

func (g *Globals) setup() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	g.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	client, err := newGateway(cfg)
	if err != nil {
		return nil, err
	}
	emitter := activity.NewEmitter(activity.Hooks{
		usersink.Hook{Sink: logSink{logger: logger.Named("activity")}},
	}, cfg.Activity)
	actor := activity.Actor{ActorID: cfg.ActorID}
	return &environment{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		observer:  activity.StepObserver{Emitter: emitter, Actor: actor},
		telemetry: activity.Telemetry{Emitter: emitter, Actor: actor},
	}, nil
}

func (g *Globals) apply(cfg *config.Config) {
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
	}
	if g.Nonce != "" {
		cfg.Nonce = g.Nonce
	}
	if g.Mock {
		cfg.Mock = true
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}
}

func newGateway(cfg config.Config) (gateway.Client, error) {
	if cfg.Mock {
		return gateway.NewMockClient(gateway.MockData{ShowWelcome: true}), nil
	}
	client, err := gateway.NewHTTPClient(gateway.HTTPConfig{
		BaseURL:   cfg.BaseURL,
		Namespace: cfg.Namespace,
		Nonce:     cfg.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("consolectl: gateway: %w", err)
	}
	return client, nil
}

// console wires a Console with activity reporting. Extra options (hub,
// loader) are layered on by the caller.
func (env *environment) console(opts consent.ConsoleOptions) *consent.Console {
	opts.Settings = env.client
	opts.Onboarding = env.client
	opts.Observers = append(opts.Observers, env.observer)
	opts.Telemetry = env.telemetry
	opts.Logger = env.logger
	opts.ScriptURL = env.cfg.ScriptURL
	opts.SelectorID = env.cfg.SelectorID
	opts.SettleDelay = env.cfg.SettleDelay
	opts.BannerDelay = env.cfg.BannerDelay
	opts.StepTimeout = env.cfg.StepTimeout
	return consent.NewConsole(opts)
}

func (env *environment) close(console *consent.Console) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	console.Close(ctx)
	_ = env.logger.Sync()
}
