package main

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/gorouter"
	"github.com/goliatone/go-consent/components/consent/httpapi"
)

type serveCmd struct {
	Addr      string `help:"Listen address (defaults to CONSENT_LISTEN_ADDR)."`
	NoLoad    bool   `name:"no-load" help:"Skip fetching saved settings on startup."`
	NoPreview bool   `name:"no-preview" help:"Start with the live preview disabled."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	hub := consent.NewEventHub()
	loader := consent.NewHTTPScriptLoader(nil)
	console := env.console(consent.ConsoleOptions{Hub: hub, Loader: loader})
	defer env.close(console)

	if !cmd.NoLoad {
		if _, err := console.Settings().Load(ctx); err != nil {
			env.logger.Warn("load settings", zap.Error(err))
		}
	}

	renderer, err := consent.NewTemplateRenderer()
	if err != nil {
		return err
	}
	routes := gorouter.Config[*fiber.App]{
		API:      httpapi.NewHandlers(console, env.telemetry),
		Hub:      hub,
		Script:   loader,
		BasePath: env.cfg.BasePath,
	}
	routes.Controller = consent.NewController(consent.ControllerOptions{
		Console:    console,
		Renderer:   renderer,
		SelectorID: env.cfg.SelectorID,
		ScriptPath: routes.ScriptPath(),
		SocketPath: routes.SocketPath(),
	})

	server := router.NewFiberAdapter()
	routes.Router = server.Router()
	if err := gorouter.Register(routes); err != nil {
		return err
	}

	if !cmd.NoPreview {
		console.Preview().Enable(ctx)
	}

	addr := cmd.Addr
	if addr == "" {
		addr = env.cfg.ListenAddr
	}
	env.logger.Info("console ready",
		zap.String("addr", addr),
		zap.String("preview", env.cfg.BasePath+"/preview"),
		zap.String("socket", routes.SocketPath()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	}
}
