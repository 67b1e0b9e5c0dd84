package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	router "github.com/goliatone/go-router"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/commands"
	"github.com/goliatone/go-consent/components/consent/httpapi"
)

// ActorResolver extracts the acting user from a router.Context.
type ActorResolver func(router.Context) string

// ScriptSource serves the cached embed script to the preview page.
type ScriptSource interface {
	Script() ([]byte, bool)
}

// Config wires go-router with the consent console controller, API and hub.
type Config[T any] struct {
	Router        router.Router[T]
	Controller    *consent.Controller
	API           httpapi.Executor
	Hub           *consent.EventHub
	Script        ScriptSource
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths used for console endpoints.
type RouteConfig struct {
	HTML      string
	State     string
	Script    string
	Document  string
	Button    string
	Scheme    string
	Preview   string
	Settings  string
	Save      string
	Start     string
	Retry     string
	Step      string
	WebSocket string
}

// Register mounts console routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.base()
	actor := cfg.ActorResolver
	if actor == nil {
		actor = defaultActorResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		if err := cfg.Controller.RenderPreview(ctx.Context(), &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		state, err := cfg.Controller.State(ctx.Context())
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, state)
	}))

	if cfg.Script != nil {
		group.Get(routes.Script, router.WrapHandler(func(ctx router.Context) error {
			script, ok := cfg.Script.Script()
			if !ok {
				return respondError(ctx, http.StatusServiceUnavailable, errors.New("embed script not loaded"))
			}
			ctx.SetHeader("Content-Type", "application/javascript")
			return ctx.Send(script)
		}))
	}

	if cfg.API != nil {
		registerAPI(group, cfg.API, actor, routes)
	}

	if cfg.Hub != nil {
		registerWebSocket(group, cfg.Hub, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, actor ActorResolver, routes RouteConfig) {
	r.Post(routes.Document, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.PatchDocumentInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.ActorID = actor(ctx)
		if err := api.PatchDocument(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "patched"})
	}))

	r.Post(routes.Button, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.PatchButtonInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.ActorID = actor(ctx)
		if err := api.PatchButton(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "patched"})
	}))

	r.Post(routes.Scheme, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SwitchSchemeInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.ActorID = actor(ctx)
		if err := api.SwitchScheme(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "switched"})
	}))

	r.Post(routes.Preview, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.TogglePreviewInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.TogglePreview(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]bool{"enabled": payload.Enabled})
	}))

	r.Post(routes.Settings, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.UpdateSettingsInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.UpdateSettings(ctx.Context(), payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Post(routes.Save, router.WrapHandler(func(ctx router.Context) error {
		result, err := api.SaveSettings(ctx.Context())
		switch {
		case errors.Is(err, commands.ErrSaveRejected):
			return ctx.JSON(http.StatusUnprocessableEntity, result)
		case err != nil:
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, result)
	}))

	r.Post(routes.Start, router.WrapHandler(func(ctx router.Context) error {
		if err := api.StartOnboarding(ctx.Context(), commands.StartOnboardingInput{ActorID: actor(ctx)}); err != nil {
			return respondError(ctx, http.StatusBadGateway, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "started"})
	}))

	r.Post(routes.Retry, router.WrapHandler(func(ctx router.Context) error {
		err := api.RetryOnboarding(ctx.Context(), commands.RetryOnboardingInput{ActorID: actor(ctx)})
		switch {
		case errors.Is(err, consent.ErrNotHalted):
			return respondError(ctx, http.StatusConflict, err)
		case err != nil:
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "retrying"})
	}))

	r.Post(routes.Step, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ExecuteStepInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		err := api.ExecuteStep(ctx.Context(), payload)
		switch {
		case errors.Is(err, commands.ErrStepNotRunnable):
			return respondError(ctx, http.StatusConflict, err)
		case err != nil:
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]int{"step": payload.Index})
	}))
}

func registerWebSocket[T any](r router.Router[T], hub *consent.EventHub, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hub.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultActorResolver(ctx router.Context) string {
	if v, ok := ctx.Locals("user_id").(string); ok {
		return v
	}
	return ctx.Header("X-Actor-ID")
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

// SocketPath returns the absolute WebSocket path Register mounts, for
// ControllerOptions.SocketPath.
func (cfg Config[T]) SocketPath() string {
	return cfg.base() + cfg.routes().WebSocket
}

// ScriptPath returns the absolute path serving the cached embed script.
func (cfg Config[T]) ScriptPath() string {
	return cfg.base() + cfg.routes().Script
}

func (cfg Config[T]) base() string {
	if cfg.BasePath == "" {
		return "/console"
	}
	return cfg.BasePath
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/preview"
	}
	if routes.State == "" {
		routes.State = "/state"
	}
	if routes.Script == "" {
		routes.Script = "/preview/embed.js"
	}
	if routes.Document == "" {
		routes.Document = "/document"
	}
	if routes.Button == "" {
		routes.Button = "/document/button"
	}
	if routes.Scheme == "" {
		routes.Scheme = "/document/scheme"
	}
	if routes.Preview == "" {
		routes.Preview = "/preview/toggle"
	}
	if routes.Settings == "" {
		routes.Settings = "/settings"
	}
	if routes.Save == "" {
		routes.Save = "/settings/save"
	}
	if routes.Start == "" {
		routes.Start = "/onboarding/start"
	}
	if routes.Retry == "" {
		routes.Retry = "/onboarding/retry"
	}
	if routes.Step == "" {
		routes.Step = "/onboarding/step"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
