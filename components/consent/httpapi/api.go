package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/commands"
	"github.com/goliatone/go-consent/components/consent/queries"
)

// Executor is the transport-neutral API used by router adapters.
type Executor interface {
	PatchDocument(ctx context.Context, input commands.PatchDocumentInput) error
	PatchButton(ctx context.Context, input commands.PatchButtonInput) error
	SwitchScheme(ctx context.Context, input commands.SwitchSchemeInput) error
	TogglePreview(ctx context.Context, input commands.TogglePreviewInput) error
	UpdateSettings(ctx context.Context, input commands.UpdateSettingsInput) error
	SaveSettings(ctx context.Context) (consent.SaveResult, error)
	StartOnboarding(ctx context.Context, input commands.StartOnboardingInput) error
	RetryOnboarding(ctx context.Context, input commands.RetryOnboardingInput) error
	ExecuteStep(ctx context.Context, input commands.ExecuteStepInput) error
	State(ctx context.Context) (consent.State, error)
}

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Patch    gocommand.Commander[commands.PatchDocumentInput]
	Button   gocommand.Commander[commands.PatchButtonInput]
	Scheme   gocommand.Commander[commands.SwitchSchemeInput]
	Preview  gocommand.Commander[commands.TogglePreviewInput]
	Update   gocommand.Commander[commands.UpdateSettingsInput]
	Save     gocommand.Commander[commands.SaveSettingsInput]
	Start    gocommand.Commander[commands.StartOnboardingInput]
	Retry    gocommand.Commander[commands.RetryOnboardingInput]
	Step     gocommand.Commander[commands.ExecuteStepInput]
	Snapshot gocommand.Querier[queries.StateRequest, consent.State]
}

var _ Executor = (*Handlers)(nil)

var errNotConfigured = errors.New("httpapi: handler not configured")

// NewHandlers wires every command against a console.
func NewHandlers(console *consent.Console, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Patch:    commands.NewPatchDocumentCommand(console.Store(), telemetry),
		Button:   commands.NewPatchButtonCommand(console.Store(), telemetry),
		Scheme:   commands.NewSwitchSchemeCommand(console.Store(), telemetry),
		Preview:  commands.NewTogglePreviewCommand(console.Preview(), telemetry),
		Update:   commands.NewUpdateSettingsCommand(console.Settings(), telemetry),
		Save:     commands.NewSaveSettingsCommand(console.Settings(), telemetry),
		Start:    commands.NewStartOnboardingCommand(console.Onboarding(), telemetry),
		Retry:    commands.NewRetryOnboardingCommand(console.Onboarding(), telemetry),
		Step:     commands.NewExecuteStepCommand(console.Onboarding()),
		Snapshot: queries.NewStateQuery(console),
	}
}

func (h *Handlers) PatchDocument(ctx context.Context, input commands.PatchDocumentInput) error {
	return execute(ctx, h.Patch, input)
}

func (h *Handlers) PatchButton(ctx context.Context, input commands.PatchButtonInput) error {
	return execute(ctx, h.Button, input)
}

func (h *Handlers) SwitchScheme(ctx context.Context, input commands.SwitchSchemeInput) error {
	return execute(ctx, h.Scheme, input)
}

func (h *Handlers) TogglePreview(ctx context.Context, input commands.TogglePreviewInput) error {
	return execute(ctx, h.Preview, input)
}

func (h *Handlers) UpdateSettings(ctx context.Context, input commands.UpdateSettingsInput) error {
	return execute(ctx, h.Update, input)
}

func (h *Handlers) SaveSettings(ctx context.Context) (consent.SaveResult, error) {
	var result consent.SaveResult
	err := execute(ctx, h.Save, commands.SaveSettingsInput{Result: &result})
	return result, err
}

func (h *Handlers) StartOnboarding(ctx context.Context, input commands.StartOnboardingInput) error {
	return execute(ctx, h.Start, input)
}

func (h *Handlers) RetryOnboarding(ctx context.Context, input commands.RetryOnboardingInput) error {
	return execute(ctx, h.Retry, input)
}

func (h *Handlers) ExecuteStep(ctx context.Context, input commands.ExecuteStepInput) error {
	return execute(ctx, h.Step, input)
}

func (h *Handlers) State(ctx context.Context) (consent.State, error) {
	if h.Snapshot == nil {
		return consent.State{}, errNotConfigured
	}
	return h.Snapshot.Query(ctx, queries.StateRequest{})
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errNotConfigured
	}
	return cmd.Execute(ctx, msg)
}

// Register mounts the handlers on mux under base, e.g. "/console".
func (h *Handlers) Register(mux *http.ServeMux, base string) {
	mux.HandleFunc("GET "+base+"/state", h.HandleState)
	mux.HandleFunc("POST "+base+"/document", h.HandlePatchDocument)
	mux.HandleFunc("POST "+base+"/document/button", h.HandlePatchButton)
	mux.HandleFunc("POST "+base+"/document/scheme", h.HandleSwitchScheme)
	mux.HandleFunc("POST "+base+"/preview", h.HandleTogglePreview)
	mux.HandleFunc("POST "+base+"/settings", h.HandleUpdateSettings)
	mux.HandleFunc("POST "+base+"/settings/save", h.HandleSaveSettings)
	mux.HandleFunc("POST "+base+"/onboarding/start", h.HandleStartOnboarding)
	mux.HandleFunc("POST "+base+"/onboarding/retry", h.HandleRetryOnboarding)
	mux.HandleFunc("POST "+base+"/onboarding/step", h.HandleExecuteStep)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.State(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) HandlePatchDocument(w http.ResponseWriter, r *http.Request) {
	var payload commands.PatchDocumentInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.PatchDocument(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandlePatchButton(w http.ResponseWriter, r *http.Request) {
	var payload commands.PatchButtonInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.PatchButton(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSwitchScheme(w http.ResponseWriter, r *http.Request) {
	var payload commands.SwitchSchemeInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.SwitchScheme(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleTogglePreview(w http.ResponseWriter, r *http.Request) {
	var payload commands.TogglePreviewInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.TogglePreview(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload commands.UpdateSettingsInput
	if !decode(w, r, &payload) {
		return
	}
	if err := h.UpdateSettings(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.SaveSettings(r.Context())
	switch {
	case errors.Is(err, commands.ErrSaveRejected):
		writeJSON(w, http.StatusUnprocessableEntity, result)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handlers) HandleStartOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.StartOnboarding(r.Context(), commands.StartOnboardingInput{}); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleRetryOnboarding(w http.ResponseWriter, r *http.Request) {
	err := h.RetryOnboarding(r.Context(), commands.RetryOnboardingInput{})
	switch {
	case errors.Is(err, consent.ErrNotHalted):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handlers) HandleExecuteStep(w http.ResponseWriter, r *http.Request) {
	var payload commands.ExecuteStepInput
	if !decode(w, r, &payload) {
		return
	}
	err := h.ExecuteStep(r.Context(), payload)
	switch {
	case errors.Is(err, commands.ErrStepNotRunnable):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
