package consent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"
)

const (
	// DefaultBannerDelay is how long the local "create banner" step takes.
	DefaultBannerDelay = time.Second
	// DefaultCompletionDelay is how long after the last step the onboarding
	// flag is flipped locally.
	DefaultCompletionDelay = time.Second
	// DefaultStepTimeout bounds each remote step call.
	DefaultStepTimeout = 30 * time.Second
)

var (
	errMissingOnboardingClient = errors.New("consent: onboarding client not configured")
	// ErrNotHalted is returned by RetryAll when no step has failed.
	ErrNotHalted = errors.New("consent: onboarding is not halted")
)

// StepStatus is the lifecycle status of an onboarding step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// Step is the observable record of one onboarding step.
type Step struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Status      StepStatus `json:"status"`
	Description string     `json:"description"`
}

// MachineState enumerates the orchestrator states.
type MachineState int

const (
	StateNotStarted MachineState = iota
	StateRunning
	StateHalted
	StateCompleted
)

func (s MachineState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON payloads.
func (s MachineState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *MachineState) UnmarshalText(text []byte) error {
	for _, candidate := range []MachineState{StateNotStarted, StateRunning, StateHalted, StateCompleted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("consent: unknown machine state %q", text)
}

// Phase is the orchestrator state plus the step index it refers to. Step is
// meaningful for Running and Halted.
type Phase struct {
	State MachineState `json:"state"`
	Step  int          `json:"step"`
}

// StepEvent describes a step change delivered to observers.
type StepEvent struct {
	Index int       `json:"index"`
	Step  Step      `json:"step"`
	Phase Phase     `json:"phase"`
	At    time.Time `json:"at"`
}

// OnboardingOptions configures an Orchestrator.
type OnboardingOptions struct {
	Client          OnboardingClient
	Observer        StepObserver
	Telemetry       Telemetry
	Logger          *zap.Logger
	Clock           clock.Clock
	BannerDelay     time.Duration
	CompletionDelay time.Duration
	StepTimeout     time.Duration
}

type stepAction func(ctx context.Context) (bool, error)

type stepDefinition struct {
	id       int
	title    string
	progress string
	success  string
	failure  string
	action   stepAction
}

const stepErrorDescription = "An error occurred."

// Orchestrator runs the fixed onboarding sequence one step at a time. A
// failed step halts the sequence until RetryAll restarts it from step one.
type Orchestrator struct {
	opts        OnboardingOptions
	definitions []stepDefinition

	mu              sync.Mutex
	steps           []Step
	phase           Phase
	inFlight        bool
	needsOnboarding bool
}

// NewOrchestrator builds an orchestrator with safe defaults.
func NewOrchestrator(opts OnboardingOptions) *Orchestrator {
	if opts.Observer == nil {
		opts.Observer = noopStepObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.BannerDelay <= 0 {
		opts.BannerDelay = DefaultBannerDelay
	}
	if opts.CompletionDelay <= 0 {
		opts.CompletionDelay = DefaultCompletionDelay
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	o := &Orchestrator{opts: opts}
	o.definitions = o.stepDefinitions()
	o.steps = freshSteps(o.definitions)
	return o
}

func (o *Orchestrator) stepDefinitions() []stepDefinition {
	remote := func(call func(OnboardingClient, context.Context) (StepResponse, error)) stepAction {
		return func(ctx context.Context) (bool, error) {
			if o.opts.Client == nil {
				return false, errMissingOnboardingClient
			}
			resp, err := call(o.opts.Client, ctx)
			if err != nil {
				return false, err
			}
			return resp.Status, nil
		}
	}
	return []stepDefinition{
		{
			id:       1,
			title:    "1. Registering your domain",
			progress: "Registering your domain...",
			success:  "Domain registered successfully!",
			failure:  "Domain registration failed.",
			action:   remote(OnboardingClient.RegisterDomain),
		},
		{
			id:       2,
			title:    "2. Scanning your site for cookies",
			progress: "Scanning your site for cookies...",
			success:  "Cookies scanned successfully.",
			failure:  "Cookie scanning failed.",
			action:   remote(OnboardingClient.QuickScan),
		},
		{
			id:       3,
			title:    "3. Creating your banner",
			progress: "Creating your banner...",
			success:  "Banner created successfully.",
			failure:  stepErrorDescription,
			action:   o.createBanner,
		},
		{
			id:       4,
			title:    "4. Activating consent management",
			progress: "Activating consent management...",
			success:  "Consent management activated.",
			failure:  "Activation failed.",
			action:   remote(OnboardingClient.EnableConsentManagement),
		},
	}
}

func freshSteps(defs []stepDefinition) []Step {
	steps := make([]Step, len(defs))
	for idx, def := range defs {
		steps[idx] = Step{ID: def.id, Title: def.title, Status: StepPending}
	}
	return steps
}

// Start reads the onboarding flag and, when onboarding is needed, runs the
// sequence until it completes or halts. A run whose context ended between
// steps is resumed at the step it was waiting on; otherwise calling Start
// again is a no-op.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.opts.Client == nil {
		return errMissingOnboardingClient
	}
	o.mu.Lock()
	state := o.phase.State
	resume := state == StateRunning && !o.inFlight
	step := o.phase.Step
	o.mu.Unlock()
	if resume {
		o.opts.Telemetry.Record(ctx, "consent.onboarding.resume", map[string]any{"step": step})
		o.run(ctx)
		return nil
	}
	if state != StateNotStarted {
		return nil
	}

	needed, err := o.opts.Client.WelcomeStatus(ctx)
	if err != nil {
		o.opts.Logger.Error("fetch welcome status", zap.Error(err))
		return fmt.Errorf("consent: fetch welcome status: %w", err)
	}

	o.mu.Lock()
	if o.phase.State != StateNotStarted {
		o.mu.Unlock()
		return nil
	}
	o.needsOnboarding = needed
	if needed {
		o.phase = Phase{State: StateRunning, Step: 0}
	} else {
		o.phase = Phase{State: StateCompleted}
	}
	o.mu.Unlock()

	o.opts.Telemetry.Record(ctx, "consent.onboarding.start", map[string]any{"needed": needed})
	if needed {
		o.run(ctx)
	}
	return nil
}

// RetryAll resets every step to pending and reruns the whole sequence from
// the first step, including steps that already succeeded.
func (o *Orchestrator) RetryAll(ctx context.Context) error {
	o.mu.Lock()
	if o.phase.State != StateHalted {
		o.mu.Unlock()
		return ErrNotHalted
	}
	halted := o.phase.Step
	o.steps = freshSteps(o.definitions)
	o.phase = Phase{State: StateRunning, Step: 0}
	o.mu.Unlock()

	o.opts.Telemetry.Record(ctx, "consent.onboarding.retry", map[string]any{"halted_step": halted})
	o.run(ctx)
	return nil
}

// ExecuteStep runs step idx when the machine is waiting on it. Calls for any
// other index, or while a step is in flight, return false without side
// effects.
func (o *Orchestrator) ExecuteStep(ctx context.Context, idx int) bool {
	o.mu.Lock()
	if o.inFlight || o.phase.State != StateRunning || o.phase.Step != idx {
		o.mu.Unlock()
		return false
	}
	o.inFlight = true
	def := o.definitions[idx]
	pending := o.updateStepLocked(idx, StepPending, def.progress)
	o.mu.Unlock()
	o.notify(ctx, pending)

	ok, err := o.perform(ctx, def)
	description := def.success
	status := StepSuccess
	if err != nil {
		status, description = StepFailed, stepErrorDescription
		o.opts.Logger.Warn("onboarding step errored",
			zap.Int("step", def.id),
			zap.Error(err),
		)
	} else if !ok {
		status, description = StepFailed, def.failure
	}

	o.mu.Lock()
	o.inFlight = false
	final := o.updateStepLocked(idx, status, description)
	switch {
	case status == StepFailed:
		o.phase = Phase{State: StateHalted, Step: idx}
	case idx == len(o.definitions)-1:
		o.phase = Phase{State: StateCompleted}
		o.opts.Clock.AfterFunc(o.opts.CompletionDelay, o.markOnboarded)
	default:
		o.phase = Phase{State: StateRunning, Step: idx + 1}
	}
	final.Phase = o.phase
	o.mu.Unlock()

	o.notify(ctx, final)
	o.opts.Telemetry.Record(ctx, "consent.onboarding.step", map[string]any{
		"step":   def.id,
		"status": string(status),
	})
	return true
}

// Steps returns a copy of the step records.
func (o *Orchestrator) Steps() []Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Step, len(o.steps))
	copy(out, o.steps)
	return out
}

// Phase returns the current machine phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// NeedsOnboarding reports the local copy of the remote onboarding flag.
func (o *Orchestrator) NeedsOnboarding() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.needsOnboarding
}

func (o *Orchestrator) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		phase := o.Phase()
		if phase.State != StateRunning {
			return
		}
		if !o.ExecuteStep(ctx, phase.Step) {
			return
		}
	}
}

func (o *Orchestrator) perform(ctx context.Context, def stepDefinition) (ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StepTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("consent: step %d panicked: %v", def.id, r)
		}
	}()
	return def.action(ctx)
}

func (o *Orchestrator) createBanner(ctx context.Context) (bool, error) {
	select {
	case <-o.opts.Clock.After(o.opts.BannerDelay):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (o *Orchestrator) markOnboarded() {
	o.mu.Lock()
	o.needsOnboarding = false
	o.mu.Unlock()
	o.opts.Telemetry.Record(context.Background(), "consent.onboarding.complete", nil)
}

func (o *Orchestrator) updateStepLocked(idx int, status StepStatus, description string) StepEvent {
	o.steps[idx].Status = status
	o.steps[idx].Description = description
	return StepEvent{
		Index: idx,
		Step:  o.steps[idx],
		Phase: o.phase,
		At:    o.opts.Clock.Now(),
	}
}

func (o *Orchestrator) notify(ctx context.Context, event StepEvent) {
	if err := o.opts.Observer.StepUpdated(ctx, event); err != nil {
		o.opts.Logger.Warn("step observer failed",
			zap.Int("step", event.Step.ID),
			zap.Error(err),
		)
	}
}
