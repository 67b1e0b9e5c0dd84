package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

type onboardingService interface {
	Start(ctx context.Context) error
	RetryAll(ctx context.Context) error
	ExecuteStep(ctx context.Context, idx int) bool
}

// StartOnboardingInput starts the onboarding wizard.
type StartOnboardingInput struct {
	ActorID string `json:"actor_id"`
}

// StartOnboardingCommand wraps Orchestrator.Start.
type StartOnboardingCommand struct {
	service   onboardingService
	telemetry Telemetry
}

// NewStartOnboardingCommand creates the command.
func NewStartOnboardingCommand(service onboardingService, telemetry Telemetry) *StartOnboardingCommand {
	return &StartOnboardingCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[StartOnboardingInput] = (*StartOnboardingCommand)(nil)

// Execute runs the wizard until it completes or halts.
func (c *StartOnboardingCommand) Execute(ctx context.Context, msg StartOnboardingInput) error {
	if c.service == nil {
		return errors.New("onboarding command requires orchestrator")
	}
	if err := c.service.Start(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "consent.onboarding.requested", map[string]any{"actor_id": msg.ActorID})
	return nil
}

// RetryOnboardingInput restarts a halted wizard.
type RetryOnboardingInput struct {
	ActorID string `json:"actor_id"`
}

// RetryOnboardingCommand wraps Orchestrator.RetryAll.
type RetryOnboardingCommand struct {
	service   onboardingService
	telemetry Telemetry
}

// NewRetryOnboardingCommand creates the command.
func NewRetryOnboardingCommand(service onboardingService, telemetry Telemetry) *RetryOnboardingCommand {
	return &RetryOnboardingCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RetryOnboardingInput] = (*RetryOnboardingCommand)(nil)

// Execute restarts every step from the first one.
func (c *RetryOnboardingCommand) Execute(ctx context.Context, msg RetryOnboardingInput) error {
	if c.service == nil {
		return errors.New("retry command requires orchestrator")
	}
	if err := c.service.RetryAll(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "consent.onboarding.retried", map[string]any{"actor_id": msg.ActorID})
	return nil
}

// ExecuteStepInput runs one step by index.
type ExecuteStepInput struct {
	Index int `json:"index"`
}

// ErrStepNotRunnable is returned when the step is not the one the wizard is
// waiting on or another step is in flight.
var ErrStepNotRunnable = errors.New("onboarding step is not runnable")

// ExecuteStepCommand wraps Orchestrator.ExecuteStep.
type ExecuteStepCommand struct {
	service onboardingService
}

// NewExecuteStepCommand creates the command.
func NewExecuteStepCommand(service onboardingService) *ExecuteStepCommand {
	return &ExecuteStepCommand{service: service}
}

var _ gocommand.Commander[ExecuteStepInput] = (*ExecuteStepCommand)(nil)

// Execute runs the step.
func (c *ExecuteStepCommand) Execute(ctx context.Context, msg ExecuteStepInput) error {
	if c.service == nil {
		return errors.New("step command requires orchestrator")
	}
	if !c.service.ExecuteStep(ctx, msg.Index) {
		return ErrStepNotRunnable
	}
	return nil
}
