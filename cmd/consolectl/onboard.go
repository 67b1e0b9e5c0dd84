package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/commands"
)

type onboardCmd struct {
	Retries int `default:"0" help:"Restart the whole sequence this many times after a halt."`
}

func (cmd *onboardCmd) Run(ctx context.Context, g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	console := env.console(consent.ConsoleOptions{})
	defer env.close(console)

	orchestrator := console.Onboarding()
	start := commands.NewStartOnboardingCommand(orchestrator, env.telemetry)
	retry := commands.NewRetryOnboardingCommand(orchestrator, env.telemetry)

	if err := start.Execute(ctx, commands.StartOnboardingInput{ActorID: env.cfg.ActorID}); err != nil {
		return fmt.Errorf("consolectl: onboarding: %w", err)
	}
	for attempt := 0; attempt < cmd.Retries && orchestrator.Phase().State == consent.StateHalted; attempt++ {
		printSteps(os.Stdout, orchestrator.Steps())
		fmt.Fprintf(os.Stdout, "retrying (%d/%d)\n", attempt+1, cmd.Retries)
		if err := retry.Execute(ctx, commands.RetryOnboardingInput{ActorID: env.cfg.ActorID}); err != nil {
			return fmt.Errorf("consolectl: retry: %w", err)
		}
	}

	phase := orchestrator.Phase()
	steps := orchestrator.Steps()
	if phase.State == consent.StateCompleted && steps[0].Status == consent.StepPending {
		fmt.Fprintln(os.Stdout, "✓ Onboarding already completed")
		return nil
	}
	printSteps(os.Stdout, steps)
	if phase.State == consent.StateHalted {
		return fmt.Errorf("consolectl: onboarding halted at step %d", phase.Step+1)
	}
	return nil
}

func printSteps(out io.Writer, steps []consent.Step) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", step.Title, step.Status, step.Description)
	}
	_ = w.Flush()
}
