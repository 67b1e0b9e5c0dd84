package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/commands"
)

type settingsCmd struct {
	Show settingsShowCmd `cmd:"" help:"Print the saved settings and banner document."`
	Save settingsSaveCmd `cmd:"" help:"Apply --set overrides to the saved settings and save them."`
}

type settingsShowCmd struct {
	Format string `enum:"yaml,json" default:"yaml" help:"Output format (yaml or json)."`
}

func (cmd *settingsShowCmd) Run(ctx context.Context, g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	console := env.console(consent.ConsoleOptions{})
	defer env.close(console)

	settings, err := console.Settings().Load(ctx)
	if err != nil {
		return fmt.Errorf("consolectl: load settings: %w", err)
	}
	return writeSettings(os.Stdout, cmd.Format, settings)
}

type settingsSaveCmd struct {
	Set    []string `short:"s" help:"key=value override, e.g. theme.background=#101010 or gtm_enabled=true."`
	DryRun bool     `name:"dry-run" help:"Validate and print the result without saving."`
}

func (cmd *settingsSaveCmd) Run(ctx context.Context, g *Globals) error {
	changes, err := parseAssignments(cmd.Set)
	if err != nil {
		return err
	}
	env, err := g.setup()
	if err != nil {
		return err
	}
	console := env.console(consent.ConsoleOptions{})
	defer env.close(console)

	if _, err := console.Settings().Load(ctx); err != nil {
		return fmt.Errorf("consolectl: load settings: %w", err)
	}
	if err := applyAssignments(ctx, console, env.telemetry, changes); err != nil {
		return err
	}

	if cmd.DryRun {
		if err := console.Settings().Validate(console.Settings().Current()); err != nil {
			return err
		}
		return writeSettings(os.Stdout, "yaml", console.Settings().Current())
	}

	var result consent.SaveResult
	save := commands.NewSaveSettingsCommand(console.Settings(), env.telemetry)
	err = save.Execute(ctx, commands.SaveSettingsInput{ActorID: env.cfg.ActorID, Result: &result})
	if errors.Is(err, commands.ErrSaveRejected) {
		return fmt.Errorf("consolectl: %s", result.Error)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s\n", result.Success)
	return nil
}

func applyAssignments(ctx context.Context, console *consent.Console, telemetry commands.Telemetry, changes assignments) error {
	update := commands.NewUpdateSettingsCommand(console.Settings(), telemetry)
	if err := update.Execute(ctx, changes.settings); err != nil {
		return err
	}
	patch := commands.NewPatchDocumentCommand(console.Store(), telemetry)
	for _, input := range changes.patches {
		if err := patch.Execute(ctx, input); err != nil {
			return err
		}
	}
	return nil
}

func writeSettings(out io.Writer, format string, settings consent.Settings) error {
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(settings)
	}
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(settings)
}
