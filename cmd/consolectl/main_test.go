package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/internal/config"
	"github.com/goliatone/go-consent/pkg/gateway"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "theme.buttonAcceptBorder", normalizeKey("theme.button_accept_border"))
	assert.Equal(t, "autoBlockCookies", normalizeKey("auto-block-cookies"))
	assert.Equal(t, "bannerContent", normalizeKey("bannerContent"))
	assert.Equal(t, "gtmId", normalizeKey(" gtm_id "))
}

func TestParseAssignments(t *testing.T) {
	changes, err := parseAssignments([]string{
		"domain_id=4f7c2d8e-8c1b-4a55-9c7e-1b2f3a4d5e6f",
		"gtm_enabled=true",
		"cookie_preference=analytics, marketing",
		"regulation=us",
		"layout=banner",
		"theme.background=#101010",
	})
	require.NoError(t, err)

	require.NotNil(t, changes.settings.DomainID)
	require.NotNil(t, changes.settings.GTMEnabled)
	assert.True(t, *changes.settings.GTMEnabled)
	assert.Equal(t, []string{"analytics", "marketing"}, changes.settings.CookiePreference)
	require.NotNil(t, changes.settings.Regulation)
	assert.Equal(t, consent.RegulationUS, *changes.settings.Regulation)
	require.Len(t, changes.patches, 2)
	assert.Equal(t, consent.FieldLayout, changes.patches[0].Path)
	assert.Equal(t, consent.ThemeField(consent.ThemeBackground), changes.patches[1].Path)
}

func TestParseAssignmentsRejectsBadInput(t *testing.T) {
	_, err := parseAssignments([]string{"layout"})
	assert.Error(t, err)

	_, err = parseAssignments([]string{"gtm_enabled=maybe"})
	assert.Error(t, err)

	_, err = parseAssignments([]string{"theme.shadow=#000"})
	assert.Error(t, err)
}

func TestApplyAssignmentsUpdatesConsole(t *testing.T) {
	env := &environment{
		cfg:    config.Config{Mock: true},
		logger: zap.NewNop(),
		client: gateway.NewMockClient(gateway.MockData{}),
	}
	console := env.console(consent.ConsoleOptions{})
	defer console.Close(context.Background())
	changes, err := parseAssignments([]string{"language=fr", "type=Dark"})
	require.NoError(t, err)

	require.NoError(t, applyAssignments(context.Background(), console, env.telemetry, changes))

	assert.Equal(t, "fr", console.Settings().Current().Language)
	assert.Equal(t, consent.SchemeDark, console.Store().Get().Type)
}

func TestGlobalsOverrideConfig(t *testing.T) {
	cfg := config.Config{BaseURL: "https://env.test", LogLevel: "info"}
	g := Globals{BaseURL: "https://flag.test", Mock: true, LogLevel: "debug"}

	g.apply(&cfg)

	assert.Equal(t, "https://flag.test", cfg.BaseURL)
	assert.True(t, cfg.Mock)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestPrintSteps(t *testing.T) {
	var buf bytes.Buffer
	printSteps(&buf, []consent.Step{{ID: 1, Title: "1. Registering your domain", Status: consent.StepFailed, Description: "Domain registration failed."}})

	assert.Contains(t, buf.String(), "Domain registration failed.")
	assert.Contains(t, buf.String(), "failed")
}
