package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ettle/strcase"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/goliatone/go-consent/components/consent/commands"
)

// assignments splits --set key=value flags into settings fields and
// document patches. Keys are normalized to the camelCase wire names, so
// theme.button_accept_border and auto-block-cookies both work.
type assignments struct {
	settings commands.UpdateSettingsInput
	patches  []commands.PatchDocumentInput
}

func parseAssignments(pairs []string) (assignments, error) {
	var out assignments
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return assignments{}, fmt.Errorf("consolectl: --set %q must be key=value", pair)
		}
		path := normalizeKey(key)
		if path == "" {
			return assignments{}, fmt.Errorf("consolectl: --set %q has an empty key", pair)
		}
		handled, err := out.setting(path, strings.TrimSpace(value))
		if err != nil {
			return assignments{}, fmt.Errorf("consolectl: --set %s: %w", path, err)
		}
		if handled {
			continue
		}
		if err := consent.ValidateFieldPatch(path, value); err != nil {
			return assignments{}, err
		}
		out.patches = append(out.patches, commands.PatchDocumentInput{Path: path, Value: value})
	}
	return out, nil
}

func (a *assignments) setting(path, value string) (bool, error) {
	switch path {
	case "domainId":
		a.settings.DomainID = &value
	case "gtmId":
		a.settings.GTMID = &value
	case "language":
		a.settings.Language = &value
	case "gtmEnabled", "autoBlockCookies":
		flag, err := strconv.ParseBool(value)
		if err != nil {
			return false, err
		}
		if path == "gtmEnabled" {
			a.settings.GTMEnabled = &flag
		} else {
			a.settings.AutoBlockCookies = &flag
		}
	case "cookiePreference":
		a.settings.CookiePreference = splitList(value)
	case consent.FieldRegulation:
		id := consent.RegulationID(value)
		a.settings.Regulation = &id
	default:
		return false, nil
	}
	return true, nil
}

func normalizeKey(key string) string {
	segments := strings.Split(strings.TrimSpace(key), ".")
	for idx, segment := range segments {
		segments[idx] = strcase.ToCamel(strings.TrimSpace(segment))
	}
	return strings.Join(segments, ".")
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
