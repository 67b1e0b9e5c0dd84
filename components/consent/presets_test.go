package consent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasCompletePresets(t *testing.T) {
	catalog := DefaultCatalog()

	for _, scheme := range []SchemeType{SchemeLight, SchemeDark} {
		theme, ok := catalog.Preset(scheme)
		require.True(t, ok, scheme)
		assert.Len(t, theme, len(ThemeKeys()))
	}
	_, ok := catalog.Preset(SchemeCustom)
	assert.False(t, ok)
}

func TestVisibleThemeKeysFollowsRegulationButtons(t *testing.T) {
	gdpr := VisibleThemeKeys(RegulationGDPR)
	us := VisibleThemeKeys(RegulationUS)

	assert.Len(t, gdpr, len(ThemeKeys()))
	assert.Contains(t, us, "buttonRejectBackGround")
	assert.NotContains(t, us, "buttonAcceptBackGround")
}

func TestDecodeCatalogRejectsUnknownFields(t *testing.T) {
	_, err := DecodeCatalog(strings.NewReader("version: 1\nextra: true\n"))
	require.Error(t, err)
}

func TestDecodeCatalogRejectsCustomPreset(t *testing.T) {
	var b strings.Builder
	b.WriteString("version: 1\nschemes:\n")
	for _, scheme := range []string{"Light", "Dark", "Custom"} {
		b.WriteString("  " + scheme + ":\n")
		for _, key := range ThemeKeys() {
			b.WriteString("    " + key + ": \"#ffffff\"\n")
		}
	}
	b.WriteString("regulations:\n  - id: gdpr\n    buttons: [buttonReject]\n")

	_, err := DecodeCatalog(strings.NewReader(b.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Custom")
}

func TestDecodeCatalogRejectsEmpty(t *testing.T) {
	_, err := DecodeCatalog(strings.NewReader(""))
	require.Error(t, err)
}

func TestMustPresetPanicsForCustom(t *testing.T) {
	assert.Panics(t, func() { MustPreset(SchemeCustom) })
}
