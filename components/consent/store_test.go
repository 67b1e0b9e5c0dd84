package consent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStoreLastWriteWins(t *testing.T) {
	store := NewConfigStore(DefaultDocument())

	store.PatchField(FieldLayout, "banner")
	store.PatchField(FieldLayout, "popup")
	store.PatchField(FieldAlignment, "bottom-right")

	doc := store.Get()
	assert.Equal(t, "popup", doc.Layout)
	assert.Equal(t, "bottom-right", doc.Alignment)
}

func TestConfigStoreSchemeSwitchAppliesPreset(t *testing.T) {
	store := NewConfigStore(DefaultDocument())

	store.SwitchScheme(SchemeDark)

	doc := store.Get()
	assert.Equal(t, SchemeDark, doc.Type)
	assert.True(t, doc.Theme.Equal(MustPreset(SchemeDark)))

	store.SwitchScheme(SchemeLight)
	assert.True(t, store.Get().Theme.Equal(MustPreset(SchemeLight)))
}

func TestConfigStoreCustomKeepsCurrentColors(t *testing.T) {
	store := NewConfigStore(DefaultDocument())
	store.SwitchScheme(SchemeDark)

	store.SwitchScheme(SchemeCustom)
	store.PatchButton(ButtonAccept, PropertyBackground, "#ff0000")

	doc := store.Get()
	assert.Equal(t, SchemeCustom, doc.Type)
	assert.Equal(t, "#ff0000", doc.Theme["buttonAcceptBackGround"])
	assert.Equal(t, MustPreset(SchemeDark)[ThemeBackground], doc.Theme[ThemeBackground])
	assert.Len(t, doc.Theme, len(ThemeKeys()))
}

func TestConfigStoreGetReturnsCopy(t *testing.T) {
	store := NewConfigStore(DefaultDocument())

	doc := store.Get()
	doc.Theme[ThemeBackground] = "#000000"
	doc.Layout = "mutated"

	fresh := store.Get()
	assert.Equal(t, "box", fresh.Layout)
	assert.Equal(t, MustPreset(SchemeLight)[ThemeBackground], fresh.Theme[ThemeBackground])
}

func TestConfigStoreNotifiesListenersSynchronously(t *testing.T) {
	store := NewConfigStore(DefaultDocument())
	var seen []Document
	unsubscribe := store.Subscribe(ChangeListenerFunc(func(doc Document) {
		seen = append(seen, doc)
	}))

	store.PatchField(ThemeField(ThemeHighlight), "#123456")
	require.Len(t, seen, 1)
	assert.Equal(t, "#123456", seen[0].Theme[ThemeHighlight])

	unsubscribe()
	store.PatchField(FieldLayout, "banner")
	assert.Len(t, seen, 1)
}

func TestConfigStoreReplaceNormalizesPresetDocuments(t *testing.T) {
	store := NewConfigStore(DefaultDocument())

	store.Replace(Document{
		Layout: "banner",
		Type:   SchemeDark,
		Theme:  Theme{ThemeBackground: "#abcdef"},
	})

	doc := store.Get()
	assert.Equal(t, RegulationGDPR, doc.Regulation)
	assert.True(t, doc.Theme.Equal(MustPreset(SchemeDark)))
}

func TestConfigStorePanicsOnUnknownPath(t *testing.T) {
	store := NewConfigStore(DefaultDocument())

	assert.Panics(t, func() { store.PatchField("theme.unknown", "#fff") })
	assert.Panics(t, func() { store.PatchField("colour", "red") })
	assert.Panics(t, func() { store.PatchField(FieldType, "Sepia") })
}

func TestValidateFieldPatch(t *testing.T) {
	assert.NoError(t, ValidateFieldPatch(FieldBannerContent, "custom"))
	assert.NoError(t, ValidateFieldPatch(ThemeField("buttonRejectBorder"), "#fff"))
	assert.Error(t, ValidateFieldPatch(ThemeField("buttonRejectShadow"), "#fff"))
	assert.Error(t, ValidateFieldPatch(FieldType, "Sepia"))
	assert.NoError(t, ValidateFieldPatch(FieldRegulation, string(RegulationUS)))
	assert.ErrorIs(t, ValidateFieldPatch(FieldRegulation, "ccpa"), ErrUnknownRegulation)
	assert.ErrorIs(t, ValidateFieldPatch(FieldRegulation, ""), ErrUnknownRegulation)
}
