package consent

import "strings"

// SchemeType selects which preset populates the banner theme.
type SchemeType string

const (
	SchemeLight  SchemeType = "Light"
	SchemeDark   SchemeType = "Dark"
	SchemeCustom SchemeType = "Custom"
)

// RegulationID identifies the consent regime the banner is rendered for.
type RegulationID string

const (
	RegulationGDPR RegulationID = "gdpr"
	RegulationUS   RegulationID = "us"
)

// Button names a consent-action button whose colors can be customized.
type Button string

const (
	ButtonReject    Button = "buttonReject"
	ButtonAccept    Button = "buttonAccept"
	ButtonCustomize Button = "buttonCustomize"
)

// ButtonProperty names one of the color properties of a button.
type ButtonProperty string

const (
	PropertyBackground ButtonProperty = "BackGround"
	PropertyTextColor  ButtonProperty = "TextColor"
	PropertyBorder     ButtonProperty = "Border"
)

// Banner level theme keys.
const (
	ThemeBackground = "background"
	ThemeTextColor  = "textColor"
	ThemeHighlight  = "highlight"
)

// Field paths accepted by ConfigStore.PatchField.
const (
	FieldLayout        = "layout"
	FieldAlignment     = "alignment"
	FieldBannerContent = "bannerContent"
	FieldRegulation    = "regulation"
	FieldType          = "type"
	themeFieldPrefix   = "theme."
)

var (
	allButtons    = []Button{ButtonReject, ButtonAccept, ButtonCustomize}
	allProperties = []ButtonProperty{PropertyBackground, PropertyTextColor, PropertyBorder}
)

// ThemeKey builds the compound theme key for a button property, e.g.
// buttonRejectBackGround.
func ThemeKey(button Button, property ButtonProperty) string {
	return string(button) + string(property)
}

// ThemeField returns the PatchField path for a theme key.
func ThemeField(key string) string {
	return themeFieldPrefix + key
}

// ThemeKeys lists every key a theme map may carry.
func ThemeKeys() []string {
	keys := []string{ThemeBackground, ThemeTextColor, ThemeHighlight}
	for _, button := range allButtons {
		for _, prop := range allProperties {
			keys = append(keys, ThemeKey(button, prop))
		}
	}
	return keys
}

// Theme is the flat color map consumed by the embed.
type Theme map[string]string

// Document is the banner configuration edited by the console.
type Document struct {
	Layout        string       `json:"layout" yaml:"layout"`
	Alignment     string       `json:"alignment" yaml:"alignment"`
	BannerContent string       `json:"bannerContent" yaml:"bannerContent"`
	Type          SchemeType   `json:"type" yaml:"type"`
	Regulation    RegulationID `json:"regulation" yaml:"regulation"`
	Theme         Theme        `json:"theme" yaml:"theme"`
}

// DefaultDocument returns the document used when the remote service has no
// stored configuration.
func DefaultDocument() Document {
	return Document{
		Layout:        "box",
		Alignment:     "bottom-left",
		BannerContent: "default",
		Type:          SchemeLight,
		Regulation:    RegulationGDPR,
		Theme:         MustPreset(SchemeLight),
	}
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	out := d
	out.Theme = d.Theme.Clone()
	return out
}

// Clone deep-copies the theme map.
func (t Theme) Clone() Theme {
	if t == nil {
		return nil
	}
	out := make(Theme, len(t))
	for key, value := range t {
		out[key] = value
	}
	return out
}

// Equal reports whether both themes carry the same keys and values.
func (t Theme) Equal(other Theme) bool {
	if len(t) != len(other) {
		return false
	}
	for key, value := range t {
		if v, ok := other[key]; !ok || v != value {
			return false
		}
	}
	return true
}

func isThemeKey(key string) bool {
	switch key {
	case ThemeBackground, ThemeTextColor, ThemeHighlight:
		return true
	}
	for _, button := range allButtons {
		if !strings.HasPrefix(key, string(button)) {
			continue
		}
		prop := ButtonProperty(strings.TrimPrefix(key, string(button)))
		for _, candidate := range allProperties {
			if prop == candidate {
				return true
			}
		}
	}
	return false
}

func validScheme(scheme SchemeType) bool {
	switch scheme {
	case SchemeLight, SchemeDark, SchemeCustom:
		return true
	}
	return false
}
