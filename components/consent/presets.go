package consent

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

const catalogVersionV1 = 1

//go:embed presets.yaml
var embeddedCatalog []byte

// Catalog holds the color-scheme presets and the supported regulations.
type Catalog struct {
	Version     int                  `yaml:"version"`
	Schemes     map[SchemeType]Theme `yaml:"schemes"`
	Regulations []Regulation         `yaml:"regulations"`
}

// Regulation describes a consent regime and the buttons its banner shows.
type Regulation struct {
	ID          RegulationID `json:"value" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Description string       `json:"description" yaml:"description"`
	Buttons     []Button     `json:"buttons" yaml:"buttons"`
}

var (
	catalogOnce sync.Once
	catalog     *Catalog
)

// DefaultCatalog returns the embedded preset catalog. A broken embedded
// catalog is a build defect, so decoding failures panic.
func DefaultCatalog() *Catalog {
	catalogOnce.Do(func() {
		decoded, err := DecodeCatalog(bytes.NewReader(embeddedCatalog))
		if err != nil {
			panic(err)
		}
		catalog = decoded
	})
	return catalog
}

// DecodeCatalog reads a preset catalog from YAML.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc Catalog
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("consent: preset catalog is empty")
		}
		return nil, fmt.Errorf("consent: parse preset catalog: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures every non-custom scheme has a complete preset and every
// regulation references known buttons.
func (c *Catalog) Validate() error {
	if c.Version != catalogVersionV1 {
		return fmt.Errorf("consent: unsupported catalog version %d", c.Version)
	}
	for _, scheme := range []SchemeType{SchemeLight, SchemeDark} {
		theme, ok := c.Schemes[scheme]
		if !ok {
			return fmt.Errorf("consent: catalog is missing preset %s", scheme)
		}
		for _, key := range ThemeKeys() {
			if theme[key] == "" {
				return fmt.Errorf("consent: preset %s is missing %s", scheme, key)
			}
		}
	}
	for scheme, theme := range c.Schemes {
		if scheme == SchemeCustom || !validScheme(scheme) {
			return fmt.Errorf("consent: catalog declares unsupported preset %q", scheme)
		}
		for key := range theme {
			if !isThemeKey(key) {
				return fmt.Errorf("consent: preset %s has unknown key %s", scheme, key)
			}
		}
	}
	if len(c.Regulations) == 0 {
		return fmt.Errorf("consent: catalog declares no regulations")
	}
	seen := map[RegulationID]struct{}{}
	for idx, reg := range c.Regulations {
		if reg.ID == "" {
			return fmt.Errorf("consent: regulation at index %d is missing id", idx)
		}
		if _, dup := seen[reg.ID]; dup {
			return fmt.Errorf("consent: catalog duplicates regulation %s", reg.ID)
		}
		seen[reg.ID] = struct{}{}
		for _, button := range reg.Buttons {
			if !isThemeKey(ThemeKey(button, PropertyBorder)) {
				return fmt.Errorf("consent: regulation %s references unknown button %s", reg.ID, button)
			}
		}
	}
	return nil
}

// Preset returns a copy of the preset theme for a scheme. Custom has no preset.
func (c *Catalog) Preset(scheme SchemeType) (Theme, bool) {
	theme, ok := c.Schemes[scheme]
	if !ok {
		return nil, false
	}
	return theme.Clone(), true
}

// Regulation looks up a regulation by id.
func (c *Catalog) Regulation(id RegulationID) (Regulation, bool) {
	for _, reg := range c.Regulations {
		if reg.ID == id {
			return reg, true
		}
	}
	return Regulation{}, false
}

// MustPreset returns the embedded preset for a scheme and panics for schemes
// without one.
func MustPreset(scheme SchemeType) Theme {
	theme, ok := DefaultCatalog().Preset(scheme)
	if !ok {
		panic(fmt.Sprintf("consent: no preset for scheme %q", scheme))
	}
	return theme
}

// Regulations lists the embedded regulations in catalog order.
func Regulations() []Regulation {
	regs := DefaultCatalog().Regulations
	out := make([]Regulation, len(regs))
	copy(out, regs)
	return out
}

// VisibleThemeKeys lists the theme keys that matter for a regulation: the
// banner colors plus the color triple of each button the regulation shows.
func VisibleThemeKeys(id RegulationID) []string {
	keys := []string{ThemeBackground, ThemeTextColor, ThemeHighlight}
	reg, ok := DefaultCatalog().Regulation(id)
	if !ok {
		return keys
	}
	for _, button := range reg.Buttons {
		for _, prop := range allProperties {
			keys = append(keys, ThemeKey(button, prop))
		}
	}
	return keys
}
