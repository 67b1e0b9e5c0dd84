package consent

import (
	"fmt"
	"strings"
	"sync"
)

// ConfigStore owns the banner configuration document. Mutations go through
// PatchField/PatchButton/Replace and notify listeners synchronously.
type ConfigStore struct {
	mu        sync.RWMutex
	doc       Document
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id       int
	listener ChangeListener
}

// NewConfigStore creates a store seeded with the provided document.
func NewConfigStore(initial Document) *ConfigStore {
	return &ConfigStore{doc: normalizeDocument(initial)}
}

// Subscribe registers a change listener and returns a func that removes it.
func (s *ConfigStore) Subscribe(listener ChangeListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, listener: listener})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for idx, entry := range s.listeners {
			if entry.id == id {
				s.listeners = append(s.listeners[:idx], s.listeners[idx+1:]...)
				return
			}
		}
	}
}

// Get returns a snapshot of the current document.
func (s *ConfigStore) Get() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// PatchField sets a field by path. Setting "type" re-derives the theme from
// the preset table. Unknown paths panic.
func (s *ConfigStore) PatchField(path string, value string) {
	if err := ValidateFieldPatch(path, value); err != nil {
		panic(err.Error())
	}
	s.mutate(func(doc *Document) {
		switch path {
		case FieldLayout:
			doc.Layout = value
		case FieldAlignment:
			doc.Alignment = value
		case FieldBannerContent:
			doc.BannerContent = value
		case FieldRegulation:
			doc.Regulation = RegulationID(value)
		case FieldType:
			applyScheme(doc, SchemeType(value))
		default:
			if doc.Theme == nil {
				doc.Theme = Theme{}
			}
			doc.Theme[strings.TrimPrefix(path, themeFieldPrefix)] = value
		}
	})
}

// PatchButton sets one color property of a consent button.
func (s *ConfigStore) PatchButton(button Button, property ButtonProperty, value string) {
	s.PatchField(ThemeField(ThemeKey(button, property)), value)
}

// SwitchScheme changes the color scheme. It is a document change like any
// other and reaches the preview through the same debounce.
func (s *ConfigStore) SwitchScheme(scheme SchemeType) {
	s.PatchField(FieldType, string(scheme))
}

// Replace swaps the whole document, e.g. after loading remote settings.
func (s *ConfigStore) Replace(doc Document) {
	doc = normalizeDocument(doc)
	s.mutate(func(current *Document) {
		*current = doc
	})
}

func (s *ConfigStore) mutate(fn func(doc *Document)) {
	s.mu.Lock()
	fn(&s.doc)
	snapshot := s.doc.Clone()
	listeners := make([]ChangeListener, len(s.listeners))
	for idx, entry := range s.listeners {
		listeners[idx] = entry.listener
	}
	s.mu.Unlock()
	for _, listener := range listeners {
		listener.DocumentChanged(snapshot)
	}
}

// ValidateFieldPatch reports whether PatchField would accept the path/value
// pair. Transports call it before patching so bad input never panics.
func ValidateFieldPatch(path, value string) error {
	switch path {
	case FieldLayout, FieldAlignment, FieldBannerContent:
		return nil
	case FieldRegulation:
		if _, ok := DefaultCatalog().Regulation(RegulationID(value)); !ok {
			return fmt.Errorf("%w %q", ErrUnknownRegulation, value)
		}
		return nil
	case FieldType:
		if !validScheme(SchemeType(value)) {
			return fmt.Errorf("consent: unknown color scheme %q", value)
		}
		return nil
	}
	if key, ok := strings.CutPrefix(path, themeFieldPrefix); ok && isThemeKey(key) {
		return nil
	}
	return fmt.Errorf("consent: unknown field path %q", path)
}

func applyScheme(doc *Document, scheme SchemeType) {
	doc.Type = scheme
	if scheme == SchemeCustom {
		doc.Theme = completeTheme(doc.Theme)
		return
	}
	doc.Theme = MustPreset(scheme)
}

// normalizeDocument keeps non-Custom themes equal to their preset and fills defaults.
func normalizeDocument(doc Document) Document {
	doc = doc.Clone()
	if doc.Type == "" {
		doc.Type = SchemeLight
	}
	if !validScheme(doc.Type) {
		panic(fmt.Sprintf("consent: unknown color scheme %q", doc.Type))
	}
	if doc.Regulation == "" {
		doc.Regulation = RegulationGDPR
	}
	applyScheme(&doc, doc.Type)
	return doc
}

// completeTheme keeps custom colors and fills the gaps from the light preset.
func completeTheme(theme Theme) Theme {
	out := MustPreset(SchemeLight)
	for key, value := range theme {
		if value != "" {
			out[key] = value
		}
	}
	return out
}
