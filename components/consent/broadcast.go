package consent

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Console event types pushed to browsers.
const (
	EventPreviewRender   = "preview.render"
	EventPreviewRemove   = "preview.remove"
	EventOnboardingStep  = "onboarding.step"
	EventDocumentChanged = "document.changed"
)

// ConsoleEvent is one message on the console event stream.
type ConsoleEvent struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// EventHub fans out console events to in-process subscribers. Slow
// subscribers drop events instead of blocking publishers.
type EventHub struct {
	mu   sync.RWMutex
	subs map[int]chan ConsoleEvent
	next int
}

// NewEventHub creates an event hub.
func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[int]chan ConsoleEvent),
	}
}

// Publish delivers the event to every subscriber.
func (h *EventHub) Publish(event ConsoleEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of console events and a cancel func.
func (h *EventHub) Subscribe() (<-chan ConsoleEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan ConsoleEvent, 16)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers reports how many subscribers are attached.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// StepUpdated implements StepObserver.
func (h *EventHub) StepUpdated(_ context.Context, event StepEvent) error {
	h.Publish(ConsoleEvent{Type: EventOnboardingStep, Payload: event, At: event.At})
	return nil
}

// DocumentChanged implements ChangeListener.
func (h *EventHub) DocumentChanged(doc Document) {
	h.Publish(ConsoleEvent{Type: EventDocumentChanged, Payload: doc})
}

// BroadcastEmbed implements Embed by pushing init/remove calls to the
// browser hosting the preview, which invokes the embed script.
type BroadcastEmbed struct {
	hub *EventHub
}

// NewBroadcastEmbed wraps hub as an Embed.
func NewBroadcastEmbed(hub *EventHub) *BroadcastEmbed {
	return &BroadcastEmbed{hub: hub}
}

// Init publishes a preview.render event.
func (e *BroadcastEmbed) Init(_ context.Context, cfg EmbedConfig) error {
	e.hub.Publish(ConsoleEvent{Type: EventPreviewRender, Payload: cfg})
	return nil
}

// Remove publishes a preview.remove event.
func (e *BroadcastEmbed) Remove(_ context.Context, selectorID string) error {
	e.hub.Publish(ConsoleEvent{
		Type:    EventPreviewRemove,
		Payload: map[string]string{"selectorId": selectorID},
	})
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams console events as JSON.
func (h *EventHub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for console events.
func (h *EventHub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe()
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("event: " + event.Type + "\ndata: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
