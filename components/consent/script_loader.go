package consent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPScriptLoader downloads the embed script and keeps the bytes so the
// console can serve them to the browser hosting the preview.
type HTTPScriptLoader struct {
	client *http.Client

	mu     sync.RWMutex
	url    string
	script []byte
}

// NewHTTPScriptLoader builds a loader. A nil client gets a 10s timeout.
func NewHTTPScriptLoader(client *http.Client) *HTTPScriptLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPScriptLoader{client: client}
}

// Load fetches the script at url.
func (l *HTTPScriptLoader) Load(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("consent: embed script url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("consent: build script request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("consent: load script %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("consent: load script %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("consent: read script %s: %w", url, err)
	}
	l.mu.Lock()
	l.url = url
	l.script = body
	l.mu.Unlock()
	return nil
}

// Script returns the loaded script body and whether one is available.
func (l *HTTPScriptLoader) Script() ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.script == nil {
		return nil, false
	}
	return append([]byte(nil), l.script...), true
}

// URL returns the address the script was loaded from.
func (l *HTTPScriptLoader) URL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.url
}
