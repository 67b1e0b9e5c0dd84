package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	consent "github.com/goliatone/go-consent/components/consent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/wp-json/", Nonce: "n0nce"})
	require.NoError(t, err)
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

func TestHTTPClientWelcomeStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wp-json/cookiex/v1/welcome-status", r.URL.Path)
		assert.Equal(t, "n0nce", r.Header.Get(NonceHeader))
		_ = json.NewEncoder(w).Encode(map[string]any{"show_welcome": true})
	})

	show, err := client.WelcomeStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, show)
}

func TestHTTPClientSteps(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": r.URL.Path != "/wp-json/cookiex/v1/quickscan"})
	})
	ctx := context.Background()

	register, err := client.RegisterDomain(ctx)
	require.NoError(t, err)
	scan, err := client.QuickScan(ctx)
	require.NoError(t, err)
	enable, err := client.EnableConsentManagement(ctx)
	require.NoError(t, err)

	assert.True(t, register.Status)
	assert.False(t, scan.Status)
	assert.True(t, enable.Status)
	assert.Equal(t, []string{
		"/wp-json/cookiex/v1/register",
		"/wp-json/cookiex/v1/quickscan",
		"/wp-json/cookiex/v1/enable-consent-management",
	}, paths)
}

func TestHTTPClientFetchSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/cookiex/v1/settings", r.URL.Path)
		w.Write([]byte(`{
			"domainId": "4f7c2d8e-8c1b-4a55-9c7e-1b2f3a4d5e6f",
			"gtmEnabled": true,
			"gtmId": "GTM-1",
			"language": "fr",
			"cookiePreference": ["analytics"],
			"languagesAvailable": {"fr": "Français"},
			"theme": {"layout": "banner", "type": "Dark", "regulation": "us"}
		}`))
	})

	settings, err := client.FetchSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GTM-1", settings.GTMID)
	assert.Equal(t, []string{"analytics"}, settings.CookiePreference)
	require.NotNil(t, settings.Theme)
	assert.Equal(t, consent.SchemeDark, settings.Theme.Type)
	assert.Equal(t, consent.RegulationUS, settings.Theme.Regulation)
}

func TestHTTPClientSaveSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var payload consent.SettingsPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "es", payload.Language)
		assert.Equal(t, consent.SchemeLight, payload.Theme.Type)
		_ = json.NewEncoder(w).Encode("Settings saved successfully.")
	})

	message, err := client.SaveSettings(context.Background(), consent.SettingsPayload{
		Language: "es",
		Theme:    consent.DefaultDocument(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Settings saved successfully.", message)
}

func TestHTTPClientInvalidNonce(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"rest_cookie_invalid_nonce","message":"Cookie check failed","data":{"status":403}}`))
	})

	_, err := client.SaveSettings(context.Background(), consent.SettingsPayload{})
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusForbidden, remote.Status)
	assert.Equal(t, "Cookie check failed", remote.Message)
	assert.True(t, IsInvalidNonce(err))
	assert.ErrorIs(t, err, consent.ErrInvalidNonce)
}

func TestHTTPClientPlainRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.RegisterDomain(context.Background())
	require.Error(t, err)
	assert.False(t, IsInvalidNonce(err))
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPClientRequestReturnsRawBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/cookiex/v1/banner-stats", r.URL.Path)
		assert.Equal(t, "n0nce", r.Header.Get(NonceHeader))
		assert.Equal(t, "console", r.Header.Get("X-Consent-Source"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "30d", body["range"])
		w.Write([]byte(`{"views":12,"accepted":9}`))
	})

	raw, err := client.Request(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/banner-stats",
		Headers: http.Header{"X-Consent-Source": {"console"}},
		Body:    map[string]string{"range": "30d"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"views":12,"accepted":9}`, string(raw))
}

func TestHTTPClientRequestHeadersOverrideDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, []string{"fresh"}, r.Header.Values(NonceHeader))
		w.Write([]byte(`true`))
	})

	raw, err := client.Request(context.Background(), Request{
		Path:    PathWelcomeStatus,
		Headers: http.Header{NonceHeader: {"fresh"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))
}

func TestHTTPClientRequestRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"invalid_nonce","message":"Nonce expired"}`))
	})

	raw, err := client.Request(context.Background(), Request{Method: http.MethodGet, Path: PathSettings})
	assert.Nil(t, raw)
	assert.True(t, IsInvalidNonce(err))
}
