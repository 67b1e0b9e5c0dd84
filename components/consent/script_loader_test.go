package consent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPScriptLoaderCachesScript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte("window.Cookiex = function () {};"))
	}))
	defer server.Close()

	loader := NewHTTPScriptLoader(nil)
	_, ok := loader.Script()
	assert.False(t, ok)

	require.NoError(t, loader.Load(context.Background(), server.URL+"/embed.js"))

	script, ok := loader.Script()
	require.True(t, ok)
	assert.Equal(t, "window.Cookiex = function () {};", string(script))
	assert.Equal(t, server.URL+"/embed.js", loader.URL())
}

func TestHTTPScriptLoaderRejectsErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	loader := NewHTTPScriptLoader(server.Client())
	assert.Error(t, loader.Load(context.Background(), server.URL))
	assert.Error(t, loader.Load(context.Background(), ""))
	_, ok := loader.Script()
	assert.False(t, ok)
}
