package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireChrome skips unless a local Chrome is available and browser tests
// were requested.
func requireChrome(t *testing.T) string {
	t.Helper()
	if os.Getenv("BROWSER_TESTS") == "" {
		t.Skip("set BROWSER_TESTS=1 to run headless Chrome tests")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("chrome not found")
	}
	return bin
}

func TestRead_VisibleText(t *testing.T) {
	bin := requireChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Pricing</title></head><body>
			<h1>Plans</h1><p>Starter is $9.</p>
			<div style="display:none">hidden</div>
			<script>document.body.insertAdjacentHTML('beforeend', '<p>Rendered by JS</p>')</script>
		</body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	r := New(Options{Bin: bin})
	defer r.Close() //nolint:errcheck

	res, err := r.Read(context.Background(), srv.URL, 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Pricing", res.Title)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Text, "Starter is $9.")
	assert.Contains(t, res.Text, "Rendered by JS")
	assert.NotContains(t, res.Text, "hidden")
}

func TestRead_LaunchFailure(t *testing.T) {
	r := New(Options{Bin: "/nonexistent/chrome-binary"})
	defer r.Close() //nolint:errcheck

	_, err := r.Read(context.Background(), "https://example.com", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser: launch chrome")
}

func TestClose_Idempotent(t *testing.T) {
	r := New(Options{})
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}
