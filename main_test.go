package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/weatherly/weather-proxy/requests"
)

var testPNG = []byte("\x89PNG\r\n\x1a\nfake-icon")

// fakeProvider stands in for the weather provider and counts every hit.
type fakeProvider struct {
	*httptest.Server
	iconHits    int32
	weatherHits int32
	lastQuery   atomic.Value
}

func newFakeProvider(t *testing.T) *fakeProvider {
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/img/wn/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&p.iconHits, 1)
		switch filepath.Base(r.URL.Path) {
		case "01d@2x.png", "02n@2x.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(testPNG)
		case "03d@2x.png":
			w.WriteHeader(http.StatusOK)
		case "04d@2x.png":
			w.WriteHeader(http.StatusInternalServerError)
		case "05d@2x.png":
			time.Sleep(50 * time.Millisecond)
			w.Write(testPNG)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&p.weatherHits, 1)
		p.lastQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Write([]byte(`{"name":"` + r.URL.Query().Get("q") + `","cod":200}`))
	})
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func testConfig(t *testing.T, upstream string) config {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Weather</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644))

	cfg := defaultConfig()
	cfg.APIKey = "secret-key"
	cfg.StaticDir = dir
	cfg.WeatherURL = upstream + "/data/2.5/weather"
	cfg.IconBaseURL = upstream + "/img/wn/"
	cfg.UpstreamTimeout = 2 * time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg config, icons IconCacher) *server {
	client := requests.NewHTTPRequestHandler(requests.WithTimeout(cfg.UpstreamTimeout), requests.WithUserAgent(userAgent))
	srv, err := newServer(cfg, zerolog.Nop(), icons, client, client)
	require.NoError(t, err)
	return srv
}

func do(srv http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// failingClient answers every upstream call with err.
type failingClient struct {
	err error
}

func (c failingClient) Fetch(_ context.Context, url string) ([]byte, int, error) {
	if c.err == nil {
		return nil, 0, errors.New("unexpected upstream call to " + url)
	}
	return nil, 0, c.err
}
