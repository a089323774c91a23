package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/weatherly/weather-proxy/requests"
)

type server struct {
	icons   IconCacher
	metrics *metrics
	handler http.Handler
}

// newServer wires every route. icons is shared by all requests.
func newServer(cfg config, logger zerolog.Logger, icons IconCacher, iconClient, weatherClient HTTPRequester) (*server, error) {
	static, err := newStaticHandler(cfg.StaticDir)
	if err != nil {
		return nil, err
	}
	m := newMetrics(icons)

	mux := http.NewServeMux()
	mux.Handle("/", m.instrument("static", static))
	mux.Handle("/api/weather", m.instrument("weather", &weatherHandler{
		client:  weatherClient,
		baseURL: cfg.WeatherURL,
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		lang:    cfg.Lang,
		metrics: m,
	}))
	mux.Handle("/api/weather/icon", m.instrument("icon", &iconHandler{
		client:  iconClient,
		storage: icons,
		baseURL: cfg.IconBaseURL,
		metrics: m,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "up",
			"icons_cached": icons.Len(),
		})
	})
	mux.Handle(cfg.MetricsPath, m.handler())

	var h http.Handler = mux
	h = allowAnyOrigin(h)
	h = recoverer(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.NewHandler(logger)(h)

	return &server{icons: icons, metrics: m, handler: h}, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// recoverer keeps a panicking handler from taking the process down.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("handler panicked")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func newClients(cfg config) (icon, weather requests.HTTPClient) {
	opts := []requests.Option{
		requests.WithTimeout(cfg.UpstreamTimeout),
		requests.WithUserAgent(userAgent),
	}
	icon = requests.NewHTTPRequestHandler(opts...)
	if cfg.WeatherHTTPCache {
		opts = append(opts, requests.WithHTTPCache())
	}
	return icon, requests.NewHTTPRequestHandler(opts...)
}
