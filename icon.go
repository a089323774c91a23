package main

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	iconSuffix       = "@2x.png"
	iconCacheControl = "public, max-age=86400"

	msgInvalidCode     = "Parâmetro 'code' inválido"
	msgIconUnavailable = "Ícone não disponível"
	msgIconEmpty       = "Ícone vazio"
	msgIconFetchFailed = "Erro ao obter ícone: "
)

var iconCodePattern = regexp.MustCompile(`^[0-9][0-9][dn]$`)

var (
	errIconUnavailable = errors.New("upstream did not return the icon")
	errIconEmpty       = errors.New("upstream returned an empty icon")
)

type iconHandler struct {
	client  HTTPRequester
	storage IconCacher
	baseURL string
	metrics *metrics
}

func (h *iconHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errMethodNotAllowed, "Method Not Allowed")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" || !iconCodePattern.MatchString(code) {
		writeError(w, errBadRequest, msgInvalidCode)
		return
	}

	if data, ok := h.storage.Get(code); ok {
		h.metrics.iconHits.Inc()
		writeIcon(w, data)
		return
	}
	h.metrics.iconMisses.Inc()

	log := hlog.FromRequest(r)
	// The fill may be shared with other requests, so it must outlive this one.
	ctx := context.WithoutCancel(r.Context())
	data, err := h.storage.Fill(code, func() ([]byte, error) {
		return h.fetch(ctx, log, code)
	})
	switch {
	case errors.Is(err, errIconUnavailable):
		writeError(w, errBadGateway, msgIconUnavailable)
	case errors.Is(err, errIconEmpty):
		writeError(w, errBadGateway, msgIconEmpty)
	case err != nil:
		writeError(w, errBadGateway, msgIconFetchFailed+sanitize(err.Error()))
	default:
		writeIcon(w, data)
	}
}

// fetch gets one icon from upstream. Only a 200 with a body counts as success.
func (h *iconHandler) fetch(ctx context.Context, log *zerolog.Logger, code string) ([]byte, error) {
	url := h.baseURL + code + iconSuffix
	body, status, err := h.client.Fetch(ctx, url)
	if err != nil {
		h.metrics.iconFetches.WithLabelValues(fetchError).Inc()
		log.Warn().Err(err).Str("url", url).Msg("icon fetch failed")
		return nil, err
	}
	if status != http.StatusOK {
		h.metrics.iconFetches.WithLabelValues(fetchStatus).Inc()
		log.Warn().Int("status", status).Str("url", url).Msg("icon not available upstream")
		return nil, errIconUnavailable
	}
	if len(body) == 0 {
		h.metrics.iconFetches.WithLabelValues(fetchEmpty).Inc()
		log.Warn().Str("url", url).Msg("upstream returned an empty icon")
		return nil, errIconEmpty
	}
	h.metrics.iconFetches.WithLabelValues(fetchOK).Inc()
	log.Debug().Str("code", code).Int("bytes", len(body)).Msg("icon fetched")
	return body, nil
}

func writeIcon(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", iconCacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
