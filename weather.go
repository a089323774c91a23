package main

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"
)

const (
	msgCityRequired   = "Parâmetro 'city' é obrigatório"
	msgUpstreamFailed = "Erro ao contactar a API: "
)

type weatherHandler struct {
	client  HTTPRequester
	baseURL string
	apiKey  string
	units   string
	lang    string
	metrics *metrics
}

func (h *weatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errMethodNotAllowed, "Method Not Allowed")
		return
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeCodError(w, errBadRequest, msgCityRequired)
		return
	}

	log := hlog.FromRequest(r)
	body, status, err := h.client.Fetch(r.Context(), h.queryURL(city))
	if err != nil {
		h.metrics.weatherCalls.WithLabelValues("error").Inc()
		// url.Error embeds the request URL, key included.
		msg := redact(err.Error(), h.apiKey)
		log.Warn().Str("city", city).Str("error", msg).Msg("weather query failed")
		writeCodError(w, errBadGateway, msgUpstreamFailed+sanitize(msg))
		return
	}
	h.metrics.weatherCalls.WithLabelValues(strconv.Itoa(status)).Inc()
	log.Debug().Str("city", city).Int("status", status).Msg("weather query relayed")

	if status == http.StatusOK {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *weatherHandler) queryURL(city string) string {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", h.apiKey)
	q.Set("units", h.units)
	q.Set("lang", h.lang)
	return h.baseURL + "?" + q.Encode()
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(s, secret, "REDACTED")
}
