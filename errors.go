package main

import (
	"encoding/json"
	"net/http"
	"strings"
)

type errorKind int

const (
	errBadRequest errorKind = iota
	errMethodNotAllowed
	errForbidden
	errNotFound
	errBadGateway
)

func (k errorKind) status() int {
	switch k {
	case errBadRequest:
		return http.StatusBadRequest
	case errMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case errForbidden:
		return http.StatusForbidden
	case errNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// sanitize keeps upstream error text from breaking clients that
// splice the message into their own JSON.
func sanitize(msg string) string {
	return strings.ReplaceAll(msg, `"`, `'`)
}

// writeError answers with the {"error": "..."} envelope.
func writeError(w http.ResponseWriter, kind errorKind, msg string) {
	writeJSON(w, kind.status(), struct {
		Error string `json:"error"`
	}{msg})
}

// writeCodError answers with the {"cod": n, "message": "..."} envelope used
// by the weather provider itself.
func writeCodError(w http.ResponseWriter, kind errorKind, msg string) {
	status := kind.status()
	writeJSON(w, status, struct {
		Cod     int    `json:"cod"`
		Message string `json:"message"`
	}{status, msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeText(w http.ResponseWriter, kind errorKind, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(kind.status())
	_, _ = w.Write([]byte(msg))
}
