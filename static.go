package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	".html": "text/html; charset=UTF-8",
	".css":  "text/css; charset=UTF-8",
	".js":   "application/javascript; charset=UTF-8",
	".ico":  "image/x-icon",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".json": "application/json; charset=UTF-8",
}

func contentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// staticHandler serves the front-end from root. root must be absolute and clean.
type staticHandler struct {
	root string
}

func newStaticHandler(dir string) (*staticHandler, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	// Resolve the root itself so the containment check compares like with like.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return &staticHandler{root: root}, nil
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeText(w, errMethodNotAllowed, "Method Not Allowed")
		return
	}
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	file, ok := h.resolve(path)
	if !ok {
		writeText(w, errForbidden, "Forbidden")
		return
	}
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		if strings.HasPrefix(path, "/api") {
			// API consumers never see the static 404 page.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeText(w, errNotFound, "Not Found")
		return
	}

	data, err := os.ReadFile(file)
	if err != nil {
		writeText(w, errNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", contentType(path))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolve maps a request path to a file under root. It reports false when
// the lexical or symlink-resolved location escapes root.
func (h *staticHandler) resolve(path string) (string, bool) {
	rel := strings.TrimPrefix(strings.ReplaceAll(path, `\`, "/"), "/")
	file := filepath.Join(h.root, filepath.FromSlash(rel))
	if !within(h.root, file) {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(file); err == nil && !within(h.root, resolved) {
		return "", false
	}
	return file, true
}

func within(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
