// Package webui serves the bundled single-page viewer application.
package webui

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Handler serves static files from dir, falling back to index.html for
// client-side routes. Requests escaping dir are rejected.
func Handler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if strings.HasPrefix(name, "..") {
			http.NotFound(w, r)
			return
		}

		if name != "." {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
				fs.ServeHTTP(w, r)
				return
			}
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.Error(w, "index.html not found", http.StatusNotFound)
			return
		}

		http.ServeFile(w, r, index)
	})
}
