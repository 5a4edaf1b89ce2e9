package server

import (
	_ "embed"
	"net/http"
)

//go:embed console.html
var consoleHTML string

// ConsolePageHandler serves the embedded console page.
func ConsolePageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(consoleHTML))
	}
}
