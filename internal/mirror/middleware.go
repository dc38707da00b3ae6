package mirror

import (
	"net/http"
	"slices"
	"strings"
)

// cors lets site pages (any origin, including public pages calling into the
// private network) reach the service.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Private-Network", "true")
		next.ServeHTTP(w, r)
	})
}

// methods answers preflight requests and rejects methods the route does not accept.
func methods(h http.HandlerFunc, allowed ...string) http.Handler {
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", allow)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}
		if !slices.Contains(allowed, r.Method) {
			w.Header().Set("Allow", allow)
			writeText(w, http.StatusMethodNotAllowed, "Method not allowed ("+r.Method+")")
			return
		}
		h(w, r)
	})
}

const msgInternal = "Sorry, something went wrong"

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
