package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chinook/internal/metrics"
)

// Metrics records request latency labelled with the matched route template,
// so path parameters do not explode label cardinality.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			metrics.ObserveHTTP(r.Method, routeTemplate(r), rw.statusCode, time.Since(start))
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
