package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request: status, latency,
// method, path. Responses from 300 up log at warn so problems stand out in
// the stream.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.Method == http.MethodOptions {
				return
			}

			entry := log.WithFields(logrus.Fields{
				"status":  ww.Status(),
				"latency": time.Since(start).String(),
				"method":  r.Method,
				"path":    r.URL.Path,
			})
			if ww.Status() >= 300 {
				entry.Warn("request")
			} else {
				entry.Info("request")
			}
		})
	}
}
