package middleware

import (
	"net/http"
	"time"

	"impar/internal/pkg/logger"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// RequestLogger registra cada requisição concluída com método, rota, status e duração.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)

			log.Info("Requisição HTTP", map[string]interface{}{
				"reqid":    GetRequestID(r),
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"bytes":    sw.bytes,
				"duration": time.Since(start).String(),
				"ip":       r.RemoteAddr,
			})
		})
	}
}
