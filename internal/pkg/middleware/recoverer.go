package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"impar/internal/domain"
	"impar/internal/pkg/logger"
)

// Recoverer intercepta pânicos no handler, registra o stack trace e devolve
// um 500 em JSON, mantendo o processo vivo.
func Recoverer(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Pânico em handler HTTP", nil)
					log.Debug("Stack trace do pânico", map[string]interface{}{
						"reqid": GetRequestID(r),
						"uri":   r.RequestURI,
						"stack": string(debug.Stack()),
					})

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(domain.ErrorResponse{
						Code:     http.StatusInternalServerError,
						Category: "INTERNAL_ERROR",
						Message:  "Ocorreu um erro inesperado.",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
