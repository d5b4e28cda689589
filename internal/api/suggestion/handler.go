package suggestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/pkg/middleware"
)

// SuggestionService define o contrato que o Handler espera da camada de Serviço.
type SuggestionService interface {
	Submit(ctx context.Context, user domain.User, payload domain.SuggestionCreate) (domain.Suggestion, error)
	List(ctx context.Context) ([]domain.Suggestion, error)
	UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus) (domain.Suggestion, error)
	Delete(ctx context.Context, id string) error
}

// Handler agrupa os endpoints da caixa de sugestões.
type Handler struct {
	Service SuggestionService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SuggestionService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// SubmitHandler lida com POST /api/suggestions.
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var payload domain.SuggestionCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	saved, err := h.Service.Submit(r.Context(), user, payload)
	h.handleServiceResponse(w, r, saved, err, http.StatusOK)
}

// ListHandler lida com GET /api/suggestions.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.Service.List(r.Context())
	h.handleServiceResponse(w, r, suggestions, err, http.StatusOK)
}

// UpdateStatusHandler lida com PUT /api/suggestions/{id}/status.
func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status domain.SuggestionStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.UpdateStatus(r.Context(), mux.Vars(r)["id"], payload.Status)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteHandler lida com DELETE /api/suggestions/{id}.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Sugestão eliminada."}, err, http.StatusOK)
}
