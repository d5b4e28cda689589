package admin

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

// UserAdminService define as operações administrativas sobre utilizadores.
type UserAdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, requester domain.User, targetID string, role domain.UserRole) error
	DeleteUser(ctx context.Context, requester domain.User, targetID string) error
}

// RecoveryAdminService define a gestão dos pedidos de recuperação de senha.
type RecoveryAdminService interface {
	ListRequests(ctx context.Context) ([]domain.RecoveryRequest, error)
	DeleteRequest(ctx context.Context, id string) error
}

// Handler agrupa o painel administrativo: utilizadores e pedidos de recuperação.
type Handler struct {
	Users    UserAdminService
	Recovery RecoveryAdminService
	Logger   logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(users UserAdminService, recovery RecoveryAdminService, log logger.Logger) *Handler {
	return &Handler{
		Users:    users,
		Recovery: recovery,
		Logger:   log,
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

// ListUsersHandler lida com GET /api/admin/users.
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	h.handleServiceResponse(w, r, users, err, http.StatusOK)
}

// UpdateRoleHandler lida com PUT /api/admin/users/{id}/role.
// Apenas o owner pode alterar papéis; o próprio owner nunca é alterável.
func (h *Handler) UpdateRoleHandler(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var payload struct {
		Role domain.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	err := h.Users.UpdateRole(r.Context(), requester, mux.Vars(r)["id"], payload.Role)
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Papel atualizado."}, err, http.StatusOK)
}

// DeleteUserHandler lida com DELETE /api/admin/users/{id}.
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	err := h.Users.DeleteUser(r.Context(), requester, mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Utilizador eliminado."}, err, http.StatusOK)
}

// ListRecoveryRequestsHandler lida com GET /api/admin/password-recovery-requests.
func (h *Handler) ListRecoveryRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Recovery.ListRequests(r.Context())
	h.handleServiceResponse(w, r, requests, err, http.StatusOK)
}

// DeleteRecoveryRequestHandler lida com DELETE /api/admin/password-recovery-requests/{id}.
func (h *Handler) DeleteRecoveryRequestHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Recovery.DeleteRequest(r.Context(), mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Pedido de recuperação eliminado."}, err, http.StatusOK)
}
