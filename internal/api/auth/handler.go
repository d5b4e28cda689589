package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/pkg/middleware"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.AuthToken, error)
	Login(ctx context.Context, email, password string) (domain.AuthToken, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error)
	ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string) error
}

// RecoveryService define o contrato do fluxo de recuperação de senha.
type RecoveryService interface {
	RequestRecovery(ctx context.Context, email string) error
	ResetWithCode(ctx context.Context, email, code, newPassword string) error
}

// Handler agrupa os endpoints de autenticação e de conta.
type Handler struct {
	Service  UserService
	Recovery RecoveryService
	Logger   logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(svc UserService, recovery RecoveryService, log logger.Logger) *Handler {
	return &Handler{
		Service:  svc,
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

// RegisterHandler lida com POST /api/auth/register.
// O primeiro registo bem-sucedido recebe o papel "owner".
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var registration domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	token, err := h.Service.Register(r.Context(), registration)
	h.handleServiceResponse(w, r, token, err, http.StatusOK)
}

// LoginHandler lida com POST /api/auth/login.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	token, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	h.handleServiceResponse(w, r, token, err, http.StatusOK)
}

// MeHandler lida com GET /api/auth/me. O middleware de autenticação já
// resolveu o utilizador; aqui só o devolvemos.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	h.handleServiceResponse(w, r, user, nil, http.StatusOK)
}

// UpdateProfileHandler lida com PUT /api/auth/profile (atualização parcial).
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.UpdateProfile(r.Context(), user.ID, update)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// ChangePasswordHandler lida com PUT /api/auth/change-password.
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	err := h.Service.ChangePassword(r.Context(), user, payload.CurrentPassword, payload.NewPassword)
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Senha alterada com sucesso."}, err, http.StatusOK)
}

// RequestRecoveryHandler lida com POST /api/auth/request-recovery.
// Responde sempre 200 para emails desconhecidos, para não revelar
// que contas existem.
func (h *Handler) RequestRecoveryHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	err := h.Recovery.RequestRecovery(r.Context(), payload.Email)
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Se o email existir, receberá um código de recuperação."}, err, http.StatusOK)
}

// ResetWithCodeHandler lida com POST /api/auth/reset-with-code.
// O campo documentado é "recovery_code"; "code" é aceito como alias.
func (h *Handler) ResetWithCodeHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email        string `json:"email"`
		RecoveryCode string `json:"recovery_code"`
		Code         string `json:"code"`
		NewPassword  string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	code := payload.RecoveryCode
	if code == "" {
		code = payload.Code
	}

	err := h.Recovery.ResetWithCode(r.Context(), payload.Email, code, payload.NewPassword)
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Senha redefinida com sucesso."}, err, http.StatusOK)
}
