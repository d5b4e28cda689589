package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/pkg/middleware"
	"impar/internal/service/analyticsservice"
	"impar/internal/service/responseservice"
)

// SurveyService define o contrato que o Handler espera da camada de Serviço.
type SurveyService interface {
	CreateSurvey(ctx context.Context, owner domain.User, payload domain.SurveyCreate) (domain.SurveyView, error)
	ListSurveys(ctx context.Context, filter domain.SurveyFilter, viewer *domain.User) ([]domain.SurveyView, error)
	MySurveys(ctx context.Context, owner domain.User) ([]domain.SurveyView, error)
	GetSurvey(ctx context.Context, id string) (domain.SurveyView, error)
	UpdateSurvey(ctx context.Context, requester domain.User, id string, update domain.SurveyUpdate) (domain.SurveyView, error)
	DeleteSurvey(ctx context.Context, requester domain.User, id string) error
	ToggleFeatured(ctx context.Context, id string) (bool, error)
}

// ResponseService é o contrato das submissões de respostas.
type ResponseService interface {
	SubmitResponse(ctx context.Context, surveyID string, payload domain.SurveyAnswerCreate, viewer *domain.User) (domain.SurveyAnswer, error)
	SurveyResponses(ctx context.Context, requester domain.User, surveyID string) ([]domain.SurveyAnswer, error)
	MyResponses(ctx context.Context, user domain.User) ([]responseservice.MyResponse, error)
}

// AnalyticsService é o contrato das duas visões de agregados.
type AnalyticsService interface {
	SurveyAnalytics(ctx context.Context, surveyID string, requester domain.User) (analyticsservice.SurveyAnalytics, error)
	PublicResults(ctx context.Context, surveyID string) (analyticsservice.SurveyAnalytics, error)
}

// Handler agrupa os endpoints de sondagens, respostas e agregados.
type Handler struct {
	Service   SurveyService
	Responses ResponseService
	Analytics AnalyticsService
	Logger    logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(svc SurveyService, responses ResponseService, analytics AnalyticsService, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Responses: responses,
		Analytics: analytics,
		Logger:    log,
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

// currentUser devolve o utilizador do contexto ou nil quando a rota é de
// autenticação opcional e não há token.
func currentUser(r *http.Request) *domain.User {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		return nil
	}
	return &user
}

// CreateSurveyHandler lida com POST /api/surveys.
func (h *Handler) CreateSurveyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var payload domain.SurveyCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.CreateSurvey(r.Context(), user, payload)
	h.handleServiceResponse(w, r, created, err, http.StatusOK)
}

// ListSurveysHandler lida com GET /api/surveys?featured=&published=&owner_id=.
// Autenticação opcional: com token, cada item inclui user_has_responded.
func (h *Handler) ListSurveysHandler(w http.ResponseWriter, r *http.Request) {
	filter := domain.SurveyFilter{OwnerID: r.URL.Query().Get("owner_id")}

	if raw := r.URL.Query().Get("featured"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro 'featured' deve ser booleano."), 0)
			return
		}
		filter.Featured = &value
	}

	if raw := r.URL.Query().Get("published"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro 'published' deve ser booleano."), 0)
			return
		}
		filter.Published = &value
	}

	surveys, err := h.Service.ListSurveys(r.Context(), filter, currentUser(r))
	h.handleServiceResponse(w, r, surveys, err, http.StatusOK)
}

// MySurveysHandler lida com GET /api/surveys/my.
func (h *Handler) MySurveysHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	surveys, err := h.Service.MySurveys(r.Context(), user)
	h.handleServiceResponse(w, r, surveys, err, http.StatusOK)
}

// GetSurveyHandler lida com GET /api/surveys/{id}.
func (h *Handler) GetSurveyHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	survey, err := h.Service.GetSurvey(r.Context(), id)
	h.handleServiceResponse(w, r, survey, err, http.StatusOK)
}

// UpdateSurveyHandler lida com PUT /api/surveys/{id} (atualização parcial).
func (h *Handler) UpdateSurveyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	var update domain.SurveyUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	updated, err := h.Service.UpdateSurvey(r.Context(), user, mux.Vars(r)["id"], update)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteSurveyHandler lida com DELETE /api/surveys/{id}.
func (h *Handler) DeleteSurveyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	err := h.Service.DeleteSurvey(r.Context(), user, mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Sondagem eliminada."}, err, http.StatusOK)
}

// ToggleFeaturedHandler lida com PUT /api/surveys/{id}/toggle-featured.
// O PermissionMiddleware já garantiu o papel administrativo.
func (h *Handler) ToggleFeaturedHandler(w http.ResponseWriter, r *http.Request) {
	featured, err := h.Service.ToggleFeatured(r.Context(), mux.Vars(r)["id"])

	h.handleServiceResponse(w, r, map[string]interface{}{"is_featured": featured}, err, http.StatusOK)
}

// SubmitResponseHandler lida com POST /api/surveys/{id}/respond.
// Autenticação opcional: sem token, a submissão fica anónima.
func (h *Handler) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.SurveyAnswerCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	saved, err := h.Responses.SubmitResponse(r.Context(), mux.Vars(r)["id"], payload, currentUser(r))
	h.handleServiceResponse(w, r, saved, err, http.StatusOK)
}

// SurveyResponsesHandler lida com GET /api/surveys/{id}/responses.
func (h *Handler) SurveyResponsesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	responses, err := h.Responses.SurveyResponses(r.Context(), user, mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, responses, err, http.StatusOK)
}

// MyResponsesHandler lida com GET /api/my-responses.
func (h *Handler) MyResponsesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	responses, err := h.Responses.MyResponses(r.Context(), user)
	h.handleServiceResponse(w, r, responses, err, http.StatusOK)
}

// AnalyticsHandler lida com GET /api/surveys/{id}/analytics (visão administrativa).
func (h *Handler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetCurrentUser(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Não autenticado."), 0)
		return
	}

	analytics, err := h.Analytics.SurveyAnalytics(r.Context(), mux.Vars(r)["id"], user)
	h.handleServiceResponse(w, r, analytics, err, http.StatusOK)
}

// PublicResultsHandler lida com GET /api/surveys/{id}/public-results (anónimo).
func (h *Handler) PublicResultsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.Analytics.PublicResults(r.Context(), mux.Vars(r)["id"])
	h.handleServiceResponse(w, r, results, err, http.StatusOK)
}
