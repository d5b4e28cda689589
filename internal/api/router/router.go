package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"impar/internal/api/admin"
	"impar/internal/api/auth"
	"impar/internal/api/suggestion"
	"impar/internal/api/survey"
	"impar/internal/api/teamapp"
	"impar/internal/domain"
	"impar/internal/pkg/cache"
	"impar/internal/pkg/logger"
	"impar/internal/pkg/middleware"
)

// Deps agrupa tudo o que o roteador precisa: handlers já inicializados,
// as dependências dos middlewares e a configuração de rate limit/CORS.
type Deps struct {
	Auth       *auth.Handler
	Survey     *survey.Handler
	Admin      *admin.Handler
	Suggestion *suggestion.Handler
	TeamApp    *teamapp.Handler

	TokenService middleware.TokenService
	Users        middleware.UserFinder
	Cache        cache.Client
	Logger       logger.Logger

	RateLimitMax    int
	RateLimitPeriod time.Duration
	CORSOrigins     []string
}

// NewRouter configura e retorna o roteador HTTP principal.
// Toda a API vive sob o prefixo /api; os middlewares globais envolvem tudo.
func NewRouter(d Deps) http.Handler {
	requireAuth := middleware.NewAuthMiddleware(d.TokenService, d.Users)
	optionalAuth := middleware.NewOptionalAuthMiddleware(d.TokenService, d.Users)
	requireAdmin := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleOwner)
	requireOwner := middleware.PermissionMiddleware(domain.RoleOwner)

	r := mux.NewRouter()

	// Health checks fora do prefixo /api (para probes de infraestrutura).
	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("", RootHandler).Methods(http.MethodGet)
	api.HandleFunc("/", RootHandler).Methods(http.MethodGet)
	api.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	// --- Autenticação e conta ---
	api.HandleFunc("/auth/register", d.Auth.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", d.Auth.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", requireAuth(d.Auth.MeHandler)).Methods(http.MethodGet)
	api.HandleFunc("/auth/profile", requireAuth(d.Auth.UpdateProfileHandler)).Methods(http.MethodPut)
	api.HandleFunc("/auth/change-password", requireAuth(d.Auth.ChangePasswordHandler)).Methods(http.MethodPut)
	api.HandleFunc("/auth/request-recovery", d.Auth.RequestRecoveryHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-with-code", d.Auth.ResetWithCodeHandler).Methods(http.MethodPost)

	// --- Sondagens ---
	api.HandleFunc("/surveys", requireAuth(requireAdmin(d.Survey.CreateSurveyHandler))).Methods(http.MethodPost)
	api.HandleFunc("/surveys", optionalAuth(d.Survey.ListSurveysHandler)).Methods(http.MethodGet)
	api.HandleFunc("/surveys/my", requireAuth(d.Survey.MySurveysHandler)).Methods(http.MethodGet)
	api.HandleFunc("/surveys/{id}", d.Survey.GetSurveyHandler).Methods(http.MethodGet)
	api.HandleFunc("/surveys/{id}", requireAuth(d.Survey.UpdateSurveyHandler)).Methods(http.MethodPut)
	api.HandleFunc("/surveys/{id}", requireAuth(d.Survey.DeleteSurveyHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/surveys/{id}/toggle-featured", requireAuth(requireAdmin(d.Survey.ToggleFeaturedHandler))).Methods(http.MethodPut)

	// --- Respostas e agregados ---
	api.HandleFunc("/surveys/{id}/respond", optionalAuth(d.Survey.SubmitResponseHandler)).Methods(http.MethodPost)
	api.HandleFunc("/surveys/{id}/responses", requireAuth(d.Survey.SurveyResponsesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/my-responses", requireAuth(d.Survey.MyResponsesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/surveys/{id}/analytics", requireAuth(d.Survey.AnalyticsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/surveys/{id}/public-results", d.Survey.PublicResultsHandler).Methods(http.MethodGet)

	// --- Administração ---
	api.HandleFunc("/admin/users", requireAuth(requireAdmin(d.Admin.ListUsersHandler))).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/{id}/role", requireAuth(requireOwner(d.Admin.UpdateRoleHandler))).Methods(http.MethodPut)
	api.HandleFunc("/admin/users/{id}", requireAuth(requireOwner(d.Admin.DeleteUserHandler))).Methods(http.MethodDelete)
	api.HandleFunc("/admin/password-recovery-requests", requireAuth(requireAdmin(d.Admin.ListRecoveryRequestsHandler))).Methods(http.MethodGet)
	api.HandleFunc("/admin/password-recovery-requests/{id}", requireAuth(requireAdmin(d.Admin.DeleteRecoveryRequestHandler))).Methods(http.MethodDelete)

	// --- Sugestões ---
	api.HandleFunc("/suggestions", requireAuth(d.Suggestion.SubmitHandler)).Methods(http.MethodPost)
	api.HandleFunc("/suggestions", requireAuth(requireAdmin(d.Suggestion.ListHandler))).Methods(http.MethodGet)
	api.HandleFunc("/suggestions/{id}/status", requireAuth(requireAdmin(d.Suggestion.UpdateStatusHandler))).Methods(http.MethodPut)
	api.HandleFunc("/suggestions/{id}", requireAuth(requireAdmin(d.Suggestion.DeleteHandler))).Methods(http.MethodDelete)

	// --- Candidaturas à equipa ---
	api.HandleFunc("/team-applications", requireAuth(d.TeamApp.ApplyHandler)).Methods(http.MethodPost)
	api.HandleFunc("/team-applications", requireAuth(requireAdmin(d.TeamApp.ListHandler))).Methods(http.MethodGet)
	api.HandleFunc("/team-applications/{id}/status", requireAuth(requireAdmin(d.TeamApp.UpdateStatusHandler))).Methods(http.MethodPut)
	api.HandleFunc("/team-applications/{id}", requireAuth(requireAdmin(d.TeamApp.DeleteHandler))).Methods(http.MethodDelete)

	// Middlewares globais, do mais externo para o mais interno.
	var handler http.Handler = r
	handler = middleware.RateLimiter(d.Cache, d.RateLimitMax, d.RateLimitPeriod)(handler)
	handler = middleware.CORS(d.CORSOrigins)(handler)
	handler = middleware.RequestLogger(d.Logger)(handler)
	handler = middleware.Recoverer(d.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// RootHandler responde na raiz da API com a identificação do serviço.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "IMPAR Survey API",
		"status":  "ok",
	})
}

// HealthHandler é o health check usado pelos probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
