package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/token"
)

// ContextKey é um tipo próprio para chaves de contexto, evitando conflito
// com chaves string de outros pacotes.
type ContextKey int

const (
	CurrentUserKey ContextKey = iota
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserFinder resolve o sujeito do token contra o repositório de utilizadores.
// O registro pode ter sido apagado depois da emissão do token; nesse caso a
// autenticação falha mesmo com assinatura válida.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// writeAuthError envia uma resposta de erro JSON padronizada.
func writeAuthError(w http.ResponseWriter, appErr apperror.AppError) {
	status, category, message := apperror.MapToHTTPStatus(appErr)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// bearerToken extrai o token do header Authorization: Bearer <token>.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// NewAuthMiddleware cria um middleware que exige um JWT válido e anexa o
// utilizador resolvido ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService, users UserFinder) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// 1. Extrair o Token do Header
			tokenString, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Validar o Token (assinatura e expiração)
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 3. Resolver o sujeito contra o repositório
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Utilizador não encontrado."))
				return
			}

			// 4. Anexar o utilizador ao contexto e seguir
			ctx := context.WithValue(r.Context(), CurrentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// NewOptionalAuthMiddleware cria um middleware que tenta autenticar mas nunca
// rejeita: se a credencial estiver ausente ou for inválida, a requisição segue
// sem identidade. Usado em endpoints públicos com comportamento personalizado
// (e.g., "o visitante já respondeu a esta sondagem?").
func NewOptionalAuthMiddleware(tokenSvc TokenService, users UserFinder) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetCurrentUser é uma função utilitária para extrair o utilizador no handler.
func GetCurrentUser(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(CurrentUserKey).(domain.User)
	return user, ok
}

// PermissionMiddleware restringe o acesso aos papéis informados.
// Deve ser aplicado depois do NewAuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetCurrentUser(r.Context())
			if !ok {
				writeAuthError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, requiredRole := range requiredRoles {
				if user.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, apperror.NewForbiddenError("Acesso negado. Você não tem a permissão necessária."))
		}
	}
}
