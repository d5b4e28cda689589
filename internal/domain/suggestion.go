package domain

import (
	"context"
	"time"
)

// SuggestionStatus é o estado de revisão de uma sugestão.
type SuggestionStatus string

const (
	SuggestionPending     SuggestionStatus = "pending"
	SuggestionReviewed    SuggestionStatus = "reviewed"
	SuggestionImplemented SuggestionStatus = "implemented"
	SuggestionRejected    SuggestionStatus = "rejected"
)

// ValidSuggestionStatus valida o estado recebido num payload.
func ValidSuggestionStatus(s SuggestionStatus) bool {
	switch s {
	case SuggestionPending, SuggestionReviewed, SuggestionImplemented, SuggestionRejected:
		return true
	}
	return false
}

// Suggestion é uma sugestão enviada por um utilizador autenticado,
// opcionalmente associada a uma sondagem.
type Suggestion struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	UserName  string           `json:"user_name,omitempty"`
	Content   string           `json:"content"`
	SurveyID  string           `json:"survey_id,omitempty"`
	Status    SuggestionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// SuggestionCreate é o payload de criação de sugestão.
type SuggestionCreate struct {
	Content  string `json:"content"`
	SurveyID string `json:"survey_id,omitempty"`
}

// SuggestionRepository define o contrato de persistência para sugestões.
type SuggestionRepository interface {
	Save(ctx context.Context, suggestion Suggestion) (Suggestion, error)
	FindByID(ctx context.Context, id string) (Suggestion, error)
	FindAll(ctx context.Context) ([]Suggestion, error)
	UpdateStatus(ctx context.Context, id string, status SuggestionStatus) error
	Delete(ctx context.Context, id string) error
}
