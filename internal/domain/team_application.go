package domain

import (
	"context"
	"time"
)

// ApplicationStatus é o estado de análise de uma candidatura à equipa.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationReviewed ApplicationStatus = "reviewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// ValidApplicationStatus valida o estado recebido num payload.
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// TeamApplication é uma candidatura de um utilizador à equipa.
// Invariante: no máximo uma candidatura "pending" por utilizador.
type TeamApplication struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name"`
	UserEmail string            `json:"user_email"`
	Message   string            `json:"message"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// TeamApplicationCreate é o payload de criação de candidatura.
type TeamApplicationCreate struct {
	Message string `json:"message"`
}

// TeamApplicationRepository define o contrato de persistência para candidaturas.
type TeamApplicationRepository interface {
	Save(ctx context.Context, application TeamApplication) (TeamApplication, error)
	FindByID(ctx context.Context, id string) (TeamApplication, error)
	FindAll(ctx context.Context) ([]TeamApplication, error)
	PendingExistsForUser(ctx context.Context, userID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus) error
	Delete(ctx context.Context, id string) error
}
