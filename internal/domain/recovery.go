package domain

import (
	"context"
	"time"
)

// RecoveryStatus é o estado de um pedido de recuperação de senha.
type RecoveryStatus string

const (
	RecoveryPending RecoveryStatus = "pending"
	RecoveryUsed    RecoveryStatus = "used"
)

// RecoveryRequest é um pedido de recuperação de senha por código.
// A expiração é verificada no momento do consumo, não há varredura
// em segundo plano.
type RecoveryRequest struct {
	ID        string         `json:"id"`
	Email     string         `json:"user_email"`
	UserName  string         `json:"user_name"`
	Code      string         `json:"recovery_code"`
	Status    RecoveryStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
}

// RecoveryRepository define o contrato de persistência para pedidos de recuperação.
type RecoveryRepository interface {
	Save(ctx context.Context, request RecoveryRequest) (RecoveryRequest, error)
	// FindPending procura um pedido "pending" e não expirado para o par (email, code).
	FindPending(ctx context.Context, email, code string, now time.Time) (RecoveryRequest, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	FindAll(ctx context.Context) ([]RecoveryRequest, error)
	Delete(ctx context.Context, id string) error
}
