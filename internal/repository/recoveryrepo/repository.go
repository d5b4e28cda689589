package recoveryrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

const listLimit = 1000

// RecoveryRepository implementa domain.RecoveryRepository sobre PostgreSQL.
type RecoveryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRecoveryRepository cria uma nova instância do repositório de recuperação de senha.
func NewRecoveryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *RecoveryRepository {
	return &RecoveryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo pedido de recuperação.
func (r *RecoveryRepository) Save(ctx context.Context, request domain.RecoveryRequest) (domain.RecoveryRequest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	request.ID = uuid.NewString()
	request.CreatedAt = time.Now().UTC()

	_, err := r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO recovery_requests (id, email, user_name, code, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		request.ID, request.Email, request.UserName, request.Code, request.Status,
		request.CreatedAt, request.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido de recuperação no DB.", err)
		return domain.RecoveryRequest{}, apperror.NewDBError("failed to insert recovery request", err)
	}

	return request, nil
}

func scanRequest(row interface{ Scan(...interface{}) error }) (domain.RecoveryRequest, error) {
	var req domain.RecoveryRequest
	var usedAt sql.NullTime
	err := row.Scan(&req.ID, &req.Email, &req.UserName, &req.Code, &req.Status, &req.CreatedAt, &req.ExpiresAt, &usedAt)
	if err != nil {
		return domain.RecoveryRequest{}, err
	}
	if usedAt.Valid {
		req.UsedAt = &usedAt.Time
	}
	return req, nil
}

// FindPending procura um pedido "pending" e não expirado para o par (email, code).
// A expiração é avaliada aqui, no consumo; pedidos vencidos nunca saem desta consulta.
func (r *RecoveryRepository) FindPending(ctx context.Context, email, code string, now time.Time) (domain.RecoveryRequest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	request, err := scanRequest(r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, email, user_name, code, status, created_at, expires_at, used_at
		 FROM recovery_requests
		 WHERE email = $1 AND code = $2 AND status = $3 AND expires_at > $4`,
		email, code, domain.RecoveryPending, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RecoveryRequest{}, apperror.NewNotFoundError("Pedido de recuperação não encontrado.")
		}
		r.logger.Error("Falha ao buscar pedido de recuperação no DB.", err)
		return domain.RecoveryRequest{}, apperror.NewDBError("failed to find recovery request", err)
	}

	return request, nil
}

// MarkUsed marca um pedido como consumido. Só transiciona pedidos "pending":
// um segundo consumo do mesmo código não encontra linha para afetar.
func (r *RecoveryRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE recovery_requests SET status = $1, used_at = $2 WHERE id = $3 AND status = $4`,
		domain.RecoveryUsed, usedAt, id, domain.RecoveryPending)
	if err != nil {
		r.logger.Error("Falha ao marcar pedido de recuperação como usado no DB.", err)
		return apperror.NewDBError("failed to mark recovery request used", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Pedido de recuperação não encontrado.")
	}

	return nil
}

// FindAll lista todos os pedidos de recuperação (visão administrativa).
func (r *RecoveryRepository) FindAll(ctx context.Context) ([]domain.RecoveryRequest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, email, user_name, code, status, created_at, expires_at, used_at
		FROM recovery_requests ORDER BY created_at DESC LIMIT %d`, listLimit)
	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos de recuperação no DB.", err)
		return nil, apperror.NewDBError("failed to list recovery requests", err)
	}
	defer rows.Close()

	requests := []domain.RecoveryRequest{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan recovery request row", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate recovery request rows", err)
	}

	return requests, nil
}

// Delete remove um pedido de recuperação.
func (r *RecoveryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM recovery_requests WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao apagar pedido de recuperação no DB.", err)
		return apperror.NewDBError("failed to delete recovery request", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Pedido de recuperação não encontrado.")
	}

	return nil
}
