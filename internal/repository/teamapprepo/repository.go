package teamapprepo

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

// TeamApplicationRepository implementa domain.TeamApplicationRepository sobre PostgreSQL.
type TeamApplicationRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTeamApplicationRepository cria uma nova instância do repositório de candidaturas.
func NewTeamApplicationRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TeamApplicationRepository {
	return &TeamApplicationRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma nova candidatura.
func (r *TeamApplicationRepository) Save(ctx context.Context, application domain.TeamApplication) (domain.TeamApplication, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	application.ID = uuid.NewString()
	application.CreatedAt = time.Now().UTC()

	_, err := r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO team_applications (id, user_id, user_name, user_email, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		application.ID, application.UserID, application.UserName, application.UserEmail,
		application.Message, application.Status, application.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir candidatura no DB.", err)
		return domain.TeamApplication{}, apperror.NewDBError("failed to insert team application", err)
	}

	return application, nil
}

func scanApplication(row interface{ Scan(...interface{}) error }) (domain.TeamApplication, error) {
	var a domain.TeamApplication
	err := row.Scan(&a.ID, &a.UserID, &a.UserName, &a.UserEmail, &a.Message, &a.Status, &a.CreatedAt)
	return a, err
}

// FindByID busca uma candidatura pelo identificador.
func (r *TeamApplicationRepository) FindByID(ctx context.Context, id string) (domain.TeamApplication, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	application, err := scanApplication(r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, user_id, user_name, user_email, message, status, created_at
		 FROM team_applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TeamApplication{}, apperror.NewNotFoundError("Candidatura não encontrada.")
		}
		r.logger.Error("Falha ao buscar candidatura no DB.", err)
		return domain.TeamApplication{}, apperror.NewDBError("failed to find team application", err)
	}

	return application, nil
}

// FindAll lista todas as candidaturas, mais recentes primeiro.
func (r *TeamApplicationRepository) FindAll(ctx context.Context) ([]domain.TeamApplication, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, user_id, user_name, user_email, message, status, created_at
		FROM team_applications ORDER BY created_at DESC LIMIT %d`, listLimit)
	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar candidaturas no DB.", err)
		return nil, apperror.NewDBError("failed to list team applications", err)
	}
	defer rows.Close()

	applications := []domain.TeamApplication{}
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan team application row", err)
		}
		applications = append(applications, application)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate team application rows", err)
	}

	return applications, nil
}

// PendingExistsForUser indica se o utilizador já tem uma candidatura pendente.
func (r *TeamApplicationRepository) PendingExistsForUser(ctx context.Context, userID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM team_applications WHERE user_id = $1 AND status = $2)`,
		userID, domain.ApplicationPending,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar candidatura pendente no DB.", err)
		return false, apperror.NewDBError("failed to check pending application", err)
	}

	return exists, nil
}

// UpdateStatus atualiza o estado de análise de uma candidatura.
func (r *TeamApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE team_applications SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.logger.Error("Falha ao atualizar estado da candidatura no DB.", err)
		return apperror.NewDBError("failed to update team application status", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Candidatura não encontrada.")
	}

	return nil
}

// Delete remove uma candidatura.
func (r *TeamApplicationRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM team_applications WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao apagar candidatura no DB.", err)
		return apperror.NewDBError("failed to delete team application", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Candidatura não encontrada.")
	}

	return nil
}
