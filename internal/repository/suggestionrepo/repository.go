package suggestionrepo

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

// SuggestionRepository implementa a interface domain.SuggestionRepository sobre PostgreSQL.
type SuggestionRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSuggestionRepository cria uma nova instância do SuggestionRepository.
func NewSuggestionRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SuggestionRepository {
	return &SuggestionRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma nova sugestão.
func (r *SuggestionRepository) Save(ctx context.Context, suggestion domain.Suggestion) (domain.Suggestion, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	suggestion.ID = uuid.NewString()
	suggestion.CreatedAt = time.Now().UTC()

	var surveyID sql.NullString
	if suggestion.SurveyID != "" {
		surveyID = sql.NullString{String: suggestion.SurveyID, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO suggestions (id, user_id, user_name, content, survey_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		suggestion.ID, suggestion.UserID, suggestion.UserName, suggestion.Content,
		surveyID, suggestion.Status, suggestion.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir sugestão no DB.", err)
		return domain.Suggestion{}, apperror.NewDBError("failed to insert suggestion", err)
	}

	return suggestion, nil
}

func scanSuggestion(row interface{ Scan(...interface{}) error }) (domain.Suggestion, error) {
	var s domain.Suggestion
	var surveyID sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.UserName, &s.Content, &surveyID, &s.Status, &s.CreatedAt)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if surveyID.Valid {
		s.SurveyID = surveyID.String
	}
	return s, nil
}

// FindByID busca uma sugestão pelo identificador.
func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (domain.Suggestion, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	suggestion, err := scanSuggestion(r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, user_id, user_name, content, survey_id, status, created_at
		 FROM suggestions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Suggestion{}, apperror.NewNotFoundError("Sugestão não encontrada.")
		}
		r.logger.Error("Falha ao buscar sugestão no DB.", err)
		return domain.Suggestion{}, apperror.NewDBError("failed to find suggestion", err)
	}

	return suggestion, nil
}

// FindAll lista todas as sugestões, mais recentes primeiro.
func (r *SuggestionRepository) FindAll(ctx context.Context) ([]domain.Suggestion, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, user_id, user_name, content, survey_id, status, created_at
		FROM suggestions ORDER BY created_at DESC LIMIT %d`, listLimit)
	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar sugestões no DB.", err)
		return nil, apperror.NewDBError("failed to list suggestions", err)
	}
	defer rows.Close()

	suggestions := []domain.Suggestion{}
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan suggestion row", err)
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate suggestion rows", err)
	}

	return suggestions, nil
}

// UpdateStatus atualiza o estado de revisão de uma sugestão.
func (r *SuggestionRepository) UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE suggestions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		r.logger.Error("Falha ao atualizar estado da sugestão no DB.", err)
		return apperror.NewDBError("failed to update suggestion status", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Sugestão não encontrada.")
	}

	return nil
}

// Delete remove uma sugestão.
func (r *SuggestionRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM suggestions WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao apagar sugestão no DB.", err)
		return apperror.NewDBError("failed to delete suggestion", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Sugestão não encontrada.")
	}

	return nil
}
