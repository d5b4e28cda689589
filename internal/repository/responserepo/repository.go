package responserepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// Limite superior de resultados nas listagens de respostas.
const listLimit = 1000

// ResponseRepository implementa a interface domain.ResponseRepository sobre
// PostgreSQL. As respostas individuais ficam em JSONB na linha da submissão.
type ResponseRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewResponseRepository cria uma nova instância do ResponseRepository, injetando o DB.
func NewResponseRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ResponseRepository {
	return &ResponseRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma nova submissão de respostas.
func (r *ResponseRepository) Save(ctx context.Context, answer domain.SurveyAnswer) (domain.SurveyAnswer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	answer.ID = uuid.NewString()
	answer.SubmittedAt = time.Now().UTC()

	answersJSON, err := json.Marshal(answer.Answers)
	if err != nil {
		return domain.SurveyAnswer{}, apperror.NewInternalError("Falha ao serializar respostas.", err)
	}

	// user_id NULL marca uma submissão anónima
	var userID sql.NullString
	if answer.UserID != "" {
		userID = sql.NullString{String: answer.UserID, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctxTimeout,
		`INSERT INTO responses (id, survey_id, user_id, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		answer.ID, answer.SurveyID, userID, answersJSON, answer.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir resposta no DB.", err)
		return domain.SurveyAnswer{}, apperror.NewDBError("failed to insert response", err)
	}

	return answer, nil
}

func scanAnswer(row interface{ Scan(...interface{}) error }) (domain.SurveyAnswer, error) {
	var a domain.SurveyAnswer
	var userID sql.NullString
	var answersJSON []byte
	if err := row.Scan(&a.ID, &a.SurveyID, &userID, &answersJSON, &a.SubmittedAt); err != nil {
		return domain.SurveyAnswer{}, err
	}
	if userID.Valid {
		a.UserID = userID.String
	}
	a.Answers = []domain.Answer{}
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return domain.SurveyAnswer{}, fmt.Errorf("answers jsonb corrompido: %w", err)
		}
	}
	return a, nil
}

func (r *ResponseRepository) queryAnswers(ctx context.Context, query string, args ...interface{}) ([]domain.SurveyAnswer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar respostas no DB.", err)
		return nil, apperror.NewDBError("failed to list responses", err)
	}
	defer rows.Close()

	answers := []domain.SurveyAnswer{}
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan response row", err)
		}
		answers = append(answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate response rows", err)
	}

	return answers, nil
}

// FindBySurvey lista as submissões de uma sondagem, mais recentes primeiro.
func (r *ResponseRepository) FindBySurvey(ctx context.Context, surveyID string) ([]domain.SurveyAnswer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, survey_id, user_id, answers, submitted_at
		FROM responses WHERE survey_id = $1 ORDER BY submitted_at DESC LIMIT %d`, listLimit)
	return r.queryAnswers(ctxTimeout, query, surveyID)
}

// FindByUser lista as submissões de um utilizador, mais recentes primeiro.
func (r *ResponseRepository) FindByUser(ctx context.Context, userID string) ([]domain.SurveyAnswer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, survey_id, user_id, answers, submitted_at
		FROM responses WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT %d`, listLimit)
	return r.queryAnswers(ctxTimeout, query, userID)
}

// ExistsBySurveyAndUser indica se o utilizador já submeteu respostas à sondagem.
func (r *ResponseRepository) ExistsBySurveyAndUser(ctx context.Context, surveyID, userID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM responses WHERE survey_id = $1 AND user_id = $2)`,
		surveyID, userID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar resposta existente no DB.", err)
		return false, apperror.NewDBError("failed to check response existence", err)
	}

	return exists, nil
}

// CountBySurvey conta as submissões armazenadas de uma sondagem.
func (r *ResponseRepository) CountBySurvey(ctx context.Context, surveyID string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM responses WHERE survey_id = $1`, surveyID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Falha ao contar respostas no DB.", err)
		return 0, apperror.NewDBError("failed to count responses", err)
	}

	return count, nil
}

// DeleteBySurvey remove todas as submissões de uma sondagem (cascata do delete).
func (r *ResponseRepository) DeleteBySurvey(ctx context.Context, surveyID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM responses WHERE survey_id = $1`, surveyID)
	if err != nil {
		r.logger.Error("Falha ao apagar respostas da sondagem no DB.", err)
		return apperror.NewDBError("failed to delete survey responses", err)
	}

	return nil
}
