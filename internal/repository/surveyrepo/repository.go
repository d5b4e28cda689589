package surveyrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// Limite superior de resultados da listagem de sondagens.
const listLimit = 100

// SurveyRepository implementa a interface domain.SurveyRepository sobre PostgreSQL.
// As perguntas são armazenadas como JSONB na própria linha da sondagem: a lista
// é sempre lida e substituída por inteiro, nunca editada posicionalmente.
type SurveyRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSurveyRepository cria uma nova instância do SurveyRepository, injetando o DB.
func NewSurveyRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SurveyRepository {
	return &SurveyRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const surveyColumns = `id, owner_id, title, description, questions, is_published,
	is_featured, end_date, response_count, created_at, updated_at`

// scanSurvey mapeia uma linha da tabela surveys para a struct domain.Survey,
// desserializando o JSONB das perguntas.
func scanSurvey(row interface{ Scan(...interface{}) error }) (domain.Survey, error) {
	var s domain.Survey
	var questionsJSON []byte
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Title, &s.Description, &questionsJSON,
		&s.IsPublished, &s.IsFeatured, &s.EndDate, &s.ResponseCount,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Survey{}, err
	}

	s.Questions = []domain.Question{}
	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &s.Questions); err != nil {
			return domain.Survey{}, fmt.Errorf("questions jsonb corrompido: %w", err)
		}
	}
	return s, nil
}

// Save insere uma nova sondagem no banco de dados.
func (r *SurveyRepository) Save(ctx context.Context, survey domain.Survey) (domain.Survey, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	survey.ID = uuid.NewString()
	survey.CreatedAt = time.Now().UTC()
	survey.UpdatedAt = survey.CreatedAt
	survey.ResponseCount = 0

	questionsJSON, err := json.Marshal(survey.Questions)
	if err != nil {
		return domain.Survey{}, apperror.NewInternalError("Falha ao serializar perguntas.", err)
	}

	insertSQL := fmt.Sprintf(`INSERT INTO surveys (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, surveyColumns)

	_, err = r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		survey.ID, survey.OwnerID, survey.Title, survey.Description, questionsJSON,
		survey.IsPublished, survey.IsFeatured, survey.EndDate, survey.ResponseCount,
		survey.CreatedAt, survey.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir sondagem no DB.", err)
		return domain.Survey{}, apperror.NewDBError("failed to insert survey", err)
	}

	r.logger.Info("Sondagem salva no repositório.", map[string]interface{}{
		"survey_id": survey.ID, "owner_id": survey.OwnerID,
	})
	return survey, nil
}

// FindByID busca uma sondagem pelo identificador.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (domain.Survey, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE id = $1`, surveyColumns)
	survey, err := scanSurvey(r.DB.QueryRowContext(ctxTimeout, query, id))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Survey{}, apperror.NewNotFoundError("Sondagem não encontrada.")
		}
		r.logger.Error("Falha ao buscar sondagem por id no DB.", err)
		return domain.Survey{}, apperror.NewDBError("failed to find survey by id", err)
	}

	return survey, nil
}

// FindAll lista sondagens pelo filtro, mais recentes primeiro.
func (r *SurveyRepository) FindAll(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where := []string{}
	args := []interface{}{}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		where = append(where, fmt.Sprintf("is_featured = $%d", len(args)))
	}
	if filter.Published != nil {
		args = append(args, *filter.Published)
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM surveys`, surveyColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", listLimit)

	return r.querySurveys(ctxTimeout, query, args...)
}

// FindByOwner lista as sondagens de um dono específico.
func (r *SurveyRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Survey, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE owner_id = $1 ORDER BY created_at DESC LIMIT %d`,
		surveyColumns, listLimit)
	return r.querySurveys(ctxTimeout, query, ownerID)
}

func (r *SurveyRepository) querySurveys(ctx context.Context, query string, args ...interface{}) ([]domain.Survey, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar sondagens no DB.", err)
		return nil, apperror.NewDBError("failed to list surveys", err)
	}
	defer rows.Close()

	surveys := []domain.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan survey row", err)
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate survey rows", err)
	}

	return surveys, nil
}

// UpdateFields aplica uma atualização parcial. O valor da chave "questions"
// deve ser []domain.Question e é serializado aqui para JSONB.
func (r *SurveyRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for i, col := range columns {
		value := fields[col]
		if col == "questions" {
			questions, ok := value.([]domain.Question)
			if !ok {
				return apperror.NewInternalError("Campo questions com tipo inesperado.", nil)
			}
			questionsJSON, err := json.Marshal(questions)
			if err != nil {
				return apperror.NewInternalError("Falha ao serializar perguntas.", err)
			}
			value = questionsJSON
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, value)
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(columns)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE surveys SET %s WHERE id = $%d`,
		strings.Join(setClauses, ", "), len(columns)+2)

	result, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar sondagem no DB.", err)
		return apperror.NewDBError("failed to update survey", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Sondagem não encontrada.")
	}

	return nil
}

// Delete remove uma sondagem. O cascateamento das respostas é responsabilidade
// da camada de serviço (coleções sem foreign keys entre si).
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao apagar sondagem no DB.", err)
		return apperror.NewDBError("failed to delete survey", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Sondagem não encontrada.")
	}

	r.logger.Info("Sondagem apagada do repositório.", map[string]interface{}{"survey_id": id})
	return nil
}

// IncrementResponseCount soma 1 ao contador de respostas da sondagem.
func (r *SurveyRepository) IncrementResponseCount(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE surveys SET response_count = response_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao incrementar contador de respostas no DB.", err)
		return apperror.NewDBError("failed to increment response count", err)
	}

	return nil
}
