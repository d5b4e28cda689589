package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// Limite superior de resultados em listagens administrativas.
const listLimit = 1000

// UserRepository implementa a interface domain.UserRepository sobre PostgreSQL.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const userColumns = `id, email, password_hash, name, role, bio, avatar_url,
	phone, date_of_birth, gender, nationality, district, municipality, parish,
	marital_status, religion, education_level, profession, lived_abroad,
	accept_notifications, created_at, updated_at`

// scanUser mapeia uma linha da tabela users para a struct domain.User.
func scanUser(row interface{ Scan(...interface{}) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Bio, &u.AvatarURL,
		&u.Phone, &u.DateOfBirth, &u.Gender, &u.Nationality, &u.District,
		&u.Municipality, &u.Parish, &u.MaritalStatus, &u.Religion,
		&u.EducationLevel, &u.Profession, &u.LivedAbroad,
		&u.AcceptNotifications, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// Save insere um novo utilizador no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	insertSQL := fmt.Sprintf(`INSERT INTO users (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22)`, userColumns)

	_, err := r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
		user.Bio, user.AvatarURL, user.Phone, user.DateOfBirth, user.Gender,
		user.Nationality, user.District, user.Municipality, user.Parish,
		user.MaritalStatus, user.Religion, user.EducationLevel, user.Profession,
		user.LivedAbroad, user.AcceptNotifications, user.CreatedAt, user.UpdatedAt,
	)

	if err != nil {
		// 23505 = unique_violation: o email já está registado
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.User{}, apperror.NewValidationError(
				fmt.Sprintf("O email '%s' já está registado.", user.Email))
		}
		r.logger.Error("Falha ao inserir utilizador no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Utilizador salvo no repositório.", map[string]interface{}{
		"user_id": user.ID, "email": user.Email, "role": user.Role,
	})
	return user, nil
}

// FindByID busca um utilizador pelo identificador.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError("Utilizador não encontrado.")
		}
		r.logger.Error("Falha ao buscar utilizador por id no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	return user, nil
}

// FindByEmail busca um utilizador pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, email))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(
				fmt.Sprintf("Utilizador com email '%s' não encontrado.", email))
		}
		r.logger.Error("Falha ao buscar utilizador por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}

	return user, nil
}

// FindAll lista todos os utilizadores (visão administrativa, com teto de resultados).
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC LIMIT %d`, userColumns, listLimit)
	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar utilizadores no DB.", err)
		return nil, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDBError("failed to scan user row", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate user rows", err)
	}

	return users, nil
}

// UpdateFields aplica uma atualização parcial (apenas os campos informados).
// As chaves do mapa são nomes de coluna já validados pela camada de serviço.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Ordena as colunas para montar a query de forma determinística
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for i, col := range columns {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, fields[col])
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(columns)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`,
		strings.Join(setClauses, ", "), len(columns)+2)

	result, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao atualizar utilizador no DB.", err)
		return apperror.NewDBError("failed to update user", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Utilizador não encontrado.")
	}

	return nil
}

// Delete remove definitivamente um utilizador (hard delete).
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao apagar utilizador no DB.", err)
		return apperror.NewDBError("failed to delete user", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError("Utilizador não encontrado.")
	}

	r.logger.Info("Utilizador apagado do repositório.", map[string]interface{}{"user_id": id})
	return nil
}

// OwnerExists indica se já há um utilizador com papel "owner".
func (r *UserRepository) OwnerExists(ctx context.Context) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, domain.RoleOwner,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar existência de owner no DB.", err)
		return false, apperror.NewDBError("failed to check owner existence", err)
	}

	return exists, nil
}
