package userservice

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// Comprimento mínimo aceito para novas senhas (troca e recuperação).
const MinPasswordLength = 6

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID, email, role string) (string, error)
}

// UserService implementa o registo, login e gestão de utilizadores.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, log logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		logger:   log,
	}
}

// Register registra um novo utilizador no sistema.
// O primeiro registo bem-sucedido recebe o papel "owner"; a verificação é
// feita contra o repositório no momento do registo, não há flag em memória.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.AuthToken, error) {
	// 1. Validação Básica
	if registration.Email == "" || registration.Name == "" || registration.Password == "" {
		return domain.AuthToken{}, apperror.NewValidationError("Email, nome e senha são obrigatórios.")
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.AuthToken{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Papel inicial: o primeiro registo vira owner, todos os demais user
	ownerExists, err := s.UserRepo.OwnerExists(ctx)
	if err != nil {
		return domain.AuthToken{}, err
	}
	role := domain.RoleUser
	if !ownerExists {
		role = domain.RoleOwner
	}

	// 4. Criação do Objeto User
	newUser := domain.User{
		Email:               registration.Email,
		PasswordHash:        string(hashedPassword),
		Name:                registration.Name,
		Role:                role,
		Phone:               registration.Phone,
		DateOfBirth:         registration.DateOfBirth,
		Gender:              registration.Gender,
		Nationality:         registration.Nationality,
		District:            registration.District,
		Municipality:        registration.Municipality,
		Parish:              registration.Parish,
		MaritalStatus:       registration.MaritalStatus,
		Religion:            registration.Religion,
		EducationLevel:      registration.EducationLevel,
		Profession:          registration.Profession,
		LivedAbroad:         registration.LivedAbroad,
		AcceptNotifications: registration.AcceptNotifications,
	}

	// 5. Persistência (email duplicado vem do repositório como ValidationError)
	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return domain.AuthToken{}, err
	}

	s.logger.Info("Novo utilizador registado.", map[string]interface{}{
		"user_id": user.ID, "role": user.Role,
	})

	// 6. Emissão do token de sessão
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return domain.AuthToken{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return domain.AuthToken{AccessToken: tokenString, TokenType: "bearer", User: user}, nil
}

// Login autentica um utilizador, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.AuthToken, error) {
	if email == "" || password == "" {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	// NotFound é traduzido para Unauthorized para não dar dicas a invasores
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.AuthToken{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return domain.AuthToken{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return domain.AuthToken{AccessToken: tokenString, TokenType: "bearer", User: user}, nil
}

// UpdateProfile aplica uma atualização parcial ao perfil do próprio utilizador.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = *update.AvatarURL
	}

	if len(fields) > 0 {
		if err := s.UserRepo.UpdateFields(ctx, userID, fields); err != nil {
			return domain.User{}, err
		}
	}

	return s.UserRepo.FindByID(ctx, userID)
}

// ChangePassword troca a senha do próprio utilizador, exigindo a senha atual.
func (s *UserService) ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperror.NewValidationError("A senha atual está incorreta.")
	}

	if len(newPassword) < MinPasswordLength {
		return apperror.NewValidationError(
			fmt.Sprintf("A nova senha deve ter pelo menos %d caracteres.", MinPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	return s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash": string(hashedPassword),
	})
}

// ListUsers lista todos os utilizadores (visão administrativa).
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.UserRepo.FindAll(ctx)
}

// UpdateRole altera o papel de um utilizador. Restrito ao owner; o registro
// do próprio owner nunca é alterado por esta operação.
func (s *UserService) UpdateRole(ctx context.Context, requester domain.User, targetID string, role domain.UserRole) error {
	if requester.Role != domain.RoleOwner {
		return apperror.NewForbiddenError("Apenas o owner pode alterar papéis.")
	}

	if role != domain.RoleUser && role != domain.RoleAdmin {
		return apperror.NewValidationError("Papel inválido. Use 'user' ou 'admin'.")
	}

	target, err := s.UserRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.Role == domain.RoleOwner {
		return apperror.NewValidationError("O papel do owner não pode ser alterado.")
	}

	if err := s.UserRepo.UpdateFields(ctx, targetID, map[string]interface{}{"role": role}); err != nil {
		return err
	}

	s.logger.Info("Papel de utilizador alterado.", map[string]interface{}{
		"user_id": targetID, "new_role": role, "by": requester.ID,
	})
	return nil
}

// DeleteUser remove definitivamente um utilizador. Restrito ao owner; o
// próprio owner nunca pode ser removido.
func (s *UserService) DeleteUser(ctx context.Context, requester domain.User, targetID string) error {
	if requester.Role != domain.RoleOwner {
		return apperror.NewForbiddenError("Apenas o owner pode remover utilizadores.")
	}

	target, err := s.UserRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.Role == domain.RoleOwner {
		return apperror.NewValidationError("O owner não pode ser removido.")
	}

	return s.UserRepo.Delete(ctx, targetID)
}
