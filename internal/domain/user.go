package domain

import (
	"context"
	"time"
)

// User representa a entidade do utilizador no sistema.
// Além da identidade e credenciais, carrega o perfil demográfico
// recolhido no registo (todos os campos opcionais).
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"` // Oculta o hash da senha no JSON de resposta
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	Bio          string   `json:"bio,omitempty"`
	AvatarURL    string   `json:"avatar_url,omitempty"`

	// Perfil demográfico
	Phone               string `json:"phone,omitempty"`
	DateOfBirth         string `json:"date_of_birth,omitempty"`
	Gender              string `json:"gender,omitempty"`
	Nationality         string `json:"nationality,omitempty"`
	District            string `json:"district,omitempty"`
	Municipality        string `json:"municipality,omitempty"`
	Parish              string `json:"parish,omitempty"`
	MaritalStatus       string `json:"marital_status,omitempty"`
	Religion            string `json:"religion,omitempty"`
	EducationLevel      string `json:"education_level,omitempty"`
	Profession          string `json:"profession,omitempty"`
	LivedAbroad         bool   `json:"lived_abroad"`
	AcceptNotifications bool   `json:"accept_notifications"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do utilizador no sistema.
type UserRole string

// Constantes para os papéis de utilizador.
// O papel "owner" é único: atribuído ao primeiro registo bem-sucedido.
const (
	RoleOwner UserRole = "owner"
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// IsAdmin indica se o papel tem privilégios administrativos (admin ou owner).
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleOwner
}

// CanManage é o gate único de posse usado pelos serviços: o utilizador pode
// mutar/apagar um recurso se for o dono dele ou tiver papel administrativo.
func (u User) CanManage(resourceOwnerID string) bool {
	return u.ID == resourceOwnerID || u.Role.IsAdmin()
}

// UserRegistration representa o payload de entrada para o registo.
type UserRegistration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`

	Phone               string `json:"phone,omitempty"`
	DateOfBirth         string `json:"date_of_birth,omitempty"`
	Gender              string `json:"gender,omitempty"`
	Nationality         string `json:"nationality,omitempty"`
	District            string `json:"district,omitempty"`
	Municipality        string `json:"municipality,omitempty"`
	Parish              string `json:"parish,omitempty"`
	MaritalStatus       string `json:"marital_status,omitempty"`
	Religion            string `json:"religion,omitempty"`
	EducationLevel      string `json:"education_level,omitempty"`
	Profession          string `json:"profession,omitempty"`
	LivedAbroad         bool   `json:"lived_abroad"`
	AcceptNotifications bool   `json:"accept_notifications"`
}

// ProfileUpdate representa o payload de atualização parcial do perfil.
// Ponteiros distinguem "campo ausente" de "campo com valor vazio".
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// AuthToken é a resposta de autenticação: o JWT emitido e o utilizador.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	// OwnerExists indica se já há um utilizador com papel "owner".
	// Consultado no momento do registo (o primeiro registo vira owner).
	OwnerExists(ctx context.Context) (bool, error)
}
