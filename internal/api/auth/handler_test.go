package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"impar/internal/api/auth"
	"impar/internal/domain"
	"impar/internal/pkg/logger"
)

// MockUserService é o mock da interface UserService que o Handler consome.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.AuthToken, error) {
	args := m.Called(ctx, registration)
	return args.Get(0).(domain.AuthToken), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (domain.AuthToken, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.AuthToken), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	args := m.Called(ctx, userID, update)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, user domain.User, currentPassword, newPassword string) error {
	args := m.Called(ctx, user, currentPassword, newPassword)
	return args.Error(0)
}

// MockRecoveryService é o mock da interface RecoveryService.
type MockRecoveryService struct {
	mock.Mock
}

func (m *MockRecoveryService) RequestRecovery(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockRecoveryService) ResetWithCode(ctx context.Context, email, code, newPassword string) error {
	args := m.Called(ctx, email, code, newPassword)
	return args.Error(0)
}

func newHandler() (*auth.Handler, *MockUserService, *MockRecoveryService) {
	users := new(MockUserService)
	recovery := new(MockRecoveryService)
	return auth.NewHandler(users, recovery, logger.NewLogger("error")), users, recovery
}

// TestResetWithCode_RecoveryCodeField o payload documentado usa "recovery_code";
// o código tem de chegar intacto ao serviço.
func TestResetWithCode_RecoveryCodeField(t *testing.T) {
	handler, _, recovery := newHandler()

	recovery.On("ResetWithCode", mock.Anything, "user@test.com", "123456", "novasenha").
		Return(nil)

	body := `{"email":"user@test.com","recovery_code":"123456","new_password":"novasenha"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-with-code", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ResetWithCodeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	recovery.AssertExpectations(t)
}

// TestResetWithCode_CodeAlias "code" continua aceito como alias do campo documentado.
func TestResetWithCode_CodeAlias(t *testing.T) {
	handler, _, recovery := newHandler()

	recovery.On("ResetWithCode", mock.Anything, "user@test.com", "654321", "novasenha").
		Return(nil)

	body := `{"email":"user@test.com","code":"654321","new_password":"novasenha"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-with-code", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ResetWithCodeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	recovery.AssertExpectations(t)
}

// TestRegister_Returns200 o registo bem-sucedido responde 200, como as
// demais operações da API.
func TestRegister_Returns200(t *testing.T) {
	handler, users, _ := newHandler()

	users.On("Register", mock.Anything, mock.Anything).
		Return(domain.AuthToken{AccessToken: "jwt"}, nil)

	body := `{"email":"novo@test.com","password":"senha123","name":"Novo"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RegisterHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jwt")
}
