package recoveryservice_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/service/recoveryservice"
)

// MockRecoveryRepository é uma implementação mock da interface RecoveryRepository
type MockRecoveryRepository struct {
	mock.Mock
}

func (m *MockRecoveryRepository) Save(ctx context.Context, request domain.RecoveryRequest) (domain.RecoveryRequest, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(domain.RecoveryRequest), args.Error(1)
}

func (m *MockRecoveryRepository) FindPending(ctx context.Context, email, code string, now time.Time) (domain.RecoveryRequest, error) {
	args := m.Called(ctx, email, code, now)
	return args.Get(0).(domain.RecoveryRequest), args.Error(1)
}

func (m *MockRecoveryRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

func (m *MockRecoveryRepository) FindAll(ctx context.Context) ([]domain.RecoveryRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RecoveryRequest), args.Error(1)
}

func (m *MockRecoveryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository cobre o que o RecoveryService usa.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) OwnerExists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func newService(recoveryRepo *MockRecoveryRepository, userRepo *MockUserRepository) *recoveryservice.RecoveryService {
	return recoveryservice.NewService(recoveryRepo, userRepo, 30*time.Minute, logger.NewLogger("error"))
}

// TestRequestRecovery_SavesPendingCode gera um código de 6 dígitos pendente
// com a expiração configurada.
func TestRequestRecovery_SavesPendingCode(t *testing.T) {
	recoveryRepo := new(MockRecoveryRepository)
	userRepo := new(MockUserRepository)
	svc := newService(recoveryRepo, userRepo)

	userRepo.On("FindByEmail", mock.Anything, "a@b.pt").
		Return(domain.User{ID: uuid.New().String(), Email: "a@b.pt", Name: "Ana"}, nil)

	var saved domain.RecoveryRequest
	recoveryRepo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.RecoveryRequest) }).
		Return(domain.RecoveryRequest{}, nil)

	err := svc.RequestRecovery(context.Background(), "a@b.pt")

	assert.NoError(t, err)
	assert.Equal(t, domain.RecoveryPending, saved.Status)
	assert.Len(t, saved.Code, 6)
	assert.Equal(t, "Ana", saved.UserName)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), saved.ExpiresAt, 5*time.Second)
}

// TestRequestRecovery_UnknownEmailStillSucceeds não revela se a conta existe.
func TestRequestRecovery_UnknownEmailStillSucceeds(t *testing.T) {
	recoveryRepo := new(MockRecoveryRepository)
	userRepo := new(MockUserRepository)
	svc := newService(recoveryRepo, userRepo)

	userRepo.On("FindByEmail", mock.Anything, "x@b.pt").
		Return(domain.User{}, apperror.NewNotFoundError("utilizador não encontrado"))

	err := svc.RequestRecovery(context.Background(), "x@b.pt")

	assert.NoError(t, err)
	recoveryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestResetWithCode_Success troca a senha e marca o pedido como usado.
func TestResetWithCode_Success(t *testing.T) {
	recoveryRepo := new(MockRecoveryRepository)
	userRepo := new(MockUserRepository)
	svc := newService(recoveryRepo, userRepo)

	requestID := uuid.New().String()
	userID := uuid.New().String()

	recoveryRepo.On("FindPending", mock.Anything, "a@b.pt", "123456", mock.Anything).
		Return(domain.RecoveryRequest{ID: requestID, Email: "a@b.pt", Code: "123456"}, nil)
	userRepo.On("FindByEmail", mock.Anything, "a@b.pt").
		Return(domain.User{ID: userID, Email: "a@b.pt"}, nil)
	userRepo.On("UpdateFields", mock.Anything, userID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		hash, ok := fields["password_hash"].(string)
		if !ok {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("novasenha")) == nil
	})).Return(nil)
	recoveryRepo.On("MarkUsed", mock.Anything, requestID, mock.Anything).Return(nil)

	err := svc.ResetWithCode(context.Background(), "a@b.pt", "123456", "novasenha")

	assert.NoError(t, err)
	recoveryRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

// TestResetWithCode_InvalidCode uma única mensagem para código errado,
// usado ou expirado.
func TestResetWithCode_InvalidCode(t *testing.T) {
	recoveryRepo := new(MockRecoveryRepository)
	userRepo := new(MockUserRepository)
	svc := newService(recoveryRepo, userRepo)

	recoveryRepo.On("FindPending", mock.Anything, "a@b.pt", "000000", mock.Anything).
		Return(domain.RecoveryRequest{}, apperror.NewNotFoundError("pedido não encontrado"))

	err := svc.ResetWithCode(context.Background(), "a@b.pt", "000000", "novasenha")

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
	userRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

// TestResetWithCode_ShortPassword rejeita senhas abaixo do mínimo sem tocar no repositório.
func TestResetWithCode_ShortPassword(t *testing.T) {
	recoveryRepo := new(MockRecoveryRepository)
	svc := newService(recoveryRepo, new(MockUserRepository))

	err := svc.ResetWithCode(context.Background(), "a@b.pt", "123456", "abc")

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
	recoveryRepo.AssertNotCalled(t, "FindPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
