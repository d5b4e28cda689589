package analyticsservice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/cache"
	"impar/internal/pkg/logger"
	"impar/internal/service/analyticsservice"
)

// MockSurveyRepository cobre o que o serviço de analytics usa (FindByID).
type MockSurveyRepository struct {
	mock.Mock
}

func (m *MockSurveyRepository) Save(ctx context.Context, survey domain.Survey) (domain.Survey, error) {
	args := m.Called(ctx, survey)
	return args.Get(0).(domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) FindByID(ctx context.Context, id string) (domain.Survey, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) FindAll(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Survey, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockSurveyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSurveyRepository) IncrementResponseCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockResponseRepository é o mock do repositório de respostas.
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Save(ctx context.Context, answer domain.SurveyAnswer) (domain.SurveyAnswer, error) {
	args := m.Called(ctx, answer)
	return args.Get(0).(domain.SurveyAnswer), args.Error(1)
}

func (m *MockResponseRepository) FindBySurvey(ctx context.Context, surveyID string) ([]domain.SurveyAnswer, error) {
	args := m.Called(ctx, surveyID)
	return args.Get(0).([]domain.SurveyAnswer), args.Error(1)
}

func (m *MockResponseRepository) FindByUser(ctx context.Context, userID string) ([]domain.SurveyAnswer, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SurveyAnswer), args.Error(1)
}

func (m *MockResponseRepository) ExistsBySurveyAndUser(ctx context.Context, surveyID, userID string) (bool, error) {
	args := m.Called(ctx, surveyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResponseRepository) CountBySurvey(ctx context.Context, surveyID string) (int, error) {
	args := m.Called(ctx, surveyID)
	return args.Int(0), args.Error(1)
}

func (m *MockResponseRepository) DeleteBySurvey(ctx context.Context, surveyID string) error {
	args := m.Called(ctx, surveyID)
	return args.Error(0)
}

// MockCache é o mock da interface cache.Client.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) GetInt(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Incr(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newService(surveys *MockSurveyRepository, responses *MockResponseRepository, c *MockCache) *analyticsservice.Service {
	return analyticsservice.NewService(surveys, responses, c, 5*time.Minute, logger.NewLogger("error"))
}

// TestSurveyAnalytics_ForbiddenForOthers a visão admin é restrita ao dono e a admins.
func TestSurveyAnalytics_ForbiddenForOthers(t *testing.T) {
	surveys := new(MockSurveyRepository)
	svc := newService(surveys, new(MockResponseRepository), new(MockCache))

	surveyID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, OwnerID: uuid.New().String()}, nil)

	other := domain.User{ID: uuid.New().String(), Role: domain.RoleUser}

	_, err := svc.SurveyAnalytics(context.Background(), surveyID, other)

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusForbidden, status)
}

// TestSurveyAnalytics_AdminAllowed admins veem analytics de qualquer sondagem.
func TestSurveyAnalytics_AdminAllowed(t *testing.T) {
	surveys := new(MockSurveyRepository)
	responses := new(MockResponseRepository)
	svc := newService(surveys, responses, new(MockCache))

	surveyID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, OwnerID: uuid.New().String()}, nil)
	responses.On("FindBySurvey", mock.Anything, surveyID).Return([]domain.SurveyAnswer{}, nil)
	responses.On("CountBySurvey", mock.Anything, surveyID).Return(0, nil)

	admin := domain.User{ID: uuid.New().String(), Role: domain.RoleAdmin}

	analytics, err := svc.SurveyAnalytics(context.Background(), surveyID, admin)

	assert.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalResponses)
}

// TestSurveyAnalytics_TotalFromRepositoryCount o total vem da contagem no DB,
// não do tamanho da listagem (que é limitada).
func TestSurveyAnalytics_TotalFromRepositoryCount(t *testing.T) {
	surveys := new(MockSurveyRepository)
	responses := new(MockResponseRepository)
	svc := newService(surveys, responses, new(MockCache))

	surveyID := uuid.New().String()
	ownerID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, OwnerID: ownerID}, nil)
	responses.On("FindBySurvey", mock.Anything, surveyID).
		Return([]domain.SurveyAnswer{{ID: uuid.New().String(), SurveyID: surveyID}}, nil)
	responses.On("CountBySurvey", mock.Anything, surveyID).Return(1250, nil)

	owner := domain.User{ID: ownerID, Role: domain.RoleUser}

	analytics, err := svc.SurveyAnalytics(context.Background(), surveyID, owner)

	assert.NoError(t, err)
	assert.Equal(t, 1250, analytics.TotalResponses)
}

// TestPublicResults_RejectsUnpublished sondagens não publicadas não têm resultados públicos.
func TestPublicResults_RejectsUnpublished(t *testing.T) {
	surveys := new(MockSurveyRepository)
	svc := newService(surveys, new(MockResponseRepository), new(MockCache))

	surveyID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, IsPublished: false}, nil)

	_, err := svc.PublicResults(context.Background(), surveyID)

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

// TestPublicResults_ServesFromCache um hit no cache não recalcula nada.
func TestPublicResults_ServesFromCache(t *testing.T) {
	surveys := new(MockSurveyRepository)
	responses := new(MockResponseRepository)
	cacheClient := new(MockCache)
	svc := newService(surveys, responses, cacheClient)

	surveyID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, IsPublished: true}, nil)

	cached, _ := json.Marshal(analyticsservice.SurveyAnalytics{TotalResponses: 42})
	cacheClient.On("Get", mock.Anything, "public-results:"+surveyID).Return(string(cached), nil)

	analytics, err := svc.PublicResults(context.Background(), surveyID)

	assert.NoError(t, err)
	assert.Equal(t, 42, analytics.TotalResponses)
	responses.AssertNotCalled(t, "FindBySurvey", mock.Anything, mock.Anything)
}

// TestPublicResults_CacheMissRecomputesAndStores um miss recalcula e cacheia.
func TestPublicResults_CacheMissRecomputesAndStores(t *testing.T) {
	surveys := new(MockSurveyRepository)
	responses := new(MockResponseRepository)
	cacheClient := new(MockCache)
	svc := newService(surveys, responses, cacheClient)

	surveyID := uuid.New().String()
	surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, IsPublished: true}, nil)
	cacheClient.On("Get", mock.Anything, "public-results:"+surveyID).Return("", cache.ErrCacheMiss)
	responses.On("FindBySurvey", mock.Anything, surveyID).Return([]domain.SurveyAnswer{{}, {}}, nil)
	cacheClient.On("Set", mock.Anything, "public-results:"+surveyID, mock.Anything, 5*time.Minute).Return(nil)

	analytics, err := svc.PublicResults(context.Background(), surveyID)

	assert.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalResponses)
	cacheClient.AssertExpectations(t)
}
