package surveyservice_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/service/surveyservice"
)

// MockSurveyRepository é uma implementação mock da interface SurveyRepository
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

// MockUserRepository cobre apenas o que o SurveyService usa (FindByID).
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

// MockInvalidator registra as invalidações de cache pedidas pelo serviço.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidatePublicResults(ctx context.Context, surveyID string) {
	m.Called(ctx, surveyID)
}

type fixture struct {
	surveys     *MockSurveyRepository
	users       *MockUserRepository
	responses   *MockResponseRepository
	invalidator *MockInvalidator
	svc         *surveyservice.SurveyService
}

func newFixture() *fixture {
	f := &fixture{
		surveys:     new(MockSurveyRepository),
		users:       new(MockUserRepository),
		responses:   new(MockResponseRepository),
		invalidator: new(MockInvalidator),
	}
	f.svc = surveyservice.NewService(f.surveys, f.users, f.responses, f.invalidator, logger.NewLogger("error"))
	return f
}

func options(texts ...string) []struct {
	Text string `json:"text"`
} {
	opts := make([]struct {
		Text string `json:"text"`
	}, 0, len(texts))
	for _, t := range texts {
		opts = append(opts, struct {
			Text string `json:"text"`
		}{Text: t})
	}
	return opts
}

// TestCreateSurvey_GeneratesFreshIDs verifica ids novos e ordem sequencial
// para perguntas e opções.
func TestCreateSurvey_GeneratesFreshIDs(t *testing.T) {
	f := newFixture()
	owner := domain.User{ID: uuid.New().String(), Name: "Ana", Role: domain.RoleAdmin}

	var saved domain.Survey
	f.surveys.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Survey) }).
		Return(domain.Survey{}, nil)

	view, err := f.svc.CreateSurvey(context.Background(), owner, domain.SurveyCreate{
		Title: "Mobilidade urbana",
		Questions: []domain.QuestionInput{
			{Type: domain.QuestionMultipleChoice, Text: "Como se desloca?", Options: options("A pé", "Carro")},
			{Type: domain.QuestionRating, Text: "Avalie os transportes"},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Ana", view.OwnerName)
	assert.False(t, saved.IsPublished)
	assert.Equal(t, owner.ID, saved.OwnerID)
	assert.Len(t, saved.Questions, 2)

	first := saved.Questions[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.Order)
	assert.True(t, first.Required)
	assert.Len(t, first.Options, 2)
	assert.NotEmpty(t, first.Options[0].ID)
	assert.Equal(t, 0, first.Options[0].Order)
	assert.Equal(t, 1, first.Options[1].Order)

	second := saved.Questions[1]
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 1, second.MinRating)
	assert.Equal(t, 5, second.MaxRating)
}

// TestCreateSurvey_RequiresTitle rejeita criação sem título.
func TestCreateSurvey_RequiresTitle(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateSurvey(context.Background(), domain.User{Role: domain.RoleAdmin}, domain.SurveyCreate{})

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

// TestCreateSurvey_ChoiceNeedsOptions rejeita perguntas de escolha sem opções.
func TestCreateSurvey_ChoiceNeedsOptions(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateSurvey(context.Background(), domain.User{Role: domain.RoleAdmin}, domain.SurveyCreate{
		Title: "Teste",
		Questions: []domain.QuestionInput{
			{Type: domain.QuestionCheckbox, Text: "Escolha"},
		},
	})

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

// TestCreateSurvey_InvalidRatingRange rejeita min_rating > max_rating.
func TestCreateSurvey_InvalidRatingRange(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateSurvey(context.Background(), domain.User{Role: domain.RoleAdmin}, domain.SurveyCreate{
		Title: "Teste",
		Questions: []domain.QuestionInput{
			{Type: domain.QuestionRating, Text: "Avalie", MinRating: 5, MaxRating: 2},
		},
	})

	assert.Error(t, err)
}

// TestUpdateSurvey_ForbiddenForOtherUsers impede alterações por quem não é dono nem admin.
func TestUpdateSurvey_ForbiddenForOtherUsers(t *testing.T) {
	f := newFixture()
	surveyID := uuid.New().String()

	f.surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, OwnerID: uuid.New().String()}, nil)

	other := domain.User{ID: uuid.New().String(), Role: domain.RoleUser}
	title := "Novo título"

	_, err := f.svc.UpdateSurvey(context.Background(), other, surveyID, domain.SurveyUpdate{Title: &title})

	assert.Error(t, err)
	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusForbidden, status)
}

// TestUpdateSurvey_FeaturedIgnoredForNonAdmins verifica que o dono sem papel
// administrativo não consegue alterar o destaque.
func TestUpdateSurvey_FeaturedIgnoredForNonAdmins(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New().String()
	surveyID := uuid.New().String()
	survey := domain.Survey{ID: surveyID, OwnerID: ownerID}

	f.surveys.On("FindByID", mock.Anything, surveyID).Return(survey, nil)
	f.surveys.On("UpdateFields", mock.Anything, surveyID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		_, hasFeatured := fields["is_featured"]
		return !hasFeatured
	})).Return(nil)
	f.invalidator.On("InvalidatePublicResults", mock.Anything, surveyID).Return()
	f.users.On("FindByID", mock.Anything, ownerID).Return(domain.User{ID: ownerID, Name: "Ana"}, nil)

	owner := domain.User{ID: ownerID, Role: domain.RoleUser}
	featured := true
	published := true

	_, err := f.svc.UpdateSurvey(context.Background(), owner, surveyID, domain.SurveyUpdate{
		IsFeatured:  &featured,
		IsPublished: &published,
	})

	assert.NoError(t, err)
	f.surveys.AssertExpectations(t)
}

// TestUpdateSurvey_AdminSetsFeatured verifica que admins alteram o destaque.
func TestUpdateSurvey_AdminSetsFeatured(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New().String()
	surveyID := uuid.New().String()
	survey := domain.Survey{ID: surveyID, OwnerID: ownerID}

	f.surveys.On("FindByID", mock.Anything, surveyID).Return(survey, nil)
	f.surveys.On("UpdateFields", mock.Anything, surveyID, mock.MatchedBy(func(fields map[string]interface{}) bool {
		v, ok := fields["is_featured"].(bool)
		return ok && v
	})).Return(nil)
	f.invalidator.On("InvalidatePublicResults", mock.Anything, surveyID).Return()
	f.users.On("FindByID", mock.Anything, ownerID).Return(domain.User{ID: ownerID, Name: "Ana"}, nil)

	admin := domain.User{ID: uuid.New().String(), Role: domain.RoleAdmin}
	featured := true

	_, err := f.svc.UpdateSurvey(context.Background(), admin, surveyID, domain.SurveyUpdate{IsFeatured: &featured})

	assert.NoError(t, err)
	f.surveys.AssertExpectations(t)
}

// TestDeleteSurvey_CascadesResponses verifica a remoção em cascata e a
// invalidação do cache de resultados.
func TestDeleteSurvey_CascadesResponses(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New().String()
	surveyID := uuid.New().String()

	f.surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, OwnerID: ownerID}, nil)
	f.surveys.On("Delete", mock.Anything, surveyID).Return(nil)
	f.responses.On("DeleteBySurvey", mock.Anything, surveyID).Return(nil)
	f.invalidator.On("InvalidatePublicResults", mock.Anything, surveyID).Return()

	owner := domain.User{ID: ownerID, Role: domain.RoleUser}

	err := f.svc.DeleteSurvey(context.Background(), owner, surveyID)

	assert.NoError(t, err)
	f.responses.AssertCalled(t, "DeleteBySurvey", mock.Anything, surveyID)
	f.invalidator.AssertCalled(t, "InvalidatePublicResults", mock.Anything, surveyID)
}

// TestListSurveys_AnnotatesUserHasResponded verifica a anotação por visitante autenticado.
func TestListSurveys_AnnotatesUserHasResponded(t *testing.T) {
	f := newFixture()
	ownerID := uuid.New().String()
	answered := domain.Survey{ID: uuid.New().String(), OwnerID: ownerID, Title: "A"}
	unanswered := domain.Survey{ID: uuid.New().String(), OwnerID: ownerID, Title: "B"}

	f.surveys.On("FindAll", mock.Anything, domain.SurveyFilter{}).
		Return([]domain.Survey{answered, unanswered}, nil)
	f.users.On("FindByID", mock.Anything, ownerID).Return(domain.User{ID: ownerID, Name: "Ana"}, nil)

	viewer := domain.User{ID: uuid.New().String()}
	f.responses.On("ExistsBySurveyAndUser", mock.Anything, answered.ID, viewer.ID).Return(true, nil)
	f.responses.On("ExistsBySurveyAndUser", mock.Anything, unanswered.ID, viewer.ID).Return(false, nil)

	views, err := f.svc.ListSurveys(context.Background(), domain.SurveyFilter{}, &viewer)

	assert.NoError(t, err)
	assert.Len(t, views, 2)
	assert.True(t, views[0].UserHasResponded)
	assert.False(t, views[1].UserHasResponded)
	assert.Equal(t, "Ana", views[0].OwnerName)

	// O nome do dono é resolvido uma única vez para as duas sondagens
	f.users.AssertNumberOfCalls(t, "FindByID", 1)
}

// TestToggleFeatured_FlipsFlag inverte o destaque e devolve o novo valor.
func TestToggleFeatured_FlipsFlag(t *testing.T) {
	f := newFixture()
	surveyID := uuid.New().String()

	f.surveys.On("FindByID", mock.Anything, surveyID).
		Return(domain.Survey{ID: surveyID, IsFeatured: false}, nil)
	f.surveys.On("UpdateFields", mock.Anything, surveyID,
		map[string]interface{}{"is_featured": true}).Return(nil)

	featured, err := f.svc.ToggleFeatured(context.Background(), surveyID)

	assert.NoError(t, err)
	assert.True(t, featured)
	f.surveys.AssertExpectations(t)
}
