package responseservice

import (
	"context"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/service/analyticsservice"
	"impar/internal/service/surveyservice"
)

// ResponseService implementa a submissão (possivelmente anónima) de respostas
// e as listagens de respostas por sondagem e por utilizador.
type ResponseService struct {
	SurveyRepo   domain.SurveyRepository
	ResponseRepo domain.ResponseRepository
	Results      surveyservice.ResultsInvalidator
	logger       logger.Logger
}

// NewService cria uma nova instância do ResponseService.
func NewService(surveyRepo domain.SurveyRepository, responseRepo domain.ResponseRepository,
	results surveyservice.ResultsInvalidator, log logger.Logger) *ResponseService {
	return &ResponseService{
		SurveyRepo:   surveyRepo,
		ResponseRepo: responseRepo,
		Results:      results,
		logger:       log,
	}
}

// MyResponseSurvey é o resumo da sondagem anexado a cada item de MyResponses.
type MyResponseSurvey struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Questions   []domain.Question `json:"questions"`
}

// MyResponse é um item da visão "as minhas respostas": a submissão do
// utilizador mais os agregados globais da sondagem no momento da consulta.
type MyResponse struct {
	Response       domain.SurveyAnswer                                `json:"response"`
	Survey         MyResponseSurvey                                   `json:"survey"`
	GlobalResults  map[string]analyticsservice.GlobalQuestionResult   `json:"global_results"`
	TotalResponses int                                                `json:"total_responses"`
}

// SubmitResponse armazena uma submissão de respostas a uma sondagem publicada.
// viewer nulo marca uma submissão anónima. A inserção da resposta e o
// incremento do contador são duas escritas separadas, sem transação.
func (s *ResponseService) SubmitResponse(ctx context.Context, surveyID string,
	payload domain.SurveyAnswerCreate, viewer *domain.User) (domain.SurveyAnswer, error) {

	survey, err := s.SurveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return domain.SurveyAnswer{}, err
	}

	if !survey.IsPublished {
		return domain.SurveyAnswer{}, apperror.NewValidationError("A sondagem ainda não está publicada.")
	}

	answer := domain.SurveyAnswer{
		SurveyID: surveyID,
		Answers:  payload.Answers,
	}
	if viewer != nil {
		answer.UserID = viewer.ID
	}

	saved, err := s.ResponseRepo.Save(ctx, answer)
	if err != nil {
		return domain.SurveyAnswer{}, err
	}

	if err := s.SurveyRepo.IncrementResponseCount(ctx, surveyID); err != nil {
		// A resposta já está armazenada; um contador desatualizado não
		// invalida a submissão
		s.logger.Warn("Contador de respostas não foi incrementado.", map[string]interface{}{
			"survey_id": surveyID,
		})
	}

	s.Results.InvalidatePublicResults(ctx, surveyID)

	return saved, nil
}

// SurveyResponses lista as submissões cruas de uma sondagem, mais recentes
// primeiro. Restrito ao dono ou a um papel administrativo.
func (s *ResponseService) SurveyResponses(ctx context.Context, requester domain.User, surveyID string) ([]domain.SurveyAnswer, error) {
	survey, err := s.SurveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if !requester.CanManage(survey.OwnerID) {
		return nil, apperror.NewForbiddenError("Sem permissão para ver as respostas desta sondagem.")
	}

	return s.ResponseRepo.FindBySurvey(ctx, surveyID)
}

// MyResponses lista as submissões do utilizador, cada uma enriquecida com os
// agregados globais da sondagem (percentagens/médias sobre TODAS as respostas).
// Sondagens entretanto apagadas são omitidas em silêncio.
func (s *ResponseService) MyResponses(ctx context.Context, user domain.User) ([]MyResponse, error) {
	responses, err := s.ResponseRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result := []MyResponse{}
	for _, response := range responses {
		survey, err := s.SurveyRepo.FindByID(ctx, response.SurveyID)
		if err != nil {
			continue
		}

		allResponses, err := s.ResponseRepo.FindBySurvey(ctx, response.SurveyID)
		if err != nil {
			return nil, err
		}

		result = append(result, MyResponse{
			Response: response,
			Survey: MyResponseSurvey{
				ID:          survey.ID,
				Title:       survey.Title,
				Description: survey.Description,
				Questions:   survey.Questions,
			},
			GlobalResults:  analyticsservice.BuildGlobalResults(survey.Questions, allResponses),
			TotalResponses: len(allResponses),
		})
	}

	return result, nil
}
