package analyticsservice

import (
	"context"
	"encoding/json"
	"time"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/cache"
	"impar/internal/pkg/logger"
)

// Service calcula os resultados agregados de sondagens. A visão pública é
// cacheada: a recomputação é O(respostas × perguntas) por chamada e os mesmos
// agregados servem todos os visitantes até uma nova submissão invalidá-los.
type Service struct {
	surveyRepo   domain.SurveyRepository
	responseRepo domain.ResponseRepository
	cache        cache.Client
	cacheTTL     time.Duration
	logger       logger.Logger
}

// NewService cria uma nova instância do serviço de analytics.
func NewService(surveyRepo domain.SurveyRepository, responseRepo domain.ResponseRepository,
	cacheClient cache.Client, cacheTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		cache:        cacheClient,
		cacheTTL:     cacheTTL,
		logger:       log,
	}
}

func publicResultsKey(surveyID string) string {
	return "public-results:" + surveyID
}

// SurveyAnalytics devolve a visão admin/dono (contagens cruas, texto incluído).
// Restrito ao dono da sondagem ou a um papel administrativo.
func (s *Service) SurveyAnalytics(ctx context.Context, surveyID string, requester domain.User) (SurveyAnalytics, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return SurveyAnalytics{}, err
	}

	if !requester.CanManage(survey.OwnerID) {
		return SurveyAnalytics{}, apperror.NewForbiddenError("Sem permissão para ver os resultados desta sondagem.")
	}

	responses, err := s.responseRepo.FindBySurvey(ctx, surveyID)
	if err != nil {
		return SurveyAnalytics{}, err
	}

	analytics := BuildAnalytics(survey.Questions, responses)

	// A listagem de respostas é limitada; a contagem no DB devolve o total
	// real mesmo além dessa janela.
	if total, err := s.responseRepo.CountBySurvey(ctx, surveyID); err == nil {
		analytics.TotalResponses = total
	}

	return analytics, nil
}

// PublicResults devolve a visão pública (percentagens/médias, texto retido).
// Exige sondagem publicada; resultados são servidos do cache quando possível.
func (s *Service) PublicResults(ctx context.Context, surveyID string) (SurveyAnalytics, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return SurveyAnalytics{}, err
	}

	if !survey.IsPublished {
		return SurveyAnalytics{}, apperror.NewValidationError("A sondagem ainda não está publicada.")
	}

	// 1. Tenta o cache
	if cached, err := s.cache.Get(ctx, publicResultsKey(surveyID)); err == nil {
		var analytics SurveyAnalytics
		if err := json.Unmarshal([]byte(cached), &analytics); err == nil {
			return analytics, nil
		}
		// Entrada corrompida: descarta e recalcula
		_ = s.cache.Delete(ctx, publicResultsKey(surveyID))
	}

	// 2. Cache miss: recalcula sobre todas as respostas
	responses, err := s.responseRepo.FindBySurvey(ctx, surveyID)
	if err != nil {
		return SurveyAnalytics{}, err
	}

	analytics := BuildPublicResults(survey.Questions, responses)

	if payload, err := json.Marshal(analytics); err == nil {
		if err := s.cache.Set(ctx, publicResultsKey(surveyID), payload, s.cacheTTL); err != nil {
			s.logger.Warn("Falha ao cachear resultados públicos.", map[string]interface{}{
				"survey_id": surveyID,
			})
		}
	}

	return analytics, nil
}

// InvalidatePublicResults descarta o agregado cacheado de uma sondagem.
// Chamado após submissão de resposta e após update/delete da sondagem.
func (s *Service) InvalidatePublicResults(ctx context.Context, surveyID string) {
	if err := s.cache.Delete(ctx, publicResultsKey(surveyID)); err != nil {
		s.logger.Warn("Falha ao invalidar resultados públicos no cache.", map[string]interface{}{
			"survey_id": surveyID,
		})
	}
}
