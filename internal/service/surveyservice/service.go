package surveyservice

import (
	"context"

	"github.com/google/uuid"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// ResultsInvalidator descarta agregados cacheados de uma sondagem quando o
// conteúdo dela muda (implementado pelo serviço de analytics).
type ResultsInvalidator interface {
	InvalidatePublicResults(ctx context.Context, surveyID string)
}

// SurveyService implementa o ciclo de vida das sondagens: criação por
// admins/owners, atualização parcial, destaque e remoção com cascata.
type SurveyService struct {
	SurveyRepo   domain.SurveyRepository
	UserRepo     domain.UserRepository
	ResponseRepo domain.ResponseRepository
	Results      ResultsInvalidator
	logger       logger.Logger
}

// NewService cria uma nova instância do SurveyService.
func NewService(surveyRepo domain.SurveyRepository, userRepo domain.UserRepository,
	responseRepo domain.ResponseRepository, results ResultsInvalidator, log logger.Logger) *SurveyService {
	return &SurveyService{
		SurveyRepo:   surveyRepo,
		UserRepo:     userRepo,
		ResponseRepo: responseRepo,
		Results:      results,
		logger:       log,
	}
}

// buildQuestions materializa o payload de perguntas, atribuindo ids e ordem
// NOVOS a cada pergunta e opção. Ids antigos deixam de valer a cada escrita:
// respostas existentes só fazem sentido contra a versão das perguntas sob a
// qual foram submetidas.
func buildQuestions(inputs []domain.QuestionInput) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(inputs))

	for i, in := range inputs {
		if !domain.ValidQuestionType(in.Type) {
			return nil, apperror.NewValidationError("Tipo de pergunta inválido: " + string(in.Type))
		}
		if in.Text == "" {
			return nil, apperror.NewValidationError("O texto da pergunta não pode ser vazio.")
		}

		required := true
		if in.Required != nil {
			required = *in.Required
		}

		question := domain.Question{
			ID:          uuid.NewString(),
			Type:        in.Type,
			Text:        in.Text,
			Required:    required,
			Highlighted: in.Highlighted,
			Order:       i,
		}

		switch in.Type {
		case domain.QuestionMultipleChoice, domain.QuestionCheckbox:
			if len(in.Options) == 0 {
				return nil, apperror.NewValidationError("Perguntas de escolha exigem pelo menos uma opção.")
			}
			options := make([]domain.QuestionOption, 0, len(in.Options))
			for j, opt := range in.Options {
				options = append(options, domain.QuestionOption{
					ID:    uuid.NewString(),
					Text:  opt.Text,
					Order: j,
				})
			}
			question.Options = options

		case domain.QuestionRating:
			question.MinRating = in.MinRating
			question.MaxRating = in.MaxRating
			if question.MinRating <= 0 {
				question.MinRating = 1
			}
			if question.MaxRating <= 0 {
				question.MaxRating = 5
			}
			if question.MinRating > question.MaxRating {
				return nil, apperror.NewValidationError("min_rating não pode ser maior que max_rating.")
			}
		}

		questions = append(questions, question)
	}

	return questions, nil
}

// ownerName resolve o nome do dono; vazio se o registro já não existir
// (não há foreign keys entre as coleções).
func (s *SurveyService) ownerName(ctx context.Context, ownerID string) string {
	owner, err := s.UserRepo.FindByID(ctx, ownerID)
	if err != nil {
		return ""
	}
	return owner.Name
}

// CreateSurvey cria uma nova sondagem em estado rascunho (is_published=false).
// O gate de papel (admin/owner) é aplicado na rota.
func (s *SurveyService) CreateSurvey(ctx context.Context, owner domain.User, payload domain.SurveyCreate) (domain.SurveyView, error) {
	if payload.Title == "" {
		return domain.SurveyView{}, apperror.NewValidationError("O título da sondagem é obrigatório.")
	}

	questions, err := buildQuestions(payload.Questions)
	if err != nil {
		return domain.SurveyView{}, err
	}

	survey := domain.Survey{
		OwnerID:     owner.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Questions:   questions,
		IsPublished: false,
		IsFeatured:  payload.IsFeatured,
		EndDate:     payload.EndDate,
	}

	created, err := s.SurveyRepo.Save(ctx, survey)
	if err != nil {
		return domain.SurveyView{}, err
	}

	s.logger.Info("Sondagem criada.", map[string]interface{}{
		"survey_id": created.ID, "owner_id": owner.ID, "questions": len(questions),
	})

	return domain.SurveyView{Survey: created, OwnerName: owner.Name}, nil
}

// ListSurveys lista sondagens pelo filtro, anotando o nome do dono e, quando
// há um visitante autenticado, se ele já respondeu a cada sondagem.
func (s *SurveyService) ListSurveys(ctx context.Context, filter domain.SurveyFilter, viewer *domain.User) ([]domain.SurveyView, error) {
	surveys, err := s.SurveyRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Cache local de nomes para não repetir lookups do mesmo dono
	names := map[string]string{}

	views := make([]domain.SurveyView, 0, len(surveys))
	for _, survey := range surveys {
		name, ok := names[survey.OwnerID]
		if !ok {
			name = s.ownerName(ctx, survey.OwnerID)
			names[survey.OwnerID] = name
		}

		view := domain.SurveyView{Survey: survey, OwnerName: name}
		if viewer != nil {
			responded, err := s.ResponseRepo.ExistsBySurveyAndUser(ctx, survey.ID, viewer.ID)
			if err != nil {
				return nil, err
			}
			view.UserHasResponded = responded
		}

		views = append(views, view)
	}

	return views, nil
}

// MySurveys lista as sondagens do próprio utilizador.
func (s *SurveyService) MySurveys(ctx context.Context, owner domain.User) ([]domain.SurveyView, error) {
	surveys, err := s.SurveyRepo.FindByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.SurveyView, 0, len(surveys))
	for _, survey := range surveys {
		views = append(views, domain.SurveyView{Survey: survey, OwnerName: owner.Name})
	}
	return views, nil
}

// GetSurvey busca uma sondagem pelo id, com o nome do dono anotado.
func (s *SurveyService) GetSurvey(ctx context.Context, id string) (domain.SurveyView, error) {
	survey, err := s.SurveyRepo.FindByID(ctx, id)
	if err != nil {
		return domain.SurveyView{}, err
	}

	return domain.SurveyView{Survey: survey, OwnerName: s.ownerName(ctx, survey.OwnerID)}, nil
}

// UpdateSurvey aplica uma atualização parcial. Permitido ao dono ou a um papel
// administrativo; o destaque (is_featured) só é alterável por admins/owners.
func (s *SurveyService) UpdateSurvey(ctx context.Context, requester domain.User, id string, update domain.SurveyUpdate) (domain.SurveyView, error) {
	survey, err := s.SurveyRepo.FindByID(ctx, id)
	if err != nil {
		return domain.SurveyView{}, err
	}

	if !requester.CanManage(survey.OwnerID) {
		return domain.SurveyView{}, apperror.NewForbiddenError("Sem permissão para alterar esta sondagem.")
	}

	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.IsPublished != nil {
		fields["is_published"] = *update.IsPublished
	}
	if update.IsFeatured != nil && requester.Role.IsAdmin() {
		fields["is_featured"] = *update.IsFeatured
	}
	if update.Questions != nil {
		questions, err := buildQuestions(*update.Questions)
		if err != nil {
			return domain.SurveyView{}, err
		}
		fields["questions"] = questions
	}

	if err := s.SurveyRepo.UpdateFields(ctx, id, fields); err != nil {
		return domain.SurveyView{}, err
	}

	// Agregados cacheados ficam obsoletos após qualquer alteração
	s.Results.InvalidatePublicResults(ctx, id)

	updated, err := s.SurveyRepo.FindByID(ctx, id)
	if err != nil {
		return domain.SurveyView{}, err
	}

	return domain.SurveyView{Survey: updated, OwnerName: s.ownerName(ctx, updated.OwnerID)}, nil
}

// DeleteSurvey remove a sondagem e cascateia a remoção de todas as respostas.
func (s *SurveyService) DeleteSurvey(ctx context.Context, requester domain.User, id string) error {
	survey, err := s.SurveyRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !requester.CanManage(survey.OwnerID) {
		return apperror.NewForbiddenError("Sem permissão para apagar esta sondagem.")
	}

	if err := s.SurveyRepo.Delete(ctx, id); err != nil {
		return err
	}

	// Cascata: nenhuma resposta órfã pode sobrar
	if err := s.ResponseRepo.DeleteBySurvey(ctx, id); err != nil {
		return err
	}

	s.Results.InvalidatePublicResults(ctx, id)

	s.logger.Info("Sondagem apagada com cascata de respostas.", map[string]interface{}{
		"survey_id": id, "by": requester.ID,
	})
	return nil
}

// ToggleFeatured inverte a flag de destaque e devolve o novo valor.
// Restrito a admins/owners (gate na rota).
func (s *SurveyService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	survey, err := s.SurveyRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	newStatus := !survey.IsFeatured
	if err := s.SurveyRepo.UpdateFields(ctx, id, map[string]interface{}{"is_featured": newStatus}); err != nil {
		return false, err
	}

	return newStatus, nil
}
