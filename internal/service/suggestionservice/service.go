package suggestionservice

import (
	"context"
	"strings"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// SuggestionService implementa a caixa de sugestões: qualquer utilizador
// autenticado submete, a administração revê.
type SuggestionService struct {
	Repo   domain.SuggestionRepository
	logger logger.Logger
}

// NewService cria uma nova instância do SuggestionService.
func NewService(repo domain.SuggestionRepository, log logger.Logger) *SuggestionService {
	return &SuggestionService{Repo: repo, logger: log}
}

// Submit regista uma nova sugestão em nome do utilizador autenticado.
func (s *SuggestionService) Submit(ctx context.Context, user domain.User, payload domain.SuggestionCreate) (domain.Suggestion, error) {
	if strings.TrimSpace(payload.Content) == "" {
		return domain.Suggestion{}, apperror.NewValidationError("O conteúdo da sugestão é obrigatório.")
	}

	suggestion := domain.Suggestion{
		UserID:   user.ID,
		UserName: user.Name,
		Content:  payload.Content,
		SurveyID: payload.SurveyID,
		Status:   domain.SuggestionPending,
	}

	saved, err := s.Repo.Save(ctx, suggestion)
	if err != nil {
		return domain.Suggestion{}, err
	}

	s.logger.Info("Sugestão registada.", map[string]interface{}{
		"suggestion_id": saved.ID,
		"user_id":       user.ID,
	})

	return saved, nil
}

// List devolve todas as sugestões, mais recentes primeiro.
func (s *SuggestionService) List(ctx context.Context) ([]domain.Suggestion, error) {
	return s.Repo.FindAll(ctx)
}

// UpdateStatus altera o estado de revisão de uma sugestão.
func (s *SuggestionService) UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus) (domain.Suggestion, error) {
	if !domain.ValidSuggestionStatus(status) {
		return domain.Suggestion{}, apperror.NewValidationError("Estado de sugestão inválido.")
	}

	if err := s.Repo.UpdateStatus(ctx, id, status); err != nil {
		return domain.Suggestion{}, err
	}

	return s.Repo.FindByID(ctx, id)
}

// Delete remove uma sugestão.
func (s *SuggestionService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
