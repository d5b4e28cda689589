package teamappservice

import (
	"context"
	"strings"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
)

// TeamAppService implementa as candidaturas à equipa.
type TeamAppService struct {
	Repo   domain.TeamApplicationRepository
	logger logger.Logger
}

// NewService cria uma nova instância do TeamAppService.
func NewService(repo domain.TeamApplicationRepository, log logger.Logger) *TeamAppService {
	return &TeamAppService{Repo: repo, logger: log}
}

// Apply regista uma candidatura em nome do utilizador autenticado.
// Cada utilizador só pode ter uma candidatura pendente de cada vez.
func (s *TeamAppService) Apply(ctx context.Context, user domain.User, payload domain.TeamApplicationCreate) (domain.TeamApplication, error) {
	if strings.TrimSpace(payload.Message) == "" {
		return domain.TeamApplication{}, apperror.NewValidationError("A mensagem da candidatura é obrigatória.")
	}

	pending, err := s.Repo.PendingExistsForUser(ctx, user.ID)
	if err != nil {
		return domain.TeamApplication{}, err
	}
	if pending {
		return domain.TeamApplication{}, apperror.NewValidationError("Já tem uma candidatura pendente. Aguarde a análise do administrador.")
	}

	application := domain.TeamApplication{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Message:   payload.Message,
		Status:    domain.ApplicationPending,
	}

	saved, err := s.Repo.Save(ctx, application)
	if err != nil {
		return domain.TeamApplication{}, err
	}

	s.logger.Info("Candidatura à equipa registada.", map[string]interface{}{
		"application_id": saved.ID,
		"user_id":        user.ID,
	})

	return saved, nil
}

// List devolve todas as candidaturas, mais recentes primeiro.
func (s *TeamAppService) List(ctx context.Context) ([]domain.TeamApplication, error) {
	return s.Repo.FindAll(ctx)
}

// UpdateStatus altera o estado de análise de uma candidatura.
func (s *TeamAppService) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) (domain.TeamApplication, error) {
	if !domain.ValidApplicationStatus(status) {
		return domain.TeamApplication{}, apperror.NewValidationError("Estado de candidatura inválido.")
	}

	if err := s.Repo.UpdateStatus(ctx, id, status); err != nil {
		return domain.TeamApplication{}, err
	}

	return s.Repo.FindByID(ctx, id)
}

// Delete remove uma candidatura.
func (s *TeamAppService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
