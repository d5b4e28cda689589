package recoveryservice

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"impar/internal/domain"
	apperror "impar/internal/errors"
	"impar/internal/pkg/logger"
	"impar/internal/service/userservice"
)

// RecoveryService implementa o fluxo de recuperação de senha por código:
// pending → used no reset bem-sucedido, ou expiração natural verificada no consumo.
type RecoveryService struct {
	RecoveryRepo domain.RecoveryRepository
	UserRepo     domain.UserRepository
	codeTTL      time.Duration
	logger       logger.Logger
}

// NewService cria uma nova instância do RecoveryService.
func NewService(recoveryRepo domain.RecoveryRepository, userRepo domain.UserRepository,
	codeTTL time.Duration, log logger.Logger) *RecoveryService {
	return &RecoveryService{
		RecoveryRepo: recoveryRepo,
		UserRepo:     userRepo,
		codeTTL:      codeTTL,
		logger:       log,
	}
}

// generateCode produz um código numérico de 6 dígitos com aleatoriedade criptográfica.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestRecovery cria um pedido de recuperação para o email informado.
// Devolve sempre sucesso, exista ou não a conta, para impedir enumeração
// de emails registados. O envio do código é uma preocupação externa; aqui
// ele é apenas gerado, persistido e registado no log.
func (s *RecoveryService) RequestRecovery(ctx context.Context, email string) error {
	if email == "" {
		return apperror.NewValidationError("Email é obrigatório.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// Conta inexistente: responde sucesso na mesma
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar código de recuperação.", err)
	}

	now := time.Now().UTC()
	request := domain.RecoveryRequest{
		Email:     email,
		UserName:  user.Name,
		Code:      code,
		Status:    domain.RecoveryPending,
		ExpiresAt: now.Add(s.codeTTL),
	}

	if _, err := s.RecoveryRepo.Save(ctx, request); err != nil {
		return err
	}

	// TODO: integrar com o serviço de email quando ele existir; por ora o
	// código só aparece no log do servidor.
	s.logger.Info("Código de recuperação gerado.", map[string]interface{}{
		"email": email, "code": code, "expires_at": request.ExpiresAt,
	})
	return nil
}

// ResetWithCode consome um código pendente e não expirado, trocando a senha
// da conta associada e marcando o pedido como usado (uso único).
func (s *RecoveryService) ResetWithCode(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" {
		return apperror.NewValidationError("Email e código de recuperação são obrigatórios.")
	}

	if len(newPassword) < userservice.MinPasswordLength {
		return apperror.NewValidationError(
			fmt.Sprintf("A nova senha deve ter pelo menos %d caracteres.", userservice.MinPasswordLength))
	}

	now := time.Now().UTC()
	request, err := s.RecoveryRepo.FindPending(ctx, email, code, now)
	if err != nil {
		// Código errado, já usado ou expirado: uma única mensagem, sem detalhar
		return apperror.NewValidationError("Código de recuperação inválido ou expirado.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return apperror.NewValidationError("Código de recuperação inválido ou expirado.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	if err := s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash": string(hashedPassword),
	}); err != nil {
		return err
	}

	if err := s.RecoveryRepo.MarkUsed(ctx, request.ID, now); err != nil {
		return err
	}

	s.logger.Info("Senha redefinida via código de recuperação.", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

// ListRequests lista todos os pedidos de recuperação (visão administrativa).
func (s *RecoveryService) ListRequests(ctx context.Context) ([]domain.RecoveryRequest, error) {
	return s.RecoveryRepo.FindAll(ctx)
}

// DeleteRequest remove um pedido de recuperação. Por convenção os admins
// apagam apenas pedidos já consumidos ou expirados, mas isso não é imposto aqui.
func (s *RecoveryService) DeleteRequest(ctx context.Context, id string) error {
	return s.RecoveryRepo.Delete(ctx, id)
}
