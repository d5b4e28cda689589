package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"impar/config"
	"impar/internal/pkg/cache"
	"impar/internal/pkg/database"
	"impar/internal/pkg/logger"
	"impar/internal/pkg/token"

	// Camadas da aplicação para injeção de dependências
	"impar/internal/api/admin"
	"impar/internal/api/auth"
	"impar/internal/api/router"
	"impar/internal/api/suggestion"
	"impar/internal/api/survey"
	"impar/internal/api/teamapp"
	"impar/internal/repository/recoveryrepo"
	"impar/internal/repository/responserepo"
	"impar/internal/repository/suggestionrepo"
	"impar/internal/repository/surveyrepo"
	"impar/internal/repository/teamapprepo"
	"impar/internal/repository/userrepo"
	"impar/internal/service/analyticsservice"
	"impar/internal/service/recoveryservice"
	"impar/internal/service/responseservice"
	"impar/internal/service/suggestionservice"
	"impar/internal/service/surveyservice"
	"impar/internal/service/teamappservice"
	"impar/internal/service/userservice"
)

func main() {
	stdlog.Println("Inicializando serviço IMPAR Survey API...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	// Se não existir, as variáveis essenciais podem estar no ambiente
	// do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"environment": cfg.Environment})

	// --- Infraestrutura ---

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// --- Injeção de dependências (Repository -> Service -> Handler) ---

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	surveyRepo := surveyrepo.NewSurveyRepository(db, cfg.DBTimeout, log)
	responseRepo := responserepo.NewResponseRepository(db, cfg.DBTimeout, log)
	suggestionRepo := suggestionrepo.NewSuggestionRepository(db, cfg.DBTimeout, log)
	teamAppRepo := teamapprepo.NewTeamApplicationRepository(db, cfg.DBTimeout, log)
	recoveryRepo := recoveryrepo.NewRecoveryRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	recoverySvc := recoveryservice.NewService(recoveryRepo, userRepo, cfg.RecoveryCodeTTL, log)
	analyticsSvc := analyticsservice.NewService(surveyRepo, responseRepo, cacheClient, cfg.CacheTimeout, log)
	surveySvc := surveyservice.NewService(surveyRepo, userRepo, responseRepo, analyticsSvc, log)
	responseSvc := responseservice.NewService(surveyRepo, responseRepo, analyticsSvc, log)
	suggestionSvc := suggestionservice.NewService(suggestionRepo, log)
	teamAppSvc := teamappservice.NewService(teamAppRepo, log)
	log.Debug("Serviços inicializados.", nil)

	authHandler := auth.NewHandler(userSvc, recoverySvc, log)
	surveyHandler := survey.NewHandler(surveySvc, responseSvc, analyticsSvc, log)
	adminHandler := admin.NewHandler(userSvc, recoverySvc, log)
	suggestionHandler := suggestion.NewHandler(suggestionSvc, log)
	teamAppHandler := teamapp.NewHandler(teamAppSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// --- Roteador e servidor ---

	r := router.NewRouter(router.Deps{
		Auth:       authHandler,
		Survey:     surveyHandler,
		Admin:      adminHandler,
		Suggestion: suggestionHandler,
		TeamApp:    teamAppHandler,

		TokenService: tokenSvc,
		Users:        userRepo,
		Cache:        cacheClient,
		Logger:       log,

		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
		CORSOrigins:     cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Execução e graceful shutdown
	go func() {
		log.Info("Servidor IMPAR ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
