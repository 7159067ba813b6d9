package app

import (
	"context"
	"strconv"
	"time"

	"aniwatch/internal/config"
	"aniwatch/internal/db"
	"aniwatch/internal/handlers"
	"aniwatch/internal/logger"
	"aniwatch/internal/repository"
	"aniwatch/internal/routes"
	"aniwatch/internal/services"
	"aniwatch/internal/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	animeRepo := repository.NewAnimeRepository(conn)

	// Сервисы
	sessionTTL, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil {
		sessionTTL = 24 * time.Hour
	}
	resetTTLMin, err := strconv.Atoi(cfg.PasswordResetTTLMin)
	if err != nil || resetTTLMin <= 0 {
		resetTTLMin = 60
	}

	authService := services.NewAuthService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, cfg.SessionSecret, sessionTTL)
	passwordService := services.NewPasswordService(resetRepo, nil, cfg.SiteURL, time.Duration(resetTTLMin)*time.Minute)
	animeService := services.NewAnimeService(animeRepo, images)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, sessionService, cfg.Env == "prod")
	animeHandler := handlers.NewAnimeHandler(animeService, images)
	passwordHandler := handlers.NewPasswordHandler(passwordService)

	// Периодическая чистка истёкших сессий
	StartSessionCleaner(sessionRepo)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, sessionService, authHandler, animeHandler, passwordHandler, images.Dir())

	return router, nil
}

func StartSessionCleaner(repo *repository.SessionRepository) {
	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			n, err := repo.DeleteExpired(context.Background())
			if err == nil && n > 0 {
				logger.Log.Info("Истёкшие сессии удалены", zap.Int64("count", n))
			}
		}
	}()
}
