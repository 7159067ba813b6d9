package services

import (
	"context"
	"errors"
	"strings"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"
	"aniwatch/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrUsernameRequired   = errors.New("укажите имя пользователя")
	ErrPasswordTooShort   = errors.New("пароль должен быть не короче 8 символов")
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

// RegisterUser валидирует вход, хеширует пароль и создаёт пользователя.
// Дубликаты username/email ловятся на уровне БД и приходят от репозитория
// уже доменными ошибками.
func (s *AuthService) RegisterUser(ctx context.Context, input *models.User, plainPassword string) error {
	logger.Log.Info("Регистрация пользователя (service)", zap.String("username", input.Username))

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		return ErrUsernameRequired
	}
	if len(plainPassword) < 8 {
		return ErrPasswordTooShort
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			input.Email = nil
		} else {
			input.Email = &email
		}
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return err
	}
	input.PasswordHash = hashed

	if err := s.repo.CreateUser(ctx, input); err != nil {
		logger.Log.Warn("Ошибка создания пользователя", zap.Error(err))
		return err
	}
	logger.Log.Info("Пользователь зарегистрирован (service)", zap.String("username", input.Username), zap.Int("user_id", input.ID))
	return nil
}

// LoginUser проверяет пару логин/пароль. Ответ один и тот же и для
// неизвестного пользователя, и для неверного пароля.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (*models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("username", username))
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("username", username), zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	logger.Log.Info("Вход выполнен (service)", zap.String("username", username), zap.Int("user_id", user.ID))
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Warn("Пользователь не найден по ID (service)", zap.Int("user_id", id), zap.Error(err))
	}
	return user, err
}
