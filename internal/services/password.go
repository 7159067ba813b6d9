package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"aniwatch/internal/logger"
	"aniwatch/internal/repository"
	"aniwatch/internal/utils"

	"go.uber.org/zap"
)

var ErrResetTokenInvalid = errors.New("неверный или просроченный токен")

// ResetLinkSink — куда отдавать ссылку на сброс. Почтовой доставки у нас
// нет, поэтому по умолчанию ссылка уходит в лог (см. LogResetLinkSink).
type ResetLinkSink interface {
	DeliverResetLink(ctx context.Context, email, resetLink string) error
}

type LogResetLinkSink struct{}

func (LogResetLinkSink) DeliverResetLink(_ context.Context, email, resetLink string) error {
	logger.Log.Info("Ссылка на сброс пароля",
		zap.String("email", email),
		zap.String("reset_link", resetLink),
	)
	return nil
}

type PasswordService struct {
	repo     repository.PasswordResetRepo
	sink     ResetLinkSink
	siteURL  string
	tokenTTL time.Duration
}

func NewPasswordService(repo repository.PasswordResetRepo, sink ResetLinkSink, siteURL string, tokenTTL time.Duration) *PasswordService {
	if sink == nil {
		sink = LogResetLinkSink{}
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &PasswordService{
		repo:     repo,
		sink:     sink,
		siteURL:  siteURL,
		tokenTTL: tokenTTL,
	}
}

// RequestReset генерирует одноразовый токен и отдаёт ссылку коллаборатору.
// Возвращает nil всегда (не раскрываем, существует ли такой e-mail).
// Ранее выданные токены при этом не гасятся: каждый живёт и гаснет сам.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Запрос на сброс пароля", zap.String("email_masked", maskForLog(email)))

	if _, err := s.repo.FindUserIDByEmail(ctx, email); err != nil {
		// Не раскрываем наличие почты пользователю, но логируем для нас:
		logger.Log.Warn("Не удалось найти пользователя по email при запросе сброса",
			zap.String("email_masked", maskForLog(email)),
			zap.Error(err),
		)
		return nil
	}

	// Сгенерировать криптостойкий токен
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.Log.Error("Ошибка генерации токена для сброса", zap.Error(err))
		// Также не раскрываем детали клиенту
		return nil
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	expires := time.Now().Add(s.tokenTTL)
	if err := s.repo.Create(ctx, email, hashToken(token), expires); err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса пароля", zap.Error(err))
		return nil
	}

	resetLink := fmt.Sprintf("%s/api/reset-password/%s", s.siteURL, token)
	if err := s.sink.DeliverResetLink(ctx, email, resetLink); err != nil {
		logger.Log.Error("Ошибка доставки ссылки для сброса пароля",
			zap.String("email_masked", maskForLog(email)),
			zap.Error(err),
		)
		// Не фейлим намеренно — ответ клиенту всегда одинаковый
	}

	logger.Log.Info("Токен сброса пароля выдан",
		zap.String("email_masked", maskForLog(email)),
		zap.Time("expires_at", expires),
	)
	return nil
}

// ValidateToken проверяет токен без его расходования и возвращает email,
// к которому он привязан.
func (s *PasswordService) ValidateToken(ctx context.Context, token string) (string, error) {
	rec, err := s.repo.GetValidByHash(ctx, hashToken(token))
	if err != nil {
		logger.Log.Warn("Неверный или просроченный токен при проверке", zap.Error(err))
		return "", ErrResetTokenInvalid
	}
	return rec.Email, nil
}

// ConsumeToken перепроверяет токен в момент расходования и в одной
// транзакции гасит его и ставит новый пароль.
func (s *PasswordService) ConsumeToken(ctx context.Context, token, newPassword string) error {
	logger.Log.Info("Попытка сброса пароля по токену")

	if len(newPassword) < 8 {
		logger.Log.Warn("Слишком короткий новый пароль")
		return ErrPasswordTooShort
	}

	pwHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return err
	}

	if err := s.repo.ConsumeAndUpdatePassword(ctx, hashToken(token), pwHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Log.Warn("Неверный или просроченный токен при сбросе пароля")
			return ErrResetTokenInvalid
		}
		logger.Log.Error("Ошибка сброса пароля", zap.Error(err))
		return err
	}

	logger.Log.Info("Пароль успешно сброшен")
	return nil
}

// В базе храним только хеш токена
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func maskForLog(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	if at <= 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "****" + email[at:]
}
