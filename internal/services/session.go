package services

import (
	"context"
	"errors"
	"time"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"
	"aniwatch/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionInvalid = errors.New("сессия недействительна")

type SessionRepo interface {
	Create(ctx context.Context, s *models.Session) error
	GetValid(ctx context.Context, sid string) (*models.Session, error)
	Delete(ctx context.Context, sid string) error
}

// SessionService выдаёт и проверяет сессии. Токен в куке — подписанный JWT
// с sid; та же сессия лежит строкой в БД, так что logout гасит её
// по-настоящему, а не только на клиенте. Окно жизни фиксированное:
// expires_at ставится при выдаче и не продлевается активностью.
type SessionService struct {
	repo   SessionRepo
	secret string
	ttl    time.Duration
}

func NewSessionService(repo SessionRepo, secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{repo: repo, secret: secret, ttl: ttl}
}

func (s *SessionService) StartSession(ctx context.Context, user *models.User) (string, *models.Session, error) {
	sess := &models.Session{
		SID:       uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		logger.Log.Error("Ошибка создания сессии (service)", zap.Error(err), zap.Int("user_id", user.ID))
		return "", nil, err
	}

	token, err := utils.GenerateSessionToken(s.secret, sess.SID, user.ID, s.ttl)
	if err != nil {
		logger.Log.Error("Ошибка подписи токена сессии", zap.Error(err))
		_ = s.repo.Delete(ctx, sess.SID)
		return "", nil, err
	}

	logger.Log.Info("Сессия выдана (service)", zap.Int("user_id", user.ID), zap.Time("expires_at", sess.ExpiresAt))
	return token, sess, nil
}

// ResolveSession принимает значение куки и возвращает живую сессию.
// Недействителен токен, просрочен он или строка уже удалена — снаружи
// это одна и та же ошибка.
func (s *SessionService) ResolveSession(ctx context.Context, token string) (*models.Session, error) {
	sid, userID, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	sess, err := s.repo.GetValid(ctx, sid)
	if err != nil {
		logger.Log.Debug("Сессия не найдена или истекла (service)", zap.Error(err))
		return nil, ErrSessionInvalid
	}
	if sess.UserID != userID {
		logger.Log.Warn("user_id токена не совпадает со строкой сессии", zap.Int("user_id", userID))
		return nil, ErrSessionInvalid
	}
	return sess, nil
}

// EndSession идемпотентен: выход по неизвестному или уже погашенному
// токену не ошибка.
func (s *SessionService) EndSession(ctx context.Context, token string) error {
	sid, _, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil
	}
	return s.repo.Delete(ctx, sid)
}

// EndSessionByID гасит сессию по sid, уже извлечённому гардом.
func (s *SessionService) EndSessionByID(ctx context.Context, sid string) error {
	return s.repo.Delete(ctx, sid)
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
