package repository

import (
	"context"
	"errors"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	logger.Log.Debug("Сохранение сессии (repo)", zap.Int("user_id", s.UserID))
	query := `INSERT INTO sessions (sid, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, s.SID, s.UserID, s.ExpiresAt)
	if err != nil {
		logger.Log.Error("Ошибка сохранения сессии (repo)", zap.Error(err))
	}
	return err
}

// GetValid возвращает сессию только если она ещё не истекла.
func (r *SessionRepository) GetValid(ctx context.Context, sid string) (*models.Session, error) {
	query := `SELECT sid, user_id, created_at, expires_at
	FROM sessions
	WHERE sid = $1 AND expires_at > now()`

	var s models.Session
	err := r.db.QueryRow(ctx, query, sid).Scan(&s.SID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.Error("Ошибка получения сессии (repo)", zap.Error(err))
		return nil, err
	}
	return &s, nil
}

// Delete идемпотентен: удаление несуществующей сессии не ошибка.
func (r *SessionRepository) Delete(ctx context.Context, sid string) error {
	logger.Log.Debug("Удаление сессии (repo)")
	query := `DELETE FROM sessions WHERE sid = $1`
	_, err := r.db.Exec(ctx, query, sid)
	if err != nil {
		logger.Log.Error("Ошибка удаления сессии (repo)", zap.Error(err))
	}
	return err
}

// DeleteExpired подчищает истёкшие строки; вызывается периодически из app.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now() - interval '1 day'`)
	if err != nil {
		logger.Log.Error("Ошибка чистки сессий (repo)", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
