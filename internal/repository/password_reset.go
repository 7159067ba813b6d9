package repository

import (
	"context"
	"errors"
	"time"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

type PasswordResetRepo interface {
	Create(ctx context.Context, email, tokenHash string, expiresAt time.Time) error
	GetValidByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	ConsumeAndUpdatePassword(ctx context.Context, tokenHash, passwordHash string) error
	FindUserIDByEmail(ctx context.Context, email string) (int, error)
}

func (r *PasswordResetRepository) Create(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO password_reset_tokens (email, token_hash, expires_at) VALUES (lower($1),$2,$3)`,
		email, tokenHash, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Create reset token failed", zap.Error(err))
	}
	return err
}

func (r *PasswordResetRepository) GetValidByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, token_hash, email, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
	`, tokenHash)

	var t models.PasswordResetToken
	if err := row.Scan(&t.ID, &t.TokenHash, &t.Email, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ConsumeAndUpdatePassword атомарно гасит токен и меняет пароль в одной
// транзакции. Валидность перепроверяется прямо в UPDATE, поэтому из двух
// конкурентных попыток с одним токеном пройдёт ровно одна.
func (r *PasswordResetRepository) ConsumeAndUpdatePassword(ctx context.Context, tokenHash, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var email string
	err = tx.QueryRow(ctx, `
		UPDATE password_reset_tokens
		SET used_at = now()
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING email
	`, tokenHash).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		logger.Log.Error("Consume reset token failed", zap.Error(err))
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE lower(email) = $2`,
		passwordHash, email,
	)
	if err != nil {
		logger.Log.Error("Update user password failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		// Токен есть, а пользователя с таким email уже нет
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *PasswordResetRepository) FindUserIDByEmail(ctx context.Context, email string) (int, error) {
	var userID int
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE lower(email)=lower($1) LIMIT 1`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}
