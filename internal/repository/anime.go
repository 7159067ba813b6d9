package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AnimeRepository struct {
	db *pgxpool.Pool
}

func NewAnimeRepository(db *pgxpool.Pool) *AnimeRepository {
	return &AnimeRepository{db: db}
}

// Все запросы, кроме вставки, фильтруют по (id AND user_id): запись одного
// пользователя недостижима для другого даже по угаданному id.
func (r *AnimeRepository) Create(ctx context.Context, a *models.Anime) error {
	logger.Log.Info("Создание записи аниме (repo)", zap.Int("user_id", a.UserID), zap.String("title", a.Title))
	query := `
		INSERT INTO anime (user_id, title, rating, episodes, genre, image_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		a.UserID,
		a.Title,
		a.Rating,
		a.Episodes,
		a.Genre,
		a.ImagePath,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		logger.Log.Error("Ошибка создания записи (repo)", zap.Error(err))
	}
	return err
}

func (r *AnimeRepository) ListByOwner(ctx context.Context, userID int) ([]*models.Anime, error) {
	logger.Log.Debug("Список аниме пользователя (repo)", zap.Int("user_id", userID))
	query := `
		SELECT id, user_id, title, rating, episodes, genre, image_path, created_at
		FROM anime
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		logger.Log.Error("Ошибка получения списка (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*models.Anime
	for rows.Next() {
		var a models.Anime
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Title,
			&a.Rating,
			&a.Episodes,
			&a.Genre,
			&a.ImagePath,
			&a.CreatedAt,
		)
		if err != nil {
			logger.Log.Error("Ошибка сканирования записи (repo)", zap.Error(err))
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *AnimeRepository) GetByID(ctx context.Context, userID, id int) (*models.Anime, error) {
	logger.Log.Debug("Получение записи (repo)", zap.Int("user_id", userID), zap.Int("anime_id", id))
	query := `
		SELECT id, user_id, title, rating, episodes, genre, image_path, created_at
		FROM anime
		WHERE id = $1 AND user_id = $2`

	var a models.Anime
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Title,
		&a.Rating,
		&a.Episodes,
		&a.Genre,
		&a.ImagePath,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.Error("Ошибка получения записи (repo)", zap.Int("anime_id", id), zap.Error(err))
		return nil, err
	}
	return &a, nil
}

func (r *AnimeRepository) UpdateFields(ctx context.Context, userID, id int, input *models.UpdateAnimeRequest) error {
	logger.Log.Info("Обновление записи (repo)", zap.Int("user_id", userID), zap.Int("anime_id", id))
	query := `UPDATE anime SET`
	var args []interface{}
	argNum := 1

	if input.Title != nil {
		query += fmt.Sprintf(" title = $%d,", argNum)
		args = append(args, *input.Title)
		argNum++
	}
	if input.Rating != nil {
		query += fmt.Sprintf(" rating = $%d,", argNum)
		args = append(args, *input.Rating)
		argNum++
	}
	if input.Episodes != nil {
		query += fmt.Sprintf(" episodes = $%d,", argNum)
		args = append(args, *input.Episodes)
		argNum++
	}
	if input.Genre != nil {
		query += fmt.Sprintf(" genre = $%d,", argNum)
		args = append(args, *input.Genre)
		argNum++
	}
	if input.ImagePath != nil {
		query += fmt.Sprintf(" image_path = $%d,", argNum)
		args = append(args, *input.ImagePath)
		argNum++
	}

	if len(args) == 0 {
		logger.Log.Warn("Нет полей для обновления записи (repo)", zap.Int("anime_id", id))
		return nil // ничего не обновляем
	}

	query = strings.TrimSuffix(query, ",") + fmt.Sprintf(" WHERE id = $%d AND user_id = $%d", argNum, argNum+1)
	args = append(args, id, userID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Log.Error("Ошибка обновления записи (repo)", zap.Error(err), zap.Int("anime_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnimeRepository) Delete(ctx context.Context, userID, id int) error {
	logger.Log.Info("Удаление записи (repo)", zap.Int("user_id", userID), zap.Int("anime_id", id))
	query := `DELETE FROM anime WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		logger.Log.Error("Ошибка удаления записи (repo)", zap.Error(err), zap.Int("anime_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
