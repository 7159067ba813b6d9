package services

import (
	"context"
	"errors"
	"strings"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"

	"go.uber.org/zap"
)

var (
	ErrTitleRequired    = errors.New("укажите название")
	ErrRatingOutOfRange = errors.New("оценка должна быть от 1 до 10")
	ErrEpisodesNegative = errors.New("число серий не может быть отрицательным")
	ErrAnimeNotFound    = errors.New("запись не найдена")
)

type AnimeRepo interface {
	Create(ctx context.Context, a *models.Anime) error
	ListByOwner(ctx context.Context, userID int) ([]*models.Anime, error)
	GetByID(ctx context.Context, userID, id int) (*models.Anime, error)
	UpdateFields(ctx context.Context, userID, id int, input *models.UpdateAnimeRequest) error
	Delete(ctx context.Context, userID, id int) error
}

// ImageRemover — кусок хранилища обложек, который нужен сервису:
// подчистка файла при замене и удалении записи.
type ImageRemover interface {
	Remove(filename string) error
}

type AnimeService struct {
	repo   AnimeRepo
	images ImageRemover
}

func NewAnimeService(repo AnimeRepo, images ImageRemover) *AnimeService {
	return &AnimeService{repo: repo, images: images}
}

// AddAnime валидирует поля и создаёт запись за владельцем.
// Оценка вне [1,10] отклоняется, а не подрезается.
func (s *AnimeService) AddAnime(ctx context.Context, ownerID int, a *models.Anime) (*models.Anime, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return nil, ErrTitleRequired
	}
	if a.Rating < 1 || a.Rating > 10 {
		return nil, ErrRatingOutOfRange
	}
	if a.Episodes != nil && *a.Episodes < 0 {
		return nil, ErrEpisodesNegative
	}
	if a.Genre != nil && strings.TrimSpace(*a.Genre) == "" {
		a.Genre = nil
	}

	a.UserID = ownerID
	if err := s.repo.Create(ctx, a); err != nil {
		logger.Log.Error("Ошибка создания записи (service)", zap.Error(err), zap.Int("user_id", ownerID))
		return nil, err
	}
	return a, nil
}

func (s *AnimeService) ListAnime(ctx context.Context, ownerID int) ([]*models.Anime, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// GetAnime отдаёт запись только её владельцу. «Нет записи» и «чужая
// запись» снаружи неразличимы.
func (s *AnimeService) GetAnime(ctx context.Context, ownerID, id int) (*models.Anime, error) {
	a, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, ErrAnimeNotFound
	}
	return a, nil
}

// UpdateAnime частично обновляет запись владельца. Если заменяется обложка,
// старый файл удаляется best-effort после успешного обновления строки.
func (s *AnimeService) UpdateAnime(ctx context.Context, ownerID, id int, input *models.UpdateAnimeRequest) (*models.Anime, error) {
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		input.Title = &t
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 10) {
		return nil, ErrRatingOutOfRange
	}
	if input.Episodes != nil && *input.Episodes < 0 {
		return nil, ErrEpisodesNegative
	}

	prev, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, ErrAnimeNotFound
	}

	if err := s.repo.UpdateFields(ctx, ownerID, id, input); err != nil {
		logger.Log.Error("Ошибка обновления записи (service)", zap.Error(err), zap.Int("anime_id", id))
		return nil, ErrAnimeNotFound
	}

	// Старая обложка больше никем не referenced — подчистим, не мешая запросу
	if input.ImagePath != nil && prev.ImagePath != nil && *prev.ImagePath != *input.ImagePath {
		if err := s.images.Remove(*prev.ImagePath); err != nil {
			logger.Log.Warn("Не удалось удалить старую обложку", zap.String("image", *prev.ImagePath), zap.Error(err))
		}
	}

	updated, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, ErrAnimeNotFound
	}
	return updated, nil
}

// DeleteAnime удаляет запись владельца вместе с обложкой. Файл удаляется
// после строки и best-effort: сбой чистки журналируется, но операцию
// не отменяет.
func (s *AnimeService) DeleteAnime(ctx context.Context, ownerID, id int) error {
	a, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return ErrAnimeNotFound
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		logger.Log.Error("Ошибка удаления записи (service)", zap.Error(err), zap.Int("anime_id", id))
		return ErrAnimeNotFound
	}

	if a.ImagePath != nil {
		if err := s.images.Remove(*a.ImagePath); err != nil {
			logger.Log.Warn("Не удалось удалить обложку", zap.String("image", *a.ImagePath), zap.Error(err))
		}
	}

	logger.Log.Info("Запись удалена (service)", zap.Int("anime_id", id), zap.Int("user_id", ownerID))
	return nil
}
