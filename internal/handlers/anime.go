package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"
	"aniwatch/internal/reqctx"
	"aniwatch/internal/services"
	"aniwatch/internal/storage"
	helpers "aniwatch/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxImageSize — потолок размера обложки (5MB).
const maxImageSize = 5 << 20

type AnimeHandler struct {
	service *services.AnimeService
	images  *storage.ImageStore
}

func NewAnimeHandler(service *services.AnimeService, images *storage.ImageStore) *AnimeHandler {
	return &AnimeHandler{service: service, images: images}
}

// Dashboard godoc
// @Summary Список аниме текущего пользователя (новые сверху)
// @Tags anime
// @Security SessionCookie
// @Produce json
// @Success 200 {array} models.Anime
// @Failure 401 {string} string "Требуется вход"
// @Router /api/dashboard [get]
func (h *AnimeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := reqctx.GetUserID(r.Context())

	items, err := h.service.ListAnime(r.Context(), userID)
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения списка аниме", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Ошибка получения списка")
		return
	}
	if items == nil {
		items = []*models.Anime{}
	}
	helpers.NoStore(w)
	helpers.JSON(w, http.StatusOK, items)
}

// Add godoc
// @Summary Добавить аниме в список
// @Tags anime
// @Security SessionCookie
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Название"
// @Param rating formData int true "Оценка 1-10"
// @Param episodes formData int false "Число серий"
// @Param genre formData string false "Жанр"
// @Param image formData file false "Обложка ≤5MB (jpeg/png/gif/webp)"
// @Success 201 {object} models.Anime
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/anime [post]
func (h *AnimeHandler) Add(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	userID, _ := reqctx.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		log.Warn("Ошибка разбора формы при добавлении аниме", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Ошибка разбора формы")
		return
	}

	a := &models.Anime{Title: r.FormValue("title")}

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, services.ErrRatingOutOfRange.Error())
		return
	}
	a.Rating = rating

	if v := r.FormValue("episodes"); v != "" {
		episodes, err := strconv.Atoi(v)
		if err != nil {
			helpers.Error(w, http.StatusBadRequest, services.ErrEpisodesNegative.Error())
			return
		}
		a.Episodes = &episodes
	}
	if v := r.FormValue("genre"); v != "" {
		a.Genre = &v
	}

	imagePath, ok := h.saveUploadedImage(w, r)
	if !ok {
		return
	}
	a.ImagePath = imagePath

	created, err := h.service.AddAnime(r.Context(), userID, a)
	if err != nil {
		// Файл уже на диске, а строки не будет — подчищаем сразу
		if imagePath != nil {
			_ = h.images.Remove(*imagePath)
		}
		h.writeAnimeError(w, r, err, "Ошибка добавления записи")
		return
	}

	log.Info("Аниме добавлено", zap.Int("anime_id", created.ID), zap.String("title", created.Title))
	helpers.JSON(w, http.StatusCreated, created)
}

// Get godoc
// @Summary Получить запись по ID (только свою)
// @Tags anime
// @Security SessionCookie
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} models.Anime
// @Failure 404 {string} string "Запись не найдена"
// @Router /api/anime/{id} [get]
func (h *AnimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := reqctx.GetUserID(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	a, err := h.service.GetAnime(r.Context(), userID, id)
	if err != nil {
		// Чужая и несуществующая запись выглядят одинаково
		helpers.Error(w, http.StatusNotFound, services.ErrAnimeNotFound.Error())
		return
	}
	helpers.JSON(w, http.StatusOK, a)
}

// Update godoc
// @Summary Частичное обновление записи (только своей)
// @Tags anime
// @Security SessionCookie
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "ID записи"
// @Param title formData string false "Название"
// @Param rating formData int false "Оценка 1-10"
// @Param episodes formData int false "Число серий"
// @Param genre formData string false "Жанр"
// @Param image formData file false "Новая обложка (старая удаляется)"
// @Success 200 {object} models.Anime
// @Failure 400 {string} string "Ошибка валидации"
// @Failure 404 {string} string "Запись не найдена"
// @Router /api/anime/{id} [post]
func (h *AnimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	userID, _ := reqctx.GetUserID(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		log.Warn("Ошибка разбора формы при обновлении аниме", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Ошибка разбора формы")
		return
	}

	input := &models.UpdateAnimeRequest{}
	if vals, ok := r.MultipartForm.Value["title"]; ok && len(vals) > 0 {
		input.Title = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["rating"]; ok && len(vals) > 0 {
		rating, err := strconv.Atoi(vals[0])
		if err != nil {
			helpers.Error(w, http.StatusBadRequest, services.ErrRatingOutOfRange.Error())
			return
		}
		input.Rating = &rating
	}
	if vals, ok := r.MultipartForm.Value["episodes"]; ok && len(vals) > 0 {
		episodes, err := strconv.Atoi(vals[0])
		if err != nil {
			helpers.Error(w, http.StatusBadRequest, services.ErrEpisodesNegative.Error())
			return
		}
		input.Episodes = &episodes
	}
	if vals, ok := r.MultipartForm.Value["genre"]; ok && len(vals) > 0 {
		input.Genre = &vals[0]
	}

	imagePath, ok := h.saveUploadedImage(w, r)
	if !ok {
		return
	}
	input.ImagePath = imagePath

	updated, err := h.service.UpdateAnime(r.Context(), userID, id, input)
	if err != nil {
		if imagePath != nil {
			_ = h.images.Remove(*imagePath)
		}
		h.writeAnimeError(w, r, err, "Ошибка обновления записи")
		return
	}

	log.Info("Аниме обновлено", zap.Int("anime_id", id))
	helpers.JSON(w, http.StatusOK, updated)
}

// Delete godoc
// @Summary Удалить запись вместе с обложкой (только свою)
// @Tags anime
// @Security SessionCookie
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {string} string "Запись удалена"
// @Failure 404 {string} string "Запись не найдена"
// @Router /api/anime/{id}/delete [post]
func (h *AnimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())
	userID, _ := reqctx.GetUserID(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный ID")
		return
	}

	if err := h.service.DeleteAnime(r.Context(), userID, id); err != nil {
		helpers.Error(w, http.StatusNotFound, services.ErrAnimeNotFound.Error())
		return
	}

	log.Info("Аниме удалено", zap.Int("anime_id", id))
	helpers.JSON(w, http.StatusOK, "Запись удалена")
}

// saveUploadedImage забирает файл из поля image, если он есть.
// false означает, что ответ уже записан.
func (h *AnimeHandler) saveUploadedImage(w http.ResponseWriter, r *http.Request) (*string, bool) {
	log := logger.WithCtx(r.Context())

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		log.Warn("Ошибка чтения файла обложки", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Ошибка чтения файла")
		return nil, false
	}
	defer file.Close()

	if header.Size > maxImageSize {
		helpers.Error(w, http.StatusBadRequest, "Файл больше 5MB")
		return nil, false
	}

	filename, err := h.images.Save(file, header.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrBadImageType) {
			helpers.Error(w, http.StatusBadRequest, storage.ErrBadImageType.Error())
			return nil, false
		}
		log.Error("Ошибка сохранения обложки", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сохранить файл")
		return nil, false
	}
	return &filename, true
}

func (h *AnimeHandler) writeAnimeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrRatingOutOfRange),
		errors.Is(err, services.ErrEpisodesNegative):
		helpers.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAnimeNotFound):
		helpers.Error(w, http.StatusNotFound, err.Error())
	default:
		logger.WithCtx(r.Context()).Error(fallback, zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, fallback)
	}
}
