package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aniwatch/internal/logger"
	"aniwatch/internal/services"
	helpers "aniwatch/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordService
}

func NewPasswordHandler(svc *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotReq struct {
	Email string `json:"email"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Выдаёт одноразовый токен сброса. Ответ всегда одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/forgot-password [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		log.Warn("Невалидный payload в Forgot")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Не раскрываем, существует ли email — всегда возвращаем 200
	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		// Ошибку логируем, но клиенту отвечаем одинаково
		log.Error("Сбой при запросе восстановления пароля", zap.Error(err))
	}

	helpers.NoStore(w)
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Если такой email зарегистрирован, ссылка для сброса выдана."})
}

// ValidateToken godoc
// @Summary Проверка токена сброса перед показом формы
// @Tags password
// @Produce json
// @Param token path string true "Токен из ссылки"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/reset-password/{token} [get]
func (h *PasswordHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	token := mux.Vars(r)["token"]
	email, err := h.svc.ValidateToken(r.Context(), token)
	if err != nil {
		log.Warn("Токен сброса не прошёл проверку", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, services.ErrResetTokenInvalid.Error())
		return
	}

	helpers.NoStore(w)
	helpers.JSON(w, http.StatusOK, map[string]string{"email": maskEmail(email)})
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Токен перепроверяется в момент расходования и гасится вместе с установкой нового пароля.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/reset-password [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.NewPassword) == "" {
		log.Warn("Невалидный payload в Reset")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ConsumeToken(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) || errors.Is(err, services.ErrPasswordTooShort) {
			log.Warn("Не удалось сбросить пароль по токену", zap.Error(err))
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Сбой при сбросе пароля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сбросить пароль")
		return
	}

	log.Info("Пароль успешно сброшен")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пароль изменён."})
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	if at <= 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "****" + email[at:]
}
