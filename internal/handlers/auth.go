package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"aniwatch/internal/logger"
	"aniwatch/internal/middleware"
	"aniwatch/internal/models"
	"aniwatch/internal/reqctx"
	"aniwatch/internal/repository"
	"aniwatch/internal/services"
	helpers "aniwatch/internal/utils/helpers"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService    *services.AuthService
	sessionService *services.SessionService
	secureCookies  bool // ENV=prod
}

func NewAuthHandler(authService *services.AuthService, sessionService *services.SessionService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionService: sessionService,
		secureCookies:  secureCookies,
	}
}

type registerRequest struct {
	Username   string  `json:"username"`
	Email      *string `json:"email,omitempty"`
	Password   string  `json:"password"`
	Newsletter bool    `json:"newsletter"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {object} models.User
// @Failure 400 {string} string "Ошибка валидации"
// @Failure 409 {string} string "Логин или email уже заняты"
// @Router /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Newsletter: req.Newsletter,
	}

	err := h.authService.RegisterUser(r.Context(), user, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, repository.ErrEmailTaken):
			helpers.Error(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrUsernameRequired), errors.Is(err, services.ErrPasswordTooShort):
			helpers.Error(w, http.StatusBadRequest, err.Error())
		default:
			log.Error("Ошибка регистрации пользователя", zap.Error(err))
			helpers.Error(w, http.StatusInternalServerError, "Не удалось зарегистрироваться")
		}
		return
	}

	helpers.JSON(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Вход: проверка пары логин/пароль и выдача сессионной куки
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "Неверный логин или пароль"
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	user, err := h.authService.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		// Ответ одинаковый для любого сбоя аутентификации
		helpers.Error(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
		return
	}

	token, sess, err := h.sessionService.StartSession(r.Context(), user)
	if err != nil {
		log.Error("Ошибка создания сессии", zap.Error(err), zap.Int("user_id", user.ID))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось создать сессию")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, time.Until(sess.ExpiresAt)))

	log.Info("Вход выполнен", zap.String("username", user.Username), zap.Int("user_id", user.ID))
	helpers.JSON(w, http.StatusOK, loginResponse{ID: user.ID, Username: user.Username})
}

// Logout godoc
// @Summary Выход: гашение сессии и сброс куки
// @Tags auth
// @Produce json
// @Success 200 {string} string "Выход выполнен"
// @Router /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	// Гашение идемпотентно: повторный выход — тоже 200
	if sid, ok := reqctx.GetSessionID(r.Context()); ok {
		if err := h.sessionService.EndSessionByID(r.Context(), sid); err != nil {
			log.Error("Ошибка при удалении сессии", zap.Error(err))
			helpers.Error(w, http.StatusInternalServerError, "Ошибка при выходе")
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -time.Hour))

	log.Info("Пользователь вышел")
	helpers.JSON(w, http.StatusOK, "Выход выполнен")
}

// sessionCookie собирает куку сессии: HttpOnly всегда, Secure — в prod.
func (h *AuthHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
