package middleware

import (
	"context"
	"net/http"

	"aniwatch/internal/logger"
	"aniwatch/internal/models"
	"aniwatch/internal/reqctx"

	"go.uber.org/zap"
)

// SessionCookieName — имя куки сессии. Кука ставится с HttpOnly,
// скриптам страницы она недоступна.
const SessionCookieName = "aniwatch_session"

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
}

// SessionAuth — гард аутентификации: каждый защищённый маршрут сначала
// резолвит сессию, анонимный запрос получает 401 и до хендлера не доходит.
func SessionAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				logger.WithCtx(r.Context()).Warn("SessionAuth: отсутствует кука сессии")
				http.Error(w, "Требуется вход", http.StatusUnauthorized)
				return
			}

			sess, err := sessions.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("SessionAuth: сессия недействительна", zap.Error(err))
				http.Error(w, "Требуется вход", http.StatusUnauthorized)
				return
			}

			ctx := reqctx.WithUserID(r.Context(), sess.UserID)
			ctx = reqctx.WithSessionID(ctx, sess.SID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
