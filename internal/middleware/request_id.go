package middleware

import (
	"net/http"

	"aniwatch/internal/reqctx"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID присваивает запросу идентификатор (или берёт клиентский)
// и возвращает его в заголовке ответа.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}

		ctx := reqctx.WithRequestID(r.Context(), rid)
		w.Header().Set(requestIDHeader, rid)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
