package httpmw

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/stayhive/conversation-service/internal/security"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// AuthMiddleware резолвит bearer-токен через identity-verifier и кладёт
// user_id в контекст. Токен извлекается единой границей
// security.TokenFromRequest (заголовок приоритетнее query-параметра).
func AuthMiddleware(verifier security.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := security.TokenFromRequest(r)
			if !ok {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromCtx(ctx context.Context) int64 {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// AdminMiddleware — отдельный статический токен для внеполосных
// административных операций.
func AdminMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := security.TokenFromRequest(r)
			if !ok || adminToken == "" ||
				subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
