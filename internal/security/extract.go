package security

import (
	"net/http"
	"strings"
)

// TokenFromRequest — единая граница извлечения bearer-токена.
// Источники: заголовок Authorization: Bearer <t> и query-параметр token.
// Заголовок имеет приоритет, если присутствуют оба.
// Клиенты иногда присылают токен с пробелами или в кавычках — значение
// нормализуется здесь один раз, дальше токен нигде не чистится.
func TokenFromRequest(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			if t := sanitizeToken(auth[len(prefix):]); t != "" {
				return t, true
			}
		}
	}

	if t := sanitizeToken(r.URL.Query().Get("token")); t != "" {
		return t, true
	}

	return "", false
}

func sanitizeToken(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
