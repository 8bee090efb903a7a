package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"fxtrado/pkg/crypto"
)

// apiTokenHash - bcrypt хеш API токена из переменной окружения
// API_TOKEN_HASH. Если не установлен, API открыт (локальное
// развертывание за файрволом).
var apiTokenHash = os.Getenv("API_TOKEN_HASH")

// debugUsername и debugPassword для защиты debug endpoints.
// Если не установлены, debug endpoints недоступны в production.
var (
	debugUsername = os.Getenv("DEBUG_USERNAME")
	debugPassword = os.Getenv("DEBUG_PASSWORD")
)

// Auth - middleware аутентификации API запросов
//
// Проверяет токен из заголовка Authorization: Bearer <token> против
// bcrypt хеша из API_TOKEN_HASH. Сравнение constant-time (bcrypt).
// Без настроенного хеша запросы пропускаются.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiTokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !crypto.CheckTokenMatch(token, apiTokenHash) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// DebugAuth - middleware для защиты debug/pprof endpoints
//
// HTTP Basic Authentication с constant-time сравнением credentials.
// Без настроенных DEBUG_USERNAME/DEBUG_PASSWORD доступ открыт только
// в development (ENV=development или пустой).
func DebugAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debugUsername == "" || debugPassword == "" {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Constant-time сравнение для предотвращения timing attacks
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(debugUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(debugPassword)) == 1

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
