package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	APIKeyHeader = "X-API-Key"

	contextKeyName = "api_key_name"
)

// APIKey закрывает чтение статистики. Beacon'ы от браузеров ключ не передают,
// поэтому на /track-* этот middleware не вешается.
type APIKey struct {
	keys map[string]string // API key -> name/description
}

// NewAPIKey создаёт новый API key middleware
func NewAPIKey(keys map[string]string) *APIKey {
	return &APIKey{keys: keys}
}

// Enabled проверка включается, только если задан хотя бы один ключ
func (ak *APIKey) Enabled() bool {
	return len(ak.keys) > 0
}

// Middleware принимает ключ из X-API-Key или Authorization: Bearer
func (ak *APIKey) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ak.Enabled() {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			return
		}

		name, ok := ak.lookup(key)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Set(contextKeyName, name)
		c.Next()
	}
}

// lookup сравнение за постоянное время
func (ak *APIKey) lookup(key string) (string, bool) {
	for valid, name := range ak.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return name, true
		}
	}
	return "", false
}

// APIKeyName имя ключа, которым авторизован запрос
func APIKeyName(c *gin.Context) string {
	return c.GetString(contextKeyName)
}
