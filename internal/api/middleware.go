package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// jwtMiddleware проверяет JWT токен в заголовке Authorization.
// Без выпускающего токены сервер работает без авторизации.
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.tokens == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail(c, http.StatusUnauthorized, "Отсутствует токен авторизации")
			c.Abort()
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, http.StatusUnauthorized, "Неверный формат токена")
			c.Abort()
			return
		}

		claims, err := rs.tokens.Validate(parts[1])
		if err != nil {
			fail(c, http.StatusUnauthorized, "Недействительный токен")
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// adminMiddleware проверяет, что оператор является администратором
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.tokens == nil {
			c.Next()
			return
		}
		if isAdmin, _ := c.Get("is_admin"); isAdmin != true {
			fail(c, http.StatusForbidden, "Требуются права администратора")
			c.Abort()
			return
		}
		c.Next()
	}
}
