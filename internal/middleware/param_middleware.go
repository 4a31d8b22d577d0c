package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam проверяет числовой параметр URL (ID игры) и кладет его
// в контекст Gin как uint под ключом contextKey.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			abortInvalidParam(c, paramName)
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// ExtractChatIDParam разбирает ID чата Telegram. У групп он отрицательный,
// поэтому допускается любое ненулевое int64.
func ExtractChatIDParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, err := strconv.ParseInt(c.Param(paramName), 10, 64)
		if err != nil || chatID == 0 {
			abortInvalidParam(c, paramName)
			return
		}
		c.Set(contextKey, chatID)
		c.Next()
	}
}

func abortInvalidParam(c *gin.Context, paramName string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":      fmt.Sprintf("Invalid %s", paramName),
		"error_type": "invalid_param",
	})
}
