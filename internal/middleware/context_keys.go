package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorHeader names the back-office user acting on a request. There is no
// authentication; the header is trusted as given.
const OperatorHeader = "X-Operator-ID"

// operatorIDKey is the key used to store the operator ID in the Gin context.
const operatorIDKey = contextKey("operatorID")

// RequireOperator rejects requests without an operator header and stores the
// operator for handlers.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if operator == "" {
			GetLoggerFromContext(c).Warn("Missing operator header")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": OperatorHeader + " header is required"})
			return
		}
		c.Set(string(operatorIDKey), operator)
		logger := GetLoggerFromContext(c).With(slog.String("operator", operator))
		c.Set(string(loggerKey), logger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

// GetOperatorFromContext retrieves the operator ID from the Gin context.
// It returns the operator ID and a boolean indicating if it was found.
func GetOperatorFromContext(c *gin.Context) (string, bool) {
	operatorVal, exists := c.Get(string(operatorIDKey))
	if !exists {
		return "", false
	}

	operator, ok := operatorVal.(string)
	if !ok {
		return "", false
	}

	return operator, true
}
