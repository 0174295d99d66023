package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agora-market/admission/service"
)

const contextKeyUsername = "username"

// AuthMiddleware validates bearer credentials and puts the subject into the
// request context.
func AuthMiddleware(admission *service.AdmissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		subject, err := admission.ValidateCredential(c.Request.Context(), token)
		if err != nil {
			c.Abort()
			abortWithAdmissionError(c, err)
			return
		}

		c.Set(contextKeyUsername, subject)
		c.Next()
	}
}
