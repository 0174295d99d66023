package http

import (
	"github.com/gin-gonic/gin"

	"github.com/agora-market/admission/service"
)

// SetupRouter sets up the Gin router for the admission endpoints.
func SetupRouter(admission *service.AdmissionService) *gin.Engine {
	router := gin.Default()

	handlers := NewAdmissionHandlers(admission)

	auth := router.Group("/auth")
	{
		auth.GET("/pow/challenge", handlers.Challenge)
		auth.POST("/register", handlers.Register)
		auth.POST("/session", handlers.OpenSession)
		auth.POST("/session/:id/proof", handlers.SubmitProof)
		auth.GET("/session/:id/status", handlers.SessionStatus)
		auth.POST("/login", handlers.Login)
	}

	// Endpoints behind a bearer credential.
	api := router.Group("/api")
	api.Use(AuthMiddleware(admission))
	{
		api.GET("/me", handlers.Me)
		api.GET("/authorize", handlers.Authorize)
	}

	return router
}
