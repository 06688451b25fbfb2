package routes

import (
	"civicreport-be/controllers"
	"civicreport-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, ac *controllers.AuthController, verifier middlewares.TokenVerifier, loginLimiter *middlewares.LoginRateLimiter) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", ac.Signup)
		auth.POST("/login", loginLimiter.Middleware(), ac.Login)
		auth.GET("/me", middlewares.AuthMiddleware(verifier), ac.GetMe)
		auth.PUT("/update", middlewares.AuthMiddleware(verifier), ac.UpdateMe)
	}
}
