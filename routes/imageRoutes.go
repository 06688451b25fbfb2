package routes

import (
	"civicreport-be/controllers"
	"civicreport-be/middlewares"

	"github.com/gin-gonic/gin"
)

// ImageRoutes sets up image upload and deletion
func ImageRoutes(r *gin.Engine, ic *controllers.ImageController, verifier middlewares.TokenVerifier) {
	images := r.Group("/api/images", middlewares.AuthMiddleware(verifier))
	{
		images.POST("", ic.UploadImages)
		images.DELETE("/*key", ic.DeleteImage)
	}
}
