package routes

import (
	"civicreport-be/controllers"
	"civicreport-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. issueLimiter runs after authentication
// on issue creation.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, verifier middlewares.TokenVerifier, issueLimiter gin.HandlerFunc) {
	requireAuth := middlewares.AuthMiddleware(verifier)
	optionalAuth := middlewares.OptionalAuth(verifier)

	issue := r.Group("/api/issues")
	{
		issue.POST("", requireAuth, issueLimiter, ic.CreateIssue)
		issue.GET("", optionalAuth, ic.GetAllIssues)
		issue.GET("/by-address", optionalAuth, ic.GetIssuesByAddress)
		issue.GET("/nearby", optionalAuth, ic.GetNearbyIssues)
		issue.GET("/stats", ic.GetIssueStats)
		issue.GET("/mine", requireAuth, ic.GetMyIssues)
		issue.GET("/:id", optionalAuth, ic.GetIssue)
		issue.PATCH("/:id/status", requireAuth, ic.UpdateIssueStatus)
		issue.POST("/:id/upvote", requireAuth, ic.Upvote)
		issue.POST("/:id/remove-upvote", requireAuth, ic.RemoveUpvote)
		issue.GET("/:id/upvote-status", requireAuth, ic.GetUpvoteStatus)
	}
}
