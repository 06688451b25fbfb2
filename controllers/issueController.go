package controllers

import (
	"context"
	"net/http"

	"civicreport-be/apperror"
	"civicreport-be/middlewares"
	"civicreport-be/models"
	"civicreport-be/services"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueController struct {
	Issues *services.IssueService
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	var input services.CreateIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, apperror.ValidationFailed("", "All fields are required and must be valid!"))
		return
	}

	issue, err := ic.Issues.Create(c.Request.Context(), input, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Issue created successfully", "issue": issue})
}

// GetAllIssues lists issues. Address, geo, sort and paging all come from the
// query string.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	params := services.ListParams{
		Colony:    c.Query("colony"),
		Pincode:   c.Query("pincode"),
		Longitude: c.Query("longitude"),
		Latitude:  c.Query("latitude"),
		Radius:    c.Query("radius"),
		Sort:      c.Query("sort"),
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
	}
	ic.list(c, params)
}

// GetIssuesByAddress requires colony and pincode
func (ic *IssueController) GetIssuesByAddress(c *gin.Context) {
	colony, pincode := c.Query("colony"), c.Query("pincode")
	if colony == "" || pincode == "" {
		utils.RespondError(c, apperror.ValidationFailed("colony", "colony and pincode are required"))
		return
	}
	ic.list(c, services.ListParams{
		Colony:  colony,
		Pincode: pincode,
		Sort:    c.Query("sort"),
		Page:    c.Query("page"),
		Limit:   c.Query("limit"),
	})
}

// GetNearbyIssues requires longitude, latitude and radius (km)
func (ic *IssueController) GetNearbyIssues(c *gin.Context) {
	lng, lat, radius := c.Query("longitude"), c.Query("latitude"), c.Query("radius")
	if lng == "" || lat == "" || radius == "" {
		utils.RespondError(c, apperror.ValidationFailed("radius", "Longitude, latitude, and radius are required"))
		return
	}
	ic.list(c, services.ListParams{
		Longitude: lng,
		Latitude:  lat,
		Radius:    radius,
		Sort:      c.Query("sort"),
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
	})
}

func (ic *IssueController) list(c *gin.Context, params services.ListParams) {
	issues, err := ic.Issues.List(c.Request.Context(), params, viewer(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GetMyIssues lists the caller's own reports
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	issues, err := ic.Issues.ListMine(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GetIssue retrieves a single issue by id
func (ic *IssueController) GetIssue(c *gin.Context) {
	issue, err := ic.Issues.Get(c.Request.Context(), c.Param("id"), viewer(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateIssueStatus lets the reporter move the issue through its lifecycle
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, apperror.ValidationFailed("status", "Invalid request body"))
		return
	}

	issue, err := ic.Issues.UpdateStatus(c.Request.Context(), c.Param("id"), userID, input.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

// Upvote adds the caller's upvote; repeating it changes nothing
func (ic *IssueController) Upvote(c *gin.Context) {
	ic.upvoteAction(c, ic.Issues.Upvote)
}

// RemoveUpvote withdraws the caller's upvote
func (ic *IssueController) RemoveUpvote(c *gin.Context) {
	ic.upvoteAction(c, ic.Issues.RemoveUpvote)
}

// GetUpvoteStatus reports whether the caller has upvoted the issue
func (ic *IssueController) GetUpvoteStatus(c *gin.Context) {
	ic.upvoteAction(c, ic.Issues.UpvoteStatus)
}

type upvoteFunc func(ctx context.Context, issueID string, userID primitive.ObjectID) (*models.UpvoteState, error)

func (ic *IssueController) upvoteAction(c *gin.Context, action upvoteFunc) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	state, err := action(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"upvoteCount": state.UpvoteCount,
		"hasUpvoted":  state.HasUpvoted,
	})
}

// GetIssueStats returns dashboard counts
func (ic *IssueController) GetIssueStats(c *gin.Context) {
	stats, err := ic.Issues.Stats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func viewer(c *gin.Context) *primitive.ObjectID {
	if id, ok := middlewares.UserID(c); ok {
		return &id
	}
	return nil
}
