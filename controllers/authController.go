package controllers

import (
	"net/http"

	"civicreport-be/apperror"
	"civicreport-be/middlewares"
	"civicreport-be/services"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Auth *services.AuthService
}

// Signup handles user registration
func (ac *AuthController) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, apperror.ValidationFailed("", "Invalid request body"))
		return
	}

	res, err := ac.Auth.Signup(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   res.Token,
		"user":    res.User,
	})
}

// Login handles user login by email or phone
func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, apperror.ValidationFailed("", "Invalid request body"))
		return
	}

	res, err := ac.Auth.Login(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   res.Token,
		"user":    res.User,
	})
}

// GetMe retrieves the authenticated user's information
func (ac *AuthController) GetMe(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	user, err := ac.Auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateMe changes the caller's name, address or landmark
func (ac *AuthController) UpdateMe(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		utils.RespondError(c, apperror.Unauthenticated("User not authenticated"))
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.RespondError(c, apperror.ValidationFailed("", "Invalid request body"))
		return
	}

	profile, err := ac.Auth.UpdateProfile(c.Request.Context(), userID, updates)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": profile})
}
