package middlewares

import (
	"strings"

	"civicreport-be/apperror"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDKey is the gin context key holding the verified user id.
const UserIDKey = "user_id"

type TokenVerifier interface {
	Verify(token string) (primitive.ObjectID, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(auth TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.AbortWithError(c, apperror.Unauthenticated("No authorization token provided"))
			return
		}

		userID, err := auth.Verify(token)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is presented and otherwise
// lets the request through anonymously.
func OptionalAuth(auth TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if userID, err := auth.Verify(token); err == nil {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserID returns the id set by AuthMiddleware or OptionalAuth.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
