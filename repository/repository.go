// Package repository persists users and issues in MongoDB.
package repository

import (
	"context"
	"time"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UsersCollection  = "users"
	IssuesCollection = "issues"
)

type UserStore interface {
	// Create inserts the user and fills in its ID. A duplicate email or phone
	// yields an apperror conflict.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// FindByEmailOrPhone matches either field; empty arguments never match.
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]string) (*models.User, error)
	AddUpvotedIssue(ctx context.Context, userID, issueID primitive.ObjectID) error
	RemoveUpvotedIssue(ctx context.Context, userID, issueID primitive.ObjectID) error
}

type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	List(ctx context.Context, q IssueQuery) ([]models.Issue, error)
	// Upvote and RemoveUpvote are single conditional updates; repeating them is
	// a no-op that still reports the current state.
	Upvote(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error)
	RemoveUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error)
	UpvoteStatus(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error)
	// UpdateStatus changes the status only if it still equals from.
	UpdateStatus(ctx context.Context, issueID primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error)
	Stats(ctx context.Context) (*models.IssueStats, error)
}

type SortKey string

const (
	SortRecent    SortKey = "recent"
	SortSupported SortKey = "supported"
	// SortDistance is only meaningful with a Near query.
	SortDistance SortKey = "distance"
)

// NearQuery selects issues within RadiusMeters of a point.
type NearQuery struct {
	Longitude    float64
	Latitude     float64
	RadiusMeters float64
}

// IssueQuery describes a listing. Zero Limit means no limit.
type IssueQuery struct {
	Colony     string
	Pincode    string
	Near       *NearQuery
	ReportedBy *primitive.ObjectID
	Sort       SortKey
	Page       int
	Limit      int
}
