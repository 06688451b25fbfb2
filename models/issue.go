package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
	StatusComplete   IssueStatus = "complete"
)

// MaxIssueImages is the number of image URLs an issue may carry.
const MaxIssueImages = 3

var statusTransitions = map[IssueStatus][]IssueStatus{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed, StatusOpen},
	StatusResolved:   {StatusComplete, StatusInProgress},
	StatusClosed:     {StatusOpen},
	StatusComplete:   nil,
}

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether an issue in status s may move to next.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title            string              `bson:"title" json:"title"`
	Description      string              `bson:"description" json:"description"`
	Status           IssueStatus         `bson:"status" json:"status"`
	Priority         string              `bson:"priority" json:"priority"`
	ConcernAuthority string              `bson:"concernAuthority" json:"concernAuthority"`
	Reporter         string              `bson:"reporter" json:"reporter"`
	ReportedBy       *primitive.ObjectID `bson:"reportedBy,omitempty" json:"reportedBy,omitempty"`
	Comments         []string            `bson:"comments" json:"comments"`
	Images           []string            `bson:"images" json:"images"`
	Tags             []string            `bson:"tags" json:"tags"`
	Colony           string              `bson:"colony" json:"colony"`
	Pincode          string              `bson:"pincode" json:"pincode"`
	Location         GeoPoint            `bson:"location" json:"location"`
	Upvotes          UpvoteAggregate     `bson:"upvotes" json:"upvotes"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IssueStats summarises the issue collection for dashboards.
type IssueStats struct {
	TotalIssues  int64            `json:"totalIssues"`
	TotalUpvotes int64            `json:"totalUpvotes"`
	ByStatus     map[string]int64 `json:"byStatus"`
	ByAuthority  map[string]int64 `json:"byAuthority"`
	TopSupported []IssueSummary   `json:"topSupported"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

type IssueSummary struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Title            string             `bson:"title" json:"title"`
	ConcernAuthority string             `bson:"concernAuthority" json:"concernAuthority"`
	Status           IssueStatus        `bson:"status" json:"status"`
	UpvoteCount      int64              `bson:"upvoteCount" json:"upvoteCount"`
}
