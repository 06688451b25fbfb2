package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// UpvoteAggregate is embedded in every issue. Users holds at most one entry per
// user; Count always equals len(Users) because both are changed by the same
// conditional update.
type UpvoteAggregate struct {
	Count int64                `bson:"count" json:"count"`
	Users []primitive.ObjectID `bson:"users" json:"-"`
}

// Has reports whether userID is among the upvoters.
func (a UpvoteAggregate) Has(userID primitive.ObjectID) bool {
	for _, id := range a.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// UpvoteState is a caller's view of an issue's upvotes.
type UpvoteState struct {
	IssueID     primitive.ObjectID `json:"issueId"`
	UpvoteCount int64              `json:"upvoteCount"`
	HasUpvoted  bool               `json:"hasUpvoted"`
}

func (a UpvoteAggregate) StateFor(issueID, userID primitive.ObjectID) *UpvoteState {
	return &UpvoteState{IssueID: issueID, UpvoteCount: a.Count, HasUpvoted: a.Has(userID)}
}
