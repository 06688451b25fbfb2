package repository

import (
	"context"
	"errors"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const topSupportedLimit = 5

type MongoIssueStore struct {
	issues *mongo.Collection
	now    func() time.Time
}

func NewMongoIssueStore(db *mongo.Database) *MongoIssueStore {
	return &MongoIssueStore{issues: db.Collection(IssuesCollection), now: time.Now}
}

func (s *MongoIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Upvotes.Users == nil {
		issue.Upvotes.Users = []primitive.ObjectID{}
	}

	if _, err := s.issues.InsertOne(ctx, issue); err != nil {
		return apperror.Upstream("Failed to create issue", err)
	}
	return nil
}

func (s *MongoIssueStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("issue", id.Hex())
		}
		return nil, apperror.Upstream("Failed to retrieve issue", err)
	}
	return &issue, nil
}

func (s *MongoIssueStore) List(ctx context.Context, q IssueQuery) ([]models.Issue, error) {
	if _, ok := pageOffset(q.Page, q.Limit); !ok {
		return []models.Issue{}, nil
	}
	cursor, err := s.issues.Find(ctx, issueFilter(q), issueFindOptions(q))
	if err != nil {
		return nil, apperror.Upstream("Failed to retrieve issues", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, apperror.Upstream("Failed to decode issues", err)
	}
	return issues, nil
}

// Upvote adds userID to the upvoters and bumps the count in one conditional
// update; the $ne guard makes a repeated upvote match nothing.
func (s *MongoIssueStore) Upvote(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	filter := bson.M{"_id": issueID, "upvotes.users": bson.M{"$ne": userID}}
	update := bson.M{
		"$addToSet": bson.M{"upvotes.users": userID},
		"$inc":      bson.M{"upvotes.count": 1},
	}
	return s.applyUpvoteChange(ctx, issueID, userID, filter, update)
}

// RemoveUpvote is the inverse of Upvote, guarded by membership.
func (s *MongoIssueStore) RemoveUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	filter := bson.M{"_id": issueID, "upvotes.users": userID}
	update := bson.M{
		"$pull": bson.M{"upvotes.users": userID},
		"$inc":  bson.M{"upvotes.count": -1},
	}
	return s.applyUpvoteChange(ctx, issueID, userID, filter, update)
}

func (s *MongoIssueStore) applyUpvoteChange(ctx context.Context, issueID, userID primitive.ObjectID, filter, update bson.M) (*models.UpvoteState, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"upvotes": 1})

	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue)
	if err == nil {
		return issue.Upvotes.StateFor(issueID, userID), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.Upstream("Failed to update upvote", err)
	}
	// Nothing matched: either the issue is gone or the change was already applied.
	return s.UpvoteStatus(ctx, issueID, userID)
}

func (s *MongoIssueStore) UpvoteStatus(ctx context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	var issue models.Issue
	opts := options.FindOne().SetProjection(bson.M{"upvotes": 1})
	err := s.issues.FindOne(ctx, bson.M{"_id": issueID}, opts).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("issue", issueID.Hex())
		}
		return nil, apperror.Upstream("Failed to retrieve upvote status", err)
	}
	return issue.Upvotes.StateFor(issueID, userID), nil
}

func (s *MongoIssueStore) UpdateStatus(ctx context.Context, issueID primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": issueID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err == nil {
		return &issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.Upstream("Failed to update issue status", err)
	}

	if _, findErr := s.FindByID(ctx, issueID); findErr != nil {
		return nil, findErr
	}
	return nil, apperror.Conflict("Issue status was changed by another request")
}

// Stats builds dashboard counts with a few small aggregations.
func (s *MongoIssueStore) Stats(ctx context.Context) (*models.IssueStats, error) {
	stats := &models.IssueStats{
		ByStatus:     map[string]int64{},
		ByAuthority:  map[string]int64{},
		TopSupported: []models.IssueSummary{},
		GeneratedAt:  s.now(),
	}

	total, err := s.issues.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, apperror.Upstream("Failed to count issues", err)
	}
	stats.TotalIssues = total

	if err := s.groupCounts(ctx, "$status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := s.groupCounts(ctx, "$concernAuthority", stats.ByAuthority); err != nil {
		return nil, err
	}

	sumCursor, err := s.issues.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$upvotes.count"}}}},
	})
	if err != nil {
		return nil, apperror.Upstream("Failed to sum upvotes", err)
	}
	var sums []struct {
		Total int64 `bson:"total"`
	}
	if err := sumCursor.All(ctx, &sums); err != nil {
		return nil, apperror.Upstream("Failed to decode upvote totals", err)
	}
	if len(sums) > 0 {
		stats.TotalUpvotes = sums[0].Total
	}

	topCursor, err := s.issues.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "upvotes.count", Value: -1}, {Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: topSupportedLimit}},
		{{Key: "$project", Value: bson.M{
			"title":            1,
			"concernAuthority": 1,
			"status":           1,
			"upvoteCount":      "$upvotes.count",
		}}},
	})
	if err != nil {
		return nil, apperror.Upstream("Failed to rank issues", err)
	}
	if err := topCursor.All(ctx, &stats.TopSupported); err != nil {
		return nil, apperror.Upstream("Failed to decode ranked issues", err)
	}

	return stats, nil
}

func (s *MongoIssueStore) groupCounts(ctx context.Context, field string, into map[string]int64) error {
	cursor, err := s.issues.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return apperror.Upstream("Failed to group issues", err)
	}

	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return apperror.Upstream("Failed to decode issue groups", err)
	}
	for _, r := range rows {
		into[r.Key] = r.Count
	}
	return nil
}
