package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique user indexes and the issue indexes,
// including the 2dsphere index $near depends on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetName("phone_unique")},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	issueIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("location_2dsphere")},
		{Keys: bson.D{{Key: "colony", Value: 1}, {Key: "pincode", Value: 1}}, Options: options.Index().SetName("address")},
		{Keys: bson.D{{Key: "upvotes.count", Value: -1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("supported")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("recent")},
		{Keys: bson.D{{Key: "reportedBy", Value: 1}}, Options: options.Index().SetName("reported_by")},
	}
	if _, err := db.Collection(IssuesCollection).Indexes().CreateMany(ctx, issueIndexes); err != nil {
		return fmt.Errorf("creating issue indexes: %w", err)
	}
	return nil
}
