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

type MongoUserStore struct {
	users *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{users: db.Collection(UsersCollection)}
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if user.UpvotedIssues == nil {
		user.UpvotedIssues = []primitive.ObjectID{}
	}

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("User with this email or phone already exists")
		}
		return apperror.Upstream("Failed to create user", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

func (s *MongoUserStore) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return nil, apperror.NotFound("user", "")
	}
	return s.findOne(ctx, bson.M{"$or": or}, email+"/"+phone)
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M, label string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, apperror.Upstream("Failed to retrieve user", err)
	}
	return &user, nil
}

func (s *MongoUserStore) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
	if err != nil {
		return apperror.Upstream("Failed to update last login", err)
	}
	return nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]string) (*models.User, error) {
	if len(fields) == 0 {
		return s.FindByID(ctx, id)
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id.Hex())
		}
		return nil, apperror.Upstream("Failed to update user", err)
	}
	return &user, nil
}

func (s *MongoUserStore) AddUpvotedIssue(ctx context.Context, userID, issueID primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"upvotedIssues": issueID}})
	if err != nil {
		return apperror.Upstream("Failed to record upvote on user", err)
	}
	return nil
}

func (s *MongoUserStore) RemoveUpvotedIssue(ctx context.Context, userID, issueID primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"upvotedIssues": issueID}})
	if err != nil {
		return apperror.Upstream("Failed to remove upvote from user", err)
	}
	return nil
}
