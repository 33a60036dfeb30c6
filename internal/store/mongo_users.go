package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brigade/internal/models"
)

type mongoUsers struct {
	coll *mongo.Collection
}

func (s *mongoUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translateMongoErr(err)
	}
	return &u, nil
}

func (s *mongoUsers) Upsert(ctx context.Context, u *models.User) error {
	set := bson.M{
		"username":   u.Username,
		"firstName":  u.FirstName,
		"lastName":   u.LastName,
		"lastSeenAt": u.LastSeenAt,
	}
	if u.Role != "" {
		set["role"] = u.Role
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"createdAt": u.CreatedAt,
		},
	}
	if u.Role == "" {
		update["$setOnInsert"].(bson.M)["role"] = models.RoleStaff
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (s *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "firstName", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
