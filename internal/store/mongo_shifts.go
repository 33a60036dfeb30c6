package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brigade/internal/models"
)

type mongoShifts struct {
	coll *mongo.Collection
}

func shiftFilterQuery(f ShiftFilter) bson.M {
	filter := bson.M{}
	day := bson.M{}
	if f.From != "" {
		day["$gte"] = f.From
	}
	if f.To != "" {
		day["$lte"] = f.To
	}
	if len(day) > 0 {
		filter["day"] = day
	}
	if f.StaffID != 0 {
		filter["staffId"] = f.StaffID
	}
	if f.PublishedOnly {
		filter["published"] = true
	}
	return filter
}

func (s *mongoShifts) List(ctx context.Context, f ShiftFilter) ([]models.Shift, error) {
	sort := options.Find().SetSort(bson.D{{Key: "day", Value: 1}, {Key: "start", Value: 1}})
	cur, err := s.coll.Find(ctx, shiftFilterQuery(f), sort)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	var shifts []models.Shift
	if err := cur.All(ctx, &shifts); err != nil {
		return nil, fmt.Errorf("decode shifts: %w", err)
	}
	return shifts, nil
}

func (s *mongoShifts) Get(ctx context.Context, id string) (*models.Shift, error) {
	var shift models.Shift
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&shift); err != nil {
		return nil, translateMongoErr(err)
	}
	return &shift, nil
}

func (s *mongoShifts) Create(ctx context.Context, shift *models.Shift) error {
	_, err := s.coll.InsertOne(ctx, shift)
	return translateMongoErr(err)
}

func (s *mongoShifts) Update(ctx context.Context, shift *models.Shift) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": shift.ID}, shift)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoShifts) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoShifts) Publish(ctx context.Context, from, to string, now time.Time) ([]models.Shift, error) {
	filter := shiftFilterQuery(ShiftFilter{From: from, To: to})
	_, err := s.coll.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"published": true, "updatedAt": now},
	})
	if err != nil {
		return nil, fmt.Errorf("publish shifts: %w", err)
	}
	return s.List(ctx, ShiftFilter{From: from, To: to, PublishedOnly: true})
}
