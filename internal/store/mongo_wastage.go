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

type mongoWastage struct {
	coll *mongo.Collection
}

func (s *mongoWastage) Create(ctx context.Context, e *models.WastageEntry) error {
	_, err := s.coll.InsertOne(ctx, e)
	return translateMongoErr(err)
}

func (s *mongoWastage) List(ctx context.Context, f WastageFilter) ([]models.WastageEntry, error) {
	filter := bson.M{}
	recorded := bson.M{}
	if !f.From.IsZero() {
		recorded["$gte"] = f.From
	}
	if !f.To.IsZero() {
		recorded["$lte"] = f.To
	}
	if len(recorded) > 0 {
		filter["recordedAt"] = recorded
	}
	if f.Reason != "" {
		filter["reason"] = f.Reason
	}

	sort := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("list wastage: %w", err)
	}
	var entries []models.WastageEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode wastage: %w", err)
	}
	return entries, nil
}

func (s *mongoWastage) Summary(ctx context.Context, from, to time.Time) ([]models.WastageSummary, error) {
	match := bson.M{}
	if !from.IsZero() {
		match["$gte"] = from
	}
	if !to.IsZero() {
		match["$lte"] = to
	}
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"recordedAt": match}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$reason",
			"count":    bson.M{"$sum": 1},
			"quantity": bson.M{"$sum": "$quantity"},
			"cost":     bson.M{"$sum": "$costEstimate"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	)

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("wastage summary: %w", err)
	}
	var rows []models.WastageSummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode wastage summary: %w", err)
	}
	return rows, nil
}

func (s *mongoWastage) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
