package store

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brigade/internal/models"
)

type mongoRecipes struct {
	coll *mongo.Collection
}

func (s *mongoRecipes) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, error) {
	filter := bson.M{}
	if !f.IncludeArchived {
		filter["archived"] = false
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(f.Query),
			Options: "i",
		}}
	}

	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	var recipes []models.Recipe
	if err := cur.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return recipes, nil
}

func (s *mongoRecipes) Get(ctx context.Context, id string) (*models.Recipe, error) {
	var r models.Recipe
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		return nil, translateMongoErr(err)
	}
	return &r, nil
}

func (s *mongoRecipes) Create(ctx context.Context, r *models.Recipe) error {
	_, err := s.coll.InsertOne(ctx, r)
	return translateMongoErr(err)
}

func (s *mongoRecipes) Update(ctx context.Context, r *models.Recipe) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoRecipes) Archive(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"archived": true}})
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoRecipes) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
