package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names are fixed; tenancy is expressed through the database.
const (
	collRecipes = "recipes"
	collSheets  = "inventory_sheets"
	collShifts  = "staff_shifts"
	collWastage = "wastage_entries"
	collUsers   = "users"
)

// Connect dials Mongo and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on top of one tenant's database.
type MongoStore struct {
	db *mongo.Database
}

// NewMongo returns a Store scoped to the named tenant database.
func NewMongo(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{db: client.Database(database)}
}

func (m *MongoStore) Recipes() RecipeStore  { return &mongoRecipes{coll: m.db.Collection(collRecipes)} }
func (m *MongoStore) Sheets() SheetStore    { return &mongoSheets{coll: m.db.Collection(collSheets)} }
func (m *MongoStore) Shifts() ShiftStore    { return &mongoShifts{coll: m.db.Collection(collShifts)} }
func (m *MongoStore) Wastage() WastageStore { return &mongoWastage{coll: m.db.Collection(collWastage)} }
func (m *MongoStore) Users() UserStore      { return &mongoUsers{coll: m.db.Collection(collUsers)} }

// EnsureIndexes creates the secondary indexes the query paths rely on.
// Safe to call on every startup.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collRecipes: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
		collShifts: {
			{Keys: bson.D{{Key: "day", Value: 1}}},
			{Keys: bson.D{{Key: "staffId", Value: 1}, {Key: "day", Value: 1}}},
		},
		collWastage: {
			{Keys: bson.D{{Key: "recordedAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// translateMongoErr maps driver errors onto the store sentinels.
func translateMongoErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
