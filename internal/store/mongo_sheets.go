package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brigade/internal/models"
)

type mongoSheets struct {
	coll *mongo.Collection
}

// writableBy matches a sheet whose lock does not exclude the given user:
// unlocked, locked by the user, or lock older than the TTL. Using it as a
// filter on a single update makes lock checks and the write one atomic
// step, so two users racing on the same sheet cannot both win.
func writableBy(id string, userID int64, now time.Time) bson.M {
	cutoff := now.Add(-models.LockTTL)
	return bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"lockedBy": nil},
			bson.M{"lockedBy.id": userID},
			bson.M{"lockedAt": bson.M{"$lt": cutoff}},
		},
	}
}

// classifyConflict distinguishes "sheet missing" from "sheet locked" after
// a conditional update matched nothing.
func (s *mongoSheets) classifyConflict(ctx context.Context, id string) (*models.InventorySheet, error) {
	var sheet models.InventorySheet
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sheet)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sheet, ErrLocked
}

func (s *mongoSheets) List(ctx context.Context) ([]models.InventorySheet, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	var sheets []models.InventorySheet
	if err := cur.All(ctx, &sheets); err != nil {
		return nil, fmt.Errorf("decode sheets: %w", err)
	}
	return sheets, nil
}

func (s *mongoSheets) Get(ctx context.Context, id string) (*models.InventorySheet, error) {
	var sheet models.InventorySheet
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sheet); err != nil {
		return nil, translateMongoErr(err)
	}
	return &sheet, nil
}

func (s *mongoSheets) Create(ctx context.Context, sheet *models.InventorySheet) error {
	_, err := s.coll.InsertOne(ctx, sheet)
	return translateMongoErr(err)
}

func (s *mongoSheets) ReplaceItems(ctx context.Context, id string, items []models.SheetItem, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	update := bson.M{"$set": bson.M{
		"items":     items,
		"updatedAt": now,
	}}
	return s.conditionalUpdate(ctx, writableBy(id, by.ID, now), update)
}

func (s *mongoSheets) Lock(ctx context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	update := bson.M{"$set": bson.M{
		"lockedBy":  by,
		"lockedAt":  now,
		"updatedAt": now,
	}}
	return s.conditionalUpdate(ctx, writableBy(id, by.ID, now), update)
}

func (s *mongoSheets) Unlock(ctx context.Context, id string, by models.Actor, force bool, now time.Time) (*models.InventorySheet, error) {
	filter := bson.M{"_id": id}
	if !force {
		// A non-holder releasing nothing is fine; a non-holder releasing
		// someone else's lock is not.
		filter["$or"] = bson.A{
			bson.M{"lockedBy": nil},
			bson.M{"lockedBy.id": by.ID},
		}
	}
	update := bson.M{"$set": bson.M{
		"lockedBy":  nil,
		"lockedAt":  nil,
		"updatedAt": now,
	}}
	return s.conditionalUpdate(ctx, filter, update)
}

func (s *mongoSheets) SaveDraft(ctx context.Context, id string, by models.Actor, values map[string]float64, now time.Time) error {
	draft := models.SheetDraft{Values: values, UpdatedAt: now}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"drafts." + by.DraftKey(): draft},
	})
	if err != nil {
		return translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoSheets) Submit(ctx context.Context, id string, by models.Actor, now time.Time) (*models.InventorySheet, error) {
	update := bson.M{
		"$set": bson.M{
			"status":      models.SheetSubmitted,
			"submittedBy": by,
			"submittedAt": now,
			"lockedBy":    nil,
			"lockedAt":    nil,
			"updatedAt":   now,
		},
		"$unset": bson.M{"drafts." + by.DraftKey(): ""},
	}
	return s.conditionalUpdate(ctx, writableBy(id, by.ID, now), update)
}

// conditionalUpdate runs a FindOneAndUpdate and, when the filter matched
// nothing, resolves whether the sheet is missing or lock-protected. The
// holder can release between the failed update and the follow-up read; a
// lock-free snapshot in that window triggers one retry of the update so
// the caller is not handed a conflict with no holder.
func (s *mongoSheets) conditionalUpdate(ctx context.Context, filter, update bson.M) (*models.InventorySheet, error) {
	id, _ := filter["_id"].(string)
	for attempt := 0; ; attempt++ {
		var sheet models.InventorySheet
		err := s.coll.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&sheet)
		if err == nil {
			return &sheet, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		current, cerr := s.classifyConflict(ctx, id)
		if !errors.Is(cerr, ErrLocked) {
			return current, cerr
		}
		if retryAfterConflict(current, attempt) {
			continue
		}
		return current, ErrLocked
	}
}

// retryAfterConflict reports whether a failed conditional update should be
// retried: only on the first miss, and only when the snapshot taken after
// the miss no longer shows a lock holder.
func retryAfterConflict(current *models.InventorySheet, attempt int) bool {
	return attempt == 0 && current != nil && current.LockedBy == nil
}
