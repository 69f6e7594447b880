// Package repository persists Universe aggregates to MongoDB, enforcing the
// per-universe serialization §5 requires via an optimistic version field.
package repository

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/universe"
)

// UniverseSummary is the lightweight projection returned by ListByOwner.
type UniverseSummary struct {
	ID           string              `bson:"_id" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Difficulty   universe.Difficulty `bson:"difficulty" json:"difficulty"`
	Status       universe.Status     `bson:"status" json:"status"`
	AgeGyr       float64             `bson:"ageGyr" json:"ageGyr"`
	LastModified time.Time           `bson:"lastModified" json:"lastModified"`
}

// UniverseRepository is the MongoDB-backed persistence layer for Universe
// aggregates.
type UniverseRepository struct {
	collection *mongo.Collection
}

// NewUniverseRepository builds a UniverseRepository over db's "universes"
// collection.
func NewUniverseRepository(db *mongo.Database) *UniverseRepository {
	return &UniverseRepository{collection: db.Collection("universes")}
}

// EnsureIndexes creates the ownerId and status indexes that ListByOwner and
// ListRunning rely on.
func (r *UniverseRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("universeRepository.EnsureIndexes: %w", err)
	}
	return nil
}

// Create inserts a brand-new universe.
func (r *UniverseRepository) Create(ctx context.Context, u *universe.Universe) error {
	_, err := r.collection.InsertOne(ctx, u)
	if err != nil {
		return errors.Persistence("failed to create universe", err)
	}
	return nil
}

// Get loads a universe by id.
func (r *UniverseRepository) Get(ctx context.Context, id string) (*universe.Universe, error) {
	var u universe.Universe
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrUniverseNotFound
	}
	if err != nil {
		return nil, errors.Persistence("failed to load universe", err)
	}
	return &u, nil
}

// ListByOwner returns the summary projection for every universe owned by
// ownerID.
func (r *UniverseRepository) ListByOwner(ctx context.Context, ownerID string) ([]UniverseSummary, error) {
	projection := bson.M{"name": 1, "difficulty": 1, "status": 1, "currentState.age": 1, "lastModified": 1}
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, errors.Persistence("failed to list universes", err)
	}
	defer cursor.Close(ctx)

	type row struct {
		ID           string              `bson:"_id"`
		Name         string              `bson:"name"`
		Difficulty   universe.Difficulty `bson:"difficulty"`
		Status       universe.Status     `bson:"status"`
		CurrentState struct {
			Age float64 `bson:"age"`
		} `bson:"currentState"`
		LastModified time.Time `bson:"lastModified"`
	}

	var rows []row
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Persistence("failed to decode universes", err)
	}

	summaries := make([]UniverseSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, UniverseSummary{
			ID:           r.ID,
			Name:         r.Name,
			Difficulty:   r.Difficulty,
			Status:       r.Status,
			AgeGyr:       r.CurrentState.Age / 1e9,
			LastModified: r.LastModified,
		})
	}
	return summaries, nil
}

// ListRunning returns every universe currently in running status, for the
// periodic anomaly-cleanup and civilization-culling sweep.
func (r *UniverseRepository) ListRunning(ctx context.Context) ([]*universe.Universe, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": universe.StatusRunning})
	if err != nil {
		return nil, errors.Persistence("failed to list running universes", err)
	}
	defer cursor.Close(ctx)

	var docs []*universe.Universe
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Persistence("failed to decode running universes", err)
	}
	return docs, nil
}

// Delete removes a universe by id.
func (r *UniverseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Persistence("failed to delete universe", err)
	}
	if res.DeletedCount == 0 {
		return errors.ErrUniverseNotFound
	}
	return nil
}

// Save persists u via optimistic concurrency: the write only succeeds if the
// stored document's version still matches the version u was loaded at. The
// caller's u.Version is bumped and written as part of the same update.
// ErrWriteConflict is returned on a version mismatch; per §7, the caller
// retries once by reloading and re-applying before surfacing failure.
func (r *UniverseRepository) Save(ctx context.Context, u *universe.Universe) error {
	expectedVersion := u.Version
	u.Version++
	u.LastModified = time.Now()

	filter := bson.M{"_id": u.ID, "version": expectedVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, u)
	if err != nil {
		u.Version--
		return errors.Persistence("failed to save universe", err)
	}
	if result.MatchedCount == 0 {
		u.Version--
		return errors.ErrWriteConflict
	}
	return nil
}

// SaveWithRetry calls Save, and on a single ErrWriteConflict reloads the
// universe, re-applies mutate, and retries the save exactly once: §7's
// "retry once internally on conflict" persistence rule.
func (r *UniverseRepository) SaveWithRetry(ctx context.Context, u **universe.Universe, mutate func(*universe.Universe) error) error {
	if err := mutate(*u); err != nil {
		return err
	}
	err := r.Save(ctx, *u)
	if err == nil {
		return nil
	}
	if !stdErrors.Is(err, errors.ErrWriteConflict) {
		return err
	}

	fresh, loadErr := r.Get(ctx, (*u).ID)
	if loadErr != nil {
		return loadErr
	}
	*u = fresh
	if err := mutate(*u); err != nil {
		return err
	}
	return r.Save(ctx, *u)
}
