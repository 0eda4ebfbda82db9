package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

type mongoRepository struct {
	selections  *mongo.Collection
	submissions *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) SelectionRepository {
	return &mongoRepository{
		selections:  db.Collection("selections"),
		submissions: db.Collection("submissions"),
	}
}

func (m *mongoRepository) GetSelection(ctx context.Context, userID string) (*domain.Selection, error) {
	var sel domain.Selection

	filter := bson.M{"user_id": userID}
	err := m.selections.FindOne(ctx, filter).Decode(&sel)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}

	return &sel, nil
}

// UpsertSelection fully replaces the user's item and label collections.
// Creates the document if absent.
func (m *mongoRepository) UpsertSelection(ctx context.Context, sel *domain.Selection) error {
	now := time.Now()
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = now
	}
	sel.UpdatedAt = now

	filter := bson.M{"user_id": sel.UserID}
	update := bson.M{"$set": bson.M{
		"user_id":    sel.UserID,
		"items":      sel.Items,
		"labels":     sel.Labels,
		"updated_at": sel.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"created_at": sel.CreatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := m.selections.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert selection: %w", err)
	}

	return nil
}

func (m *mongoRepository) DeleteSelection(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.selections.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrSelectionNotFound
	}

	return nil
}

func (m *mongoRepository) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	_, err := m.submissions.InsertOne(ctx, sub)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (m *mongoRepository) ListSubmissions(ctx context.Context, userID string) ([]domain.Submission, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

	cursor, err := m.submissions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []domain.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	return subs, nil
}

// EnsureIndexes creates the indexes the repository relies on. One document
// per user is enforced here, not in application code.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("selections").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create selection indexes: %w", err)
	}

	_, err = db.Collection("submissions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create submission indexes: %w", err)
	}

	return nil
}
