package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

const (
	warningsCollection = "warnings"
	countersCollection = "counters"
	storeOpTimeout     = 5 * time.Second
)

// WarningStore persiste el historial de advertencias en la colección
// "warnings". IDs are allocated from an atomic counter document, so they stay
// monotonic across the whole collection and "most recent" is unambiguous.
type WarningStore struct {
	db *Database
}

// NewWarningStore creates a WarningStore backed by db.
func NewWarningStore(db *Database) *WarningStore {
	return &WarningStore{db: db}
}

func (s *WarningStore) collection() (*mongo.Collection, error) {
	if !s.db.Connected() {
		return nil, ErrNotConnected
	}
	col := s.db.GetCollection(warningsCollection)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

// nextID atomically increments and returns the warnings sequence.
func (s *WarningStore) nextID(ctx context.Context) (int64, error) {
	if !s.db.Connected() {
		return 0, ErrNotConnected
	}
	col := s.db.GetCollection(countersCollection)
	if col == nil {
		return 0, ErrNotConnected
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": warningsCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next warning id: %w", err)
	}
	return counter.Seq, nil
}

// Insert appends a warning and fills in its allocated ID.
func (s *WarningStore) Insert(ctx context.Context, w *models.Warning) error {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return err
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	w.ID = id

	if _, err := col.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}

// CountFor returns the number of warnings recorded for the pair.
func (s *WarningStore) CountFor(ctx context.Context, guildID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return 0, err
	}

	n, err := col.CountDocuments(ctx, bson.M{"guildId": guildID, "userId": userID})
	if err != nil {
		return 0, fmt.Errorf("count warnings: %w", err)
	}
	return int(n), nil
}

// ListFor returns the pair's warnings in insertion order.
func (s *WarningStore) ListFor(ctx context.Context, guildID, userID string) ([]models.Warning, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{"guildId": guildID, "userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var warnings []models.Warning
	if err := cursor.All(ctx, &warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return warnings, nil
}

// MostRecentFor returns the warning with the highest ID for the pair, or nil
// when the pair has none.
func (s *WarningStore) MostRecentFor(ctx context.Context, guildID, userID string) (*models.Warning, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})
	var w models.Warning
	err = col.FindOne(ctx, bson.M{"guildId": guildID, "userId": userID}, opts).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest warning: %w", err)
	}
	return &w, nil
}

// DeleteByID removes a single warning.
func (s *WarningStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return err
	}

	if _, err := col.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("delete warning: %w", err)
	}
	return nil
}

// DeleteAllFor removes every warning for the pair and returns how many.
func (s *WarningStore) DeleteAllFor(ctx context.Context, guildID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return 0, err
	}

	res, err := col.DeleteMany(ctx, bson.M{"guildId": guildID, "userId": userID})
	if err != nil {
		return 0, fmt.Errorf("clear warnings: %w", err)
	}
	return res.DeletedCount, nil
}
