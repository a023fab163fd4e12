package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

const punishmentsCollection = "punishments"

// PunishmentStore persiste los castigos activos en la colección
// "punishments", keyed by (guildId, userId, action). At most one document per
// key; Upsert keeps it that way.
type PunishmentStore struct {
	db *Database
}

// NewPunishmentStore creates a PunishmentStore backed by db.
func NewPunishmentStore(db *Database) *PunishmentStore {
	return &PunishmentStore{db: db}
}

func (s *PunishmentStore) collection() (*mongo.Collection, error) {
	if !s.db.Connected() {
		return nil, ErrNotConnected
	}
	col := s.db.GetCollection(punishmentsCollection)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

func punishmentKey(guildID, userID string, action models.Action) bson.M {
	return bson.M{"guildId": guildID, "userId": userID, "action": action}
}

// Upsert writes the punishment, replacing any previous document for its key.
func (s *PunishmentStore) Upsert(ctx context.Context, p *models.Punishment) error {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"count": p.Count, "expiresAt": p.ExpiresAt}}
	opts := options.Update().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, punishmentKey(p.GuildID, p.UserID, p.Action), update, opts); err != nil {
		return fmt.Errorf("upsert punishment: %w", err)
	}
	return nil
}

// Get returns the active punishment for the key, or nil when none exists.
func (s *PunishmentStore) Get(ctx context.Context, guildID, userID string, action models.Action) (*models.Punishment, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	var p models.Punishment
	err = col.FindOne(ctx, punishmentKey(guildID, userID, action)).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find punishment: %w", err)
	}
	return &p, nil
}

// ListWithExpiry returns every punishment that carries an expiry, across all
// guilds. Permanent punishments (null expiresAt) are excluded; they hold no
// timer and live until explicitly cleared.
func (s *PunishmentStore) ListWithExpiry(ctx context.Context) ([]models.Punishment, error) {
	return s.list(ctx, bson.M{"expiresAt": bson.M{"$ne": nil}})
}

// ListAll returns every punishment row across all guilds, permanent bans
// included.
func (s *PunishmentStore) ListAll(ctx context.Context) ([]models.Punishment, error) {
	return s.list(ctx, bson.M{})
}

func (s *PunishmentStore) list(ctx context.Context, filter bson.M) ([]models.Punishment, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list punishments: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var punishments []models.Punishment
	if err := cursor.All(ctx, &punishments); err != nil {
		return nil, fmt.Errorf("decode punishments: %w", err)
	}
	return punishments, nil
}

// Delete removes the punishment for the key. Deleting a missing key is not
// an error.
func (s *PunishmentStore) Delete(ctx context.Context, guildID, userID string, action models.Action) error {
	ctx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()

	col, err := s.collection()
	if err != nil {
		return err
	}

	if _, err := col.DeleteOne(ctx, punishmentKey(guildID, userID, action)); err != nil {
		return fmt.Errorf("delete punishment: %w", err)
	}
	return nil
}
