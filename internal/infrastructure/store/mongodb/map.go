package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

type mapDoc struct {
	SessionID string    `bson:"session_id"`
	FileName  string    `bson:"file_name"`
	Width     int       `bson:"width"`
	Height    int       `bson:"height"`
	CellSize  int       `bson:"cell_size"`
	PNG       []byte    `bson:"png"`
	CreatedAt time.Time `bson:"created_at"`
}

func toMapDoc(m repository.StoredMap, png []byte, now time.Time) mapDoc {
	return mapDoc{
		SessionID: m.SessionID,
		FileName:  m.FileName,
		Width:     m.Width,
		Height:    m.Height,
		CellSize:  m.CellSize,
		PNG:       png,
		CreatedAt: now.UTC(),
	}
}

func (d mapDoc) stored() repository.StoredMap {
	return repository.StoredMap{
		SessionID: d.SessionID,
		FileName:  d.FileName,
		Path:      mapPath(d.SessionID),
		Width:     d.Width,
		Height:    d.Height,
		CellSize:  d.CellSize,
	}
}

func mapPath(sessionID string) string {
	return "mongodb://plan_maps/" + sessionID
}

// MongoMapRepo keeps rendered maps next to their sessions. Maps are small
// (at most 600px square) so they fit a single document.
type MongoMapRepo struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewMongoMapRepo(ctx context.Context, db *mongo.Database, ttl time.Duration, logger *slog.Logger) (*MongoMapRepo, error) {
	col := db.Collection("plan_maps")

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "created_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds()))},
	})
	if err != nil {
		return nil, fmt.Errorf("create map indexes: %w", err)
	}
	return &MongoMapRepo{col: col, logger: logger}, nil
}

var _ repository.MapStore = (*MongoMapRepo)(nil)

func (r *MongoMapRepo) SaveMap(ctx context.Context, m repository.StoredMap, png []byte) (repository.StoredMap, error) {
	metrics.IncStoreOp("mongo", "put")

	doc := toMapDoc(m, png, time.Now())
	_, err := r.col.ReplaceOne(ctx, bson.M{"session_id": m.SessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		metrics.IncError("mongo_map_repo", "save_error")
		return repository.StoredMap{}, err
	}
	return doc.stored(), nil
}

func (r *MongoMapRepo) GetMap(ctx context.Context, sessionID string) (repository.StoredMap, []byte, error) {
	metrics.IncStoreOp("mongo", "get")

	var doc mapDoc
	if err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.StoredMap{}, nil, entity.ErrSessionNotFound
		}
		metrics.IncError("mongo_map_repo", "get_error")
		return repository.StoredMap{}, nil, err
	}
	return doc.stored(), doc.PNG, nil
}

func (r *MongoMapRepo) ListSessions(ctx context.Context) ([]string, error) {
	metrics.IncStoreOp("mongo", "list")

	ids, err := r.col.Distinct(ctx, "session_id", bson.D{})
	if err != nil {
		metrics.IncError("mongo_map_repo", "list_error")
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := id.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MongoMapRepo) DeleteSession(ctx context.Context, sessionID string) error {
	metrics.IncStoreOp("mongo", "delete")

	if _, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		metrics.IncError("mongo_map_repo", "delete_error")
		return err
	}
	return nil
}
