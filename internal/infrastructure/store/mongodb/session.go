package mongodb

import (
	"context"
	"encoding/json"
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

// sessionDoc stores the plan response as JSON so legend and metric order
// survive the round trip.
type sessionDoc struct {
	entity.PlanSession `bson:",inline"`
	ResponseJSON       string `bson:"response_json"`
}

func toDoc(s *entity.PlanSession) (sessionDoc, error) {
	doc := sessionDoc{PlanSession: *s}
	doc.Response = nil
	if s.Response != nil {
		data, err := json.Marshal(s.Response)
		if err != nil {
			return sessionDoc{}, fmt.Errorf("marshal plan response: %w", err)
		}
		doc.ResponseJSON = string(data)
	}
	return doc, nil
}

func (d sessionDoc) session() (*entity.PlanSession, error) {
	s := d.PlanSession
	if d.ResponseJSON != "" {
		var resp entity.CityPlanResponse
		if err := json.Unmarshal([]byte(d.ResponseJSON), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal plan response: %w", err)
		}
		s.Response = &resp
	}
	return &s, nil
}

type MongoSessionRepo struct {
	col    *mongo.Collection
	logger *slog.Logger
	now    func() time.Time
}

// NewMongoSessionRepo relies on a TTL index on expires_at; Mongo removes
// expired documents on its own schedule, so reads also check expiry.
func NewMongoSessionRepo(ctx context.Context, db *mongo.Database, logger *slog.Logger) (*MongoSessionRepo, error) {
	col := db.Collection("plan_sessions")

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "client_id", Value: 1}, bson.E{Key: "created_at", Value: -1}}},
		{Keys: bson.D{bson.E{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return nil, fmt.Errorf("create session indexes: %w", err)
	}

	return &MongoSessionRepo{col: col, logger: logger, now: time.Now}, nil
}

var _ repository.SessionRepository = (*MongoSessionRepo)(nil)

func (r *MongoSessionRepo) liveFilter(extra bson.M) bson.M {
	f := bson.M{"expires_at": bson.M{"$gt": r.now().UTC()}}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

func (r *MongoSessionRepo) Save(ctx context.Context, s *entity.PlanSession) error {
	metrics.IncStoreOp("mongo", "put")

	doc, err := toDoc(s)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"id": s.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		metrics.IncError("mongo_session_repo", "save_error")
		return err
	}
	return nil
}

func (r *MongoSessionRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*entity.PlanSession, error) {
	var doc sessionDoc
	err := r.col.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrSessionNotFound
		}
		metrics.IncError("mongo_session_repo", "get_error")
		return nil, err
	}
	return doc.session()
}

func (r *MongoSessionRepo) Get(ctx context.Context, id string) (*entity.PlanSession, error) {
	metrics.IncStoreOp("mongo", "get")
	return r.findOne(ctx, r.liveFilter(bson.M{"id": id}))
}

func (r *MongoSessionRepo) Latest(ctx context.Context, clientID string) (*entity.PlanSession, error) {
	metrics.IncStoreOp("mongo", "get")
	opts := options.FindOne().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	return r.findOne(ctx, r.liveFilter(bson.M{"client_id": clientID}), opts)
}

func (r *MongoSessionRepo) List(ctx context.Context) ([]*entity.PlanSession, error) {
	metrics.IncStoreOp("mongo", "list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, r.liveFilter(nil), opts)
	if err != nil {
		metrics.IncError("mongo_session_repo", "list_error")
		return nil, err
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			r.logger.Warn("close cursor", "err", err)
		}
	}()

	var sessions []*entity.PlanSession
	for cur.Next(ctx) {
		var doc sessionDoc
		if err := cur.Decode(&doc); err != nil {
			metrics.IncError("mongo_session_repo", "list_decode_error")
			return nil, err
		}
		s, err := doc.session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_session_repo", "list_cursor_error")
		return nil, err
	}
	return sessions, nil
}

func (r *MongoSessionRepo) Delete(ctx context.Context, id string) error {
	metrics.IncStoreOp("mongo", "delete")

	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_session_repo", "delete_error")
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes what the TTL monitor has not reached yet.
func (r *MongoSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	metrics.IncStoreOp("mongo", "purge")

	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		metrics.IncError("mongo_session_repo", "purge_error")
		return 0, err
	}
	return int(res.DeletedCount), nil
}
