// Package mongo provides a [store.Store] backed by MongoDB.
//
// Each version is one document in a collection with a unique index on
// (planogram_id, version). Put checks the latest version and inserts the next
// one; if another writer inserts the same version first, the unique index
// rejects the insert and Put reports [store.ErrConflict].
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shelfworks/planogram/pkg/store"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultDatabase   = "planogram"
	DefaultCollection = "planogram_versions"
)

// Config selects the MongoDB deployment and namespace.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// record is the stored form of one version.
type record struct {
	PlanogramID string    `bson:"planogram_id"`
	Version     int       `bson:"version"`
	Data        []byte    `bson:"data"`
	Size        int       `bson:"size"`
	SavedAt     time.Time `bson:"saved_at"`
}

// Store is a MongoDB-backed versioned document store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Open connects to MongoDB, verifies connectivity and ensures the unique
// version index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "planogram_id", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("planogram_version_unique"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create version index: %w", err)
	}
	return &Store{client: client, coll: coll, now: time.Now}, nil
}

func (s *Store) latest(ctx context.Context, id string, projection bson.M) (record, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	if projection != nil {
		opts.SetProjection(projection)
	}
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"planogram_id": id}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return record{}, store.ErrNotFound
	}
	if err != nil {
		return record{}, classify("find latest", err)
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	rec, err := s.latest(ctx, id, nil)
	if err != nil {
		return store.Document{}, err
	}
	return rec.document(), nil
}

func (s *Store) GetVersion(ctx context.Context, id string, version int) (store.Document, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"planogram_id": id, "version": version}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, classify("find version", err)
	}
	return rec.document(), nil
}

func (s *Store) Versions(ctx context.Context, id string) ([]store.VersionInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "version", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{"planogram_id": id}, opts)
	if err != nil {
		return nil, classify("list versions", err)
	}
	defer cur.Close(ctx)

	var out []store.VersionInfo
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode version: %w", err)
		}
		out = append(out, store.VersionInfo{Version: rec.Version, SavedAt: rec.SavedAt, Size: rec.Size})
	}
	if err := cur.Err(); err != nil {
		return nil, classify("list versions", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := store.ValidateID(id); err != nil {
		return 0, err
	}

	current := 0
	rec, err := s.latest(ctx, id, bson.M{"version": 1})
	switch {
	case err == nil:
		current = rec.Version
	case !errors.Is(err, store.ErrNotFound):
		return 0, err
	}
	if current != expectedVersion {
		return 0, store.ErrConflict
	}

	next := expectedVersion + 1
	_, err = s.coll.InsertOne(ctx, record{
		PlanogramID: id,
		Version:     next,
		Data:        data,
		Size:        len(data),
		SavedAt:     s.now().UTC().Truncate(time.Millisecond),
	})
	if mongo.IsDuplicateKeyError(err) {
		return 0, store.ErrConflict
	}
	if err != nil {
		return 0, classify("insert version", err)
	}
	return next, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (r record) document() store.Document {
	return store.Document{ID: r.PlanogramID, Version: r.Version, Data: r.Data, SavedAt: r.SavedAt.UTC()}
}

// classify wraps err, marking network failures as retryable.
func classify(op string, err error) error {
	if mongo.IsNetworkError(err) {
		return store.Retryable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ store.Store = (*Store)(nil)
