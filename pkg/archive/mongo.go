package archive

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/cyclesolver/pkg/errors"
)

const defaultCollection = "solves"

// MongoStore is a MongoDB-backed archive.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the solve collection.
// A unique index on (puzzle_id, target_key) backs the replace-on-save
// semantics.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "pinging mongodb")
	}

	coll := client.Database(database).Collection(defaultCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "puzzle_id", Value: 1}, {Key: "target_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "creating archive index")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Find retrieves a record, or nil when absent.
func (s *MongoStore) Find(ctx context.Context, puzzleID, targetKey string) (*Record, error) {
	filter := bson.M{"puzzle_id": puzzleID, "target_key": targetKey}
	var rec Record
	err := s.coll.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "reading archive record")
	}
	return &rec, nil
}

// Save upserts a record keyed by its puzzle/target pair.
func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	stamp(rec)
	filter := bson.M{"puzzle_id": rec.PuzzleID, "target_key": rec.TargetKey}
	_, err := s.coll.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "writing archive record")
	}
	return nil
}

// List returns up to limit records for a puzzle, newest first.
func (s *MongoStore) List(ctx context.Context, puzzleID string, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{"puzzle_id": puzzleID}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "listing archive records")
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decoding archive records")
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "disconnecting from mongodb")
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
