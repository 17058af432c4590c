// internal/app/store/counters/counterstore.go
package counterstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store hands out monotonically increasing sequence numbers per key.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

type counter struct {
	Key string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Next atomically increments key's counter and returns the new value. The
// first call for a key returns 1.
func (s *Store) Next(ctx context.Context, key string) (int64, error) {
	var out counter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, err
	}
	return out.Seq, nil
}

// Peek returns key's current value without incrementing (0 if unused).
func (s *Store) Peek(ctx context.Context, key string) (int64, error) {
	var out counter
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return out.Seq, nil
}
