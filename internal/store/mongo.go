package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/frigidsec/ctfadmin/internal/logger"
)

// mongoChallenge is the document layout shared with the competition platform.
type mongoChallenge struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ChallengeName string             `bson:"challengeName"`
	FlagHash      string             `bson:"flagHash"`
}

func (d mongoChallenge) toChallenge() Challenge {
	return Challenge{
		ID:       d.ID.Hex(),
		Name:     d.ChallengeName,
		FlagHash: d.FlagHash,
	}
}

// MongoStore keeps challenges in a single MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the primary is reachable.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("no MongoDB URI configured: pass --mongo-uri or run 'ctfadmin configure'")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrap("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, wrap("ping", err)
	}

	logger.Debug("Connected to MongoDB, using %s.%s", database, collection)
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// NewMongoStore wraps an existing collection. Close does not disconnect the
// collection's client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func mongoFilter(f Filter) (bson.M, error) {
	var clauses []bson.M
	if f.Name != "" {
		clauses = append(clauses, bson.M{"challengeName": f.Name})
	}
	if f.FlagHash != "" {
		clauses = append(clauses, bson.M{"flagHash": f.FlagHash})
	}
	switch len(clauses) {
	case 0:
		return nil, ErrEmptyFilter
	case 1:
		return clauses[0], nil
	}
	return bson.M{"$or": clauses}, nil
}

func (s *MongoStore) Exists(ctx context.Context, f Filter) (bool, error) {
	filter, err := mongoFilter(f)
	if err != nil {
		return false, wrap("exists", err)
	}

	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err = s.coll.FindOne(ctx, filter, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Debug("exists(%s): false", f)
		return false, nil
	}
	if err != nil {
		return false, wrap("exists", err)
	}
	logger.Debug("exists(%s): true", f)
	return true, nil
}

func (s *MongoStore) FindOne(ctx context.Context, f Filter) (*Challenge, error) {
	filter, err := mongoFilter(f)
	if err != nil {
		return nil, wrap("find one", err)
	}

	var doc mongoChallenge
	err = s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("find one", err)
	}
	c := doc.toChallenge()
	return &c, nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]Challenge, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, wrap("find all", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoChallenge
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap("find all", err)
	}

	challenges := make([]Challenge, 0, len(docs))
	for _, d := range docs {
		challenges = append(challenges, d.toChallenge())
	}
	logger.Debug("find all: %d challenges", len(challenges))
	return challenges, nil
}

func (s *MongoStore) Insert(ctx context.Context, c *Challenge) (string, error) {
	doc := mongoChallenge{
		ChallengeName: c.Name,
		FlagHash:      c.FlagHash,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", wrap("insert", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", wrap("insert", fmt.Errorf("unexpected inserted id type %T", res.InsertedID))
	}
	c.ID = id.Hex()
	logger.Debug("inserted challenge %q with id %s", c.Name, c.ID)
	return c.ID, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	filter, err := mongoFilter(f)
	if err != nil {
		return 0, wrap("delete", err)
	}

	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, wrap("delete", err)
	}
	logger.Debug("delete(%s): %d removed", f, res.DeletedCount)
	return res.DeletedCount, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
