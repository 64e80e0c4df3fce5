package weights

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps the weights as a single document {_id: "influence_weights", <group>: {...}}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses database.collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if collection == "" {
		collection = "configs"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Name returns the backend name.
func (s *MongoStore) Name() string { return "mongo" }

// Load reads the weights document.
func (s *MongoStore) Load(ctx context.Context) (Weights, bool, error) {
	var doc bson.M
	err := s.coll.FindOne(ctx, bson.M{"_id": DocumentName}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load weights: %w", err)
	}

	w, err := fromBSON(doc)
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

// Save upserts w using dotted $set paths so untouched keys survive.
func (s *MongoStore) Save(ctx context.Context, w Weights) error {
	set := setFields(w)
	if len(set) == 0 {
		return nil
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": DocumentName},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save weights: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func setFields(w Weights) bson.M {
	set := bson.M{}
	for g, kv := range w {
		for k, v := range kv {
			set[g+"."+k] = v
		}
	}
	return set
}

func fromBSON(doc bson.M) (Weights, error) {
	w := Weights{}
	for g, raw := range doc {
		if g == "_id" {
			continue
		}
		var group bson.M
		switch doc := raw.(type) {
		case bson.M:
			group = doc
		case bson.D:
			group = doc.Map()
		default:
			return nil, fmt.Errorf("weights group %q has type %T, want document", g, raw)
		}
		inner := make(map[string]float64, len(group))
		for k, v := range group {
			f, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("weights %s.%s: %w", g, k, err)
			}
			inner[k] = f
		}
		w[g] = inner
	}
	return w, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
