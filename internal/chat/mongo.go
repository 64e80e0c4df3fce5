package chat

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by MongoHistory.
const (
	HistoryCollection  = "chat_history"
	FeedbackCollection = "ai_feedback"
)

// MongoHistory keeps the chat in the chat_history and ai_feedback collections.
type MongoHistory struct {
	client   *mongo.Client
	history  *mongo.Collection
	feedback *mongo.Collection
}

// NewMongoHistory connects to uri and uses database.
func NewMongoHistory(ctx context.Context, uri, database string) (*MongoHistory, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	return &MongoHistory{
		client:   client,
		history:  db.Collection(HistoryCollection),
		feedback: db.Collection(FeedbackCollection),
	}, nil
}

// Name returns the backend name.
func (h *MongoHistory) Name() string { return "mongo" }

// Append implements History.
func (h *MongoHistory) Append(ctx context.Context, e Entry) error {
	if _, err := h.history.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("failed to save chat entry: %w", err)
	}
	return nil
}

// List implements History.
func (h *MongoHistory) List(ctx context.Context, session string, limit int) ([]Entry, error) {
	opts := listOptions(limit)
	cur, err := h.history.Find(ctx, bson.M{"session": session}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}
	reverse(out)
	return out, nil
}

// AddFeedback implements History.
func (h *MongoHistory) AddFeedback(ctx context.Context, f Feedback) error {
	if _, err := h.feedback.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (h *MongoHistory) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

// listOptions sorts newest first so the limit keeps the latest entries.
func listOptions(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
