// internal/chat/mongo_repository.go
package chat

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pad-games/backend/internal/models"
)

// messageDocument is the MongoDB shape of one chat message.
type messageDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	LobbyID    string             `bson:"lobby_id"`
	SenderID   string             `bson:"sender_id"`
	SenderName string             `bson:"sender_name"`
	Message    string             `bson:"message"`
	Timestamp  time.Time          `bson:"timestamp"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (doc *messageDocument) toMessage() models.ChatMessage {
	return models.ChatMessage{
		ID:         doc.ID.Hex(),
		LobbyID:    doc.LobbyID,
		SenderID:   doc.SenderID,
		SenderName: doc.SenderName,
		Message:    doc.Message,
		Timestamp:  doc.Timestamp,
	}
}

// MongoRepository implements Repository over a messages collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// ConnectMongo dials MongoDB and returns a repository over the messages
// collection of the chat database.
func ConnectMongo(ctx context.Context, uri string) (*MongoRepository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database("chatdb").Collection("messages"),
	}, nil
}

// Close disconnects the underlying client.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Save inserts one message and fills in its generated ID.
func (r *MongoRepository) Save(ctx context.Context, msg *models.ChatMessage) error {
	doc := &messageDocument{
		LobbyID:    msg.LobbyID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Message:    msg.Message,
		Timestamp:  msg.Timestamp,
		CreatedAt:  time.Now().UTC(),
	}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return nil
}

// History returns up to limit messages for a lobby in chronological order.
func (r *MongoRepository) History(ctx context.Context, lobbyID string, limit int) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"lobby_id": lobbyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	// Query newest-first for the limit, deliver oldest-first.
	messages := make([]models.ChatMessage, len(docs))
	for i, doc := range docs {
		messages[len(docs)-1-i] = doc.toMessage()
	}
	return messages, nil
}

// Clear deletes all messages for a lobby and reports how many were removed.
func (r *MongoRepository) Clear(ctx context.Context, lobbyID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"lobby_id": lobbyID})
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.DeletedCount, nil
}

// Stats aggregates message totals for a lobby.
func (r *MongoRepository) Stats(ctx context.Context, lobbyID string) (*models.ChatStats, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"lobby_id": lobbyID})
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	senders, err := r.collection.Distinct(ctx, "sender_id", bson.M{"lobby_id": lobbyID})
	if err != nil {
		return nil, fmt.Errorf("failed to count senders: %w", err)
	}

	return &models.ChatStats{
		TotalMessages: total,
		UniqueSenders: int64(len(senders)),
	}, nil
}

// Ping verifies storage reachability for the health endpoint.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}
