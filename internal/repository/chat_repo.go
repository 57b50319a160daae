package repository

import (
	"context"
	"fmt"

	"aklny/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatCollectionName = "chat_messages"

// ChatRepository stores chat room history.
type ChatRepository interface {
	Save(ctx context.Context, msg *model.ChatMessage) error
	History(ctx context.Context, room string, limit int) ([]model.ChatMessage, error)
	MarkRead(ctx context.Context, room, readerID, senderID string) (int64, error)
}

type chatRepository struct {
	coll *mongo.Collection
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{coll: db.Collection(chatCollectionName)}
}

// EnsureChatIndexes creates the room timeline index.
func EnsureChatIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(chatCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}
	return nil
}

func (r *chatRepository) Save(ctx context.Context, msg *model.ChatMessage) error {
	res, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return nil
}

// History returns the latest limit messages of room, oldest first.
func (r *chatRepository) History(ctx context.Context, room string, limit int) ([]model.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"room": room}, opts)
	if err != nil {
		return nil, fmt.Errorf("find chat history: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]model.ChatMessage, 0, limit)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flags the unread messages addressed to readerID in room. An empty
// senderID marks messages from every sender.
func (r *chatRepository) MarkRead(ctx context.Context, room, readerID, senderID string) (int64, error) {
	filter := bson.M{"room": room, "recipientId": readerID, "isRead": false}
	if senderID != "" {
		filter["senderId"] = senderID
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return res.ModifiedCount, nil
}
