package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicfix/complaint-api/models"
)

const messageName = "messages"

// MessageDatabase is the durable, append-only store for per-complaint chat
// messages. Inserts are independent; the bulk mark-seen update is scoped by
// complaint+recipient+unseen so concurrent callers touch disjoint sets.
type MessageDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error)
	FindWithUsers(ctx context.Context, complaintID interface{}) ([]models.MessageDetails, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, message models.Message) (InsertOneResultHelper, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error) {
	var messages []models.Message
	curr, err := m.db.Collection(messageName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindWithUsers returns the chat history for a complaint with sender and
// recipient identities populated, ordered by creation time ascending with the
// insert-assigned _id breaking ties.
func (m *messageDatabase) FindWithUsers(ctx context.Context, complaintID interface{}) ([]models.MessageDetails, error) {
	userFields := bson.M{"_id": 1, "fullName": 1, "email": 1, "isAdmin": 1}
	pipeline := []bson.M{
		{"$match": bson.M{"complaintId": complaintID}},
		{"$sort": bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   "fromUser",
			"foreignField": "_id",
			"as":           "fromUser",
			"pipeline":     []bson.M{{"$project": userFields}},
		}},
		{"$unwind": bson.M{"path": "$fromUser", "preserveNullAndEmptyArrays": true}},
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   "toUser",
			"foreignField": "_id",
			"as":           "toUser",
			"pipeline":     []bson.M{{"$project": userFields}},
		}},
		{"$unwind": bson.M{"path": "$toUser", "preserveNullAndEmptyArrays": true}},
	}

	curr, err := m.db.Collection(messageName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var messages []models.MessageDetails
	err = curr.All(ctx, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *messageDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(messageName).CountDocuments(ctx, filter, opts...)
}

func (m *messageDatabase) InsertOne(ctx context.Context, message models.Message) (InsertOneResultHelper, error) {
	return m.db.Collection(messageName).InsertOne(ctx, message)
}

func (m *messageDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(messageName).UpdateMany(ctx, filter, update, opts...)
}

func (m *messageDatabase) Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error) {
	return m.db.Collection(messageName).Distinct(ctx, fieldName, filter)
}
