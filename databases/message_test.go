package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/databases/mocks"
	"github.com/civicfix/complaint-api/models"
)

func TestNewMessageDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	messageDB := databases.NewMessageDatabase(db)

	assert.NotEmpty(t, messageDB)
}

func TestMessageDatabase_Find(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	msgID := primitive.NewObjectID()

	cursorHelper.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Message)
		(*arg) = []models.Message{{ID: msgID, Message: "mocked-message"}}
	})
	cursorHelper.(*mocks.CursorHelper).
		On("Close", context.Background()).
		Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	messages, err := messageDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, messages)
	assert.EqualError(t, err, "mocked-error")

	messages, err = messageDba.Find(context.Background(), bson.M{"error": false})

	assert.Equal(t, []models.Message{{ID: msgID, Message: "mocked-message"}}, messages)
	assert.NoError(t, err)
}

func TestMessageDatabase_FindWithUsers(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	complaintID := primitive.NewObjectID()
	msgID := primitive.NewObjectID()

	cursorHelper.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.MessageDetails)
		(*arg) = []models.MessageDetails{{
			ID:          msgID,
			ComplaintID: complaintID,
			FromUser:    models.UserRef{FullName: "Asha Rao"},
			Message:     "mocked-message",
		}}
	})
	cursorHelper.(*mocks.CursorHelper).
		On("Close", context.Background()).
		Return(nil)

	var gotPipeline []bson.M
	collectionHelper.(*mocks.CollectionHelper).
		On("Aggregate", context.Background(), mock.Anything).
		Return(cursorHelper, nil).Run(func(args mock.Arguments) {
		gotPipeline = args.Get(1).([]bson.M)
	})

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	messages, err := messageDba.FindWithUsers(context.Background(), complaintID)

	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, "Asha Rao", messages[0].FromUser.FullName)

	// history must be scoped to the complaint and sorted oldest first with
	// _id breaking createdAt ties
	assert.Equal(t, bson.M{"$match": bson.M{"complaintId": complaintID}}, gotPipeline[0])
	assert.Equal(t, bson.M{"$sort": bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}, gotPipeline[1])
}

func TestMessageDatabase_FindWithUsersAggregateError(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("Aggregate", context.Background(), mock.Anything).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	messages, err := messageDba.FindWithUsers(context.Background(), primitive.NewObjectID())

	assert.Empty(t, messages)
	assert.EqualError(t, err, "mocked-error")
}

func TestMessageDatabase_UpdateMany(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	filter := bson.M{"complaintId": primitive.NewObjectID(), "hasSeen": false}
	update := bson.M{"$set": bson.M{"hasSeen": true}}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateMany", context.Background(), filter, update).
		Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	res, err := messageDba.UpdateMany(context.Background(), filter, update)

	assert.NoError(t, err)
	assert.EqualValues(t, 3, res.ModifiedCount)
}

func TestMessageDatabase_Distinct(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	complaintID := primitive.NewObjectID()

	collectionHelper.(*mocks.CollectionHelper).
		On("Distinct", context.Background(), "complaintId", bson.M{}).
		Return([]interface{}{complaintID}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	ids, err := messageDba.Distinct(context.Background(), "complaintId", bson.M{})

	assert.NoError(t, err)
	assert.Equal(t, []interface{}{complaintID}, ids)
}

func TestMessageDatabase_InsertOne(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	msg := models.Message{ID: primitive.NewObjectID(), Message: "mocked-message"}

	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", context.Background(), msg).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "messages").Return(collectionHelper)

	messageDba := databases.NewMessageDatabase(dbHelper)

	_, err := messageDba.InsertOne(context.Background(), msg)

	assert.EqualError(t, err, "mocked-error")
}
