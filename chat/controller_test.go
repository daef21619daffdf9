package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicfix/complaint-api/databases/mocks"
	"github.com/civicfix/complaint-api/models"
)

func testSession() Session {
	return Session{
		UserID:   primitive.NewObjectID(),
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		IsAdmin:  false,
	}
}

func TestController_SendMessagePersistsThenBroadcasts(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	admin := &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Ward Officer",
		Email:    "officer@example.com",
		IsAdmin:  true,
	}

	sender, peer, outsider := &fakeClient{}, &fakeClient{}, &fakeClient{}
	hub.Join(complaintID.Hex(), sender)
	hub.Join(complaintID.Hex(), peer)
	hub.Join(primitive.NewObjectID().Hex(), outsider)

	var stored models.Message
	mdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(models.Message)
		}).
		Return(nil, nil)
	udb.On("FindOne", mock.Anything, bson.M{"_id": admin.ID}).Return(admin, nil)

	raw := []byte(`{"event": "sendMessage", "data": {"complaintId": "` + complaintID.Hex() +
		`", "toUser": "` + admin.ID.Hex() + `", "message": "  The pothole is back  "}}`)
	ctrl.Dispatch(context.Background(), sess, sender, raw)

	assert.Equal(t, complaintID, stored.ComplaintID)
	assert.Equal(t, sess.UserID, stored.FromUser)
	assert.Equal(t, admin.ID, stored.ToUser)
	assert.Equal(t, "The pothole is back", stored.Message)
	assert.False(t, stored.HasSeen)
	assert.False(t, stored.ID.IsZero(), "store assigns the id before broadcast")

	for _, c := range []*fakeClient{sender, peer} {
		events := c.received()
		if assert.Len(t, events, 1) {
			assert.Equal(t, EventNewMessage, events[0].Event)
			details := events[0].Data.(models.MessageDetails)
			assert.Equal(t, stored.ID, details.ID)
			assert.Equal(t, sess.FullName, details.FromUser.FullName)
			assert.Equal(t, admin.FullName, details.ToUser.FullName)
			assert.Equal(t, "The pothole is back", details.Message)
		}
	}
	assert.Empty(t, outsider.received())

	mdb.AssertExpectations(t)
	udb.AssertExpectations(t)
}

func TestController_SendMessageUnknownRecipientStillBroadcasts(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	toUser := primitive.NewObjectID()

	sender := &fakeClient{}
	hub.Join(complaintID.Hex(), sender)

	mdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).Return(nil, nil)
	udb.On("FindOne", mock.Anything, bson.M{"_id": toUser}).Return(nil, mongo.ErrNoDocuments)

	raw := []byte(`{"event": "sendMessage", "data": {"complaintId": "` + complaintID.Hex() +
		`", "toUser": "` + toUser.Hex() + `", "message": "hello"}}`)
	ctrl.Dispatch(context.Background(), sess, sender, raw)

	events := sender.received()
	if assert.Len(t, events, 1) {
		details := events[0].Data.(models.MessageDetails)
		assert.Equal(t, toUser, details.ToUser.ID)
		assert.Empty(t, details.ToUser.FullName)
	}
}

func TestController_SendMessageEmptyBodyRejected(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	sender, peer := &fakeClient{}, &fakeClient{}
	hub.Join(complaintID.Hex(), sender)
	hub.Join(complaintID.Hex(), peer)

	raw := []byte(`{"event": "sendMessage", "data": {"complaintId": "` + complaintID.Hex() +
		`", "toUser": "` + primitive.NewObjectID().Hex() + `", "message": "   "}}`)
	ctrl.Dispatch(context.Background(), sess, sender, raw)

	events := sender.received()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventError, events[0].Event)
	}
	assert.Empty(t, peer.received())
	mdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestController_SendMessageStoreFailureNotBroadcast(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	sender, peer := &fakeClient{}, &fakeClient{}
	hub.Join(complaintID.Hex(), sender)
	hub.Join(complaintID.Hex(), peer)

	mdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).
		Return(nil, errors.New("connection reset"))

	raw := []byte(`{"event": "sendMessage", "data": {"complaintId": "` + complaintID.Hex() +
		`", "toUser": "` + primitive.NewObjectID().Hex() + `", "message": "hello"}}`)
	ctrl.Dispatch(context.Background(), sess, sender, raw)

	events := sender.received()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventError, events[0].Event)
		assert.Equal(t, ErrorData{Message: "Failed to send message"}, events[0].Data)
	}
	assert.Empty(t, peer.received(), "a message that was never stored must not fan out")
	udb.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestController_MarkSeenScopesUpdateToCaller(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	caller, peer := &fakeClient{}, &fakeClient{}
	hub.Join(complaintID.Hex(), caller)
	hub.Join(complaintID.Hex(), peer)

	var filter bson.M
	mdb.On("UpdateMany", mock.Anything, mock.AnythingOfType("primitive.M"), mock.AnythingOfType("primitive.M")).
		Run(func(args mock.Arguments) {
			filter = args.Get(1).(bson.M)
		}).
		Return(&mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, nil)

	raw := []byte(`{"event": "markSeen", "data": {"complaintId": "` + complaintID.Hex() + `"}}`)
	ctrl.Dispatch(context.Background(), sess, caller, raw)

	assert.Equal(t, complaintID, filter["complaintId"])
	assert.Equal(t, sess.UserID, filter["toUser"], "only messages addressed to the caller flip")
	assert.Equal(t, false, filter["hasSeen"])

	for _, c := range []*fakeClient{caller, peer} {
		events := c.received()
		if assert.Len(t, events, 1) {
			assert.Equal(t, EventMessagesSeen, events[0].Event)
			assert.Equal(t, SeenData{ComplaintID: complaintID.Hex(), SeenBy: sess.UserID.Hex()}, events[0].Data)
		}
	}
	mdb.AssertExpectations(t)
}

func TestController_MarkSeenStoreFailureSuppressesBroadcast(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	udb := &mocks.UserDatabase{}
	hub := NewHub()
	ctrl := NewController(mdb, udb, hub)

	sess := testSession()
	complaintID := primitive.NewObjectID()
	caller := &fakeClient{}
	hub.Join(complaintID.Hex(), caller)

	mdb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	raw := []byte(`{"event": "markSeen", "data": {"complaintId": "` + complaintID.Hex() + `"}}`)
	ctrl.Dispatch(context.Background(), sess, caller, raw)

	assert.Empty(t, caller.received(), "a seen receipt for an update that failed must not fan out")
}

func TestController_JoinComplaintAddsToRoom(t *testing.T) {
	hub := NewHub()
	ctrl := NewController(&mocks.MessageDatabase{}, &mocks.UserDatabase{}, hub)

	c := &fakeClient{}
	raw := []byte(`{"event": "joinComplaint", "data": {"complaintId": "abc123"}}`)
	ctrl.Dispatch(context.Background(), testSession(), c, raw)

	assert.Equal(t, 1, hub.RoomSize("abc123"))
	assert.Empty(t, c.received())
}

func TestController_MalformedFrame(t *testing.T) {
	ctrl := NewController(&mocks.MessageDatabase{}, &mocks.UserDatabase{}, NewHub())

	c := &fakeClient{}
	ctrl.Dispatch(context.Background(), testSession(), c, []byte(`{not json`))

	events := c.received()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventError, events[0].Event)
	}
}

func TestController_UnknownEvent(t *testing.T) {
	ctrl := NewController(&mocks.MessageDatabase{}, &mocks.UserDatabase{}, NewHub())

	c := &fakeClient{}
	ctrl.Dispatch(context.Background(), testSession(), c, []byte(`{"event": "deleteEverything", "data": {}}`))

	events := c.received()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventError, events[0].Event)
		assert.Equal(t, ErrorData{Message: "unsupported event"}, events[0].Data)
	}
}

func TestController_InvalidIDsRejected(t *testing.T) {
	mdb := &mocks.MessageDatabase{}
	ctrl := NewController(mdb, &mocks.UserDatabase{}, NewHub())

	c := &fakeClient{}
	raw := []byte(`{"event": "sendMessage", "data": {"complaintId": "not-an-id", "toUser": "also-bad", "message": "hi"}}`)
	ctrl.Dispatch(context.Background(), testSession(), c, raw)

	events := c.received()
	if assert.Len(t, events, 1) {
		assert.Equal(t, EventError, events[0].Event)
	}
	mdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}
