package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicfix/complaint-api/api"
	"github.com/civicfix/complaint-api/api/handlers"
	"github.com/civicfix/complaint-api/databases/mocks"
	"github.com/civicfix/complaint-api/models"
)

func newCitizen() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "asha@example.com",
		FullName: "Asha Rao",
	}
}

func newAdmin() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "admin@civicfix.app",
		FullName: "Ward Admin",
		IsAdmin:  true,
	}
}

// authedRequest builds a request carrying the auth context the middleware
// would have set for the given user
func authedRequest(method, target string, body io.Reader, user *models.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(api.WithUserID(req.Context(), user.ID.Hex()))
}

func TestMessage_MessagesByComplaintIDHandlerBadID(t *testing.T) {
	user := newCitizen()
	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)

	m := handlers.Message{DB: &mocks.MessageDatabase{}, UDB: udb, CDB: &mocks.ComplaintDatabase{}}

	req := authedRequest("GET", "/api/v1/messages/1234", nil, user)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "1234"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesByComplaintIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`, rr.Body.String())
}

func TestMessage_MessagesByComplaintIDHandlerComplaintNotFound(t *testing.T) {
	user := newCitizen()
	cID := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": cID}).Return(nil, mongo.ErrNoDocuments)

	m := handlers.Message{DB: &mocks.MessageDatabase{}, UDB: udb, CDB: cdb}

	req := authedRequest("GET", "/api/v1/messages/"+cID.Hex(), nil, user)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": cID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesByComplaintIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `{"response": "failed to get complaint by ID, mongo: no documents in result"}`, rr.Body.String())
}

func TestMessage_MessagesByComplaintIDHandlerForbidden(t *testing.T) {
	user := newCitizen()
	cID := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": cID}).Return(&models.Complaint{
		ID:   cID,
		User: primitive.NewObjectID(), // someone else's complaint
	}, nil)

	mdb := &mocks.MessageDatabase{}
	m := handlers.Message{DB: mdb, UDB: udb, CDB: cdb}

	req := authedRequest("GET", "/api/v1/messages/"+cID.Hex(), nil, user)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": cID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesByComplaintIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, `{"response": "not allowed to view this conversation, not the complaint owner"}`, rr.Body.String())
	mdb.AssertNotCalled(t, "FindWithUsers", mock.Anything, mock.Anything)
}

func TestMessage_MessagesByComplaintIDHandlerEmptyHistory(t *testing.T) {
	user := newCitizen()
	cID := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": cID}).Return(&models.Complaint{ID: cID, User: user.ID}, nil)
	mdb := &mocks.MessageDatabase{}
	mdb.On("FindWithUsers", mock.Anything, cID).Return(nil, nil)

	m := handlers.Message{DB: mdb, UDB: udb, CDB: cdb}

	req := authedRequest("GET", "/api/v1/messages/"+cID.Hex(), nil, user)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": cID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesByComplaintIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestMessage_MessagesByComplaintIDHandlerAdminCanReadAny(t *testing.T) {
	admin := newAdmin()
	citizen := newCitizen()
	cID := primitive.NewObjectID()

	udb := &mocks.UserDatabase{}
	udb.On("FindOne", mock.Anything, bson.M{"_id": admin.ID}).Return(admin, nil)
	cdb := &mocks.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": cID}).Return(&models.Complaint{ID: cID, User: citizen.ID}, nil)

	history := []models.MessageDetails{
		{
			ID:          primitive.NewObjectID(),
			ComplaintID: cID,
			FromUser:    citizen.Ref(),
			ToUser:      admin.Ref(),
			Message:     "The pothole is back",
			CreatedAt:   primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	mdb := &mocks.MessageDatabase{}
	mdb.On("FindWithUsers", mock.Anything, cID).Return(history, nil)

	m := handlers.Message{DB: mdb, UDB: udb, CDB: cdb}

	req := authedRequest("GET", "/api/v1/messages/"+cID.Hex(), nil, admin)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": cID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(m.MessagesByComplaintIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "The pothole is back")
	assert.Contains(t, rr.Body.String(), citizen.FullName)
}
