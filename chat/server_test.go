package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicfix/complaint-api/databases/mocks"
	"github.com/civicfix/complaint-api/models"
)

func newTestServer(udb *mocks.UserDatabase, mdb *mocks.MessageDatabase) *Server {
	hub := NewHub()
	return &Server{
		Gate:       Gate{DB: udb, Secret: gateSecret},
		Hub:        hub,
		Controller: NewController(mdb, udb, hub),
	}
}

func TestServer_RejectsHandshakeWithoutToken(t *testing.T) {
	srv := newTestServer(&mocks.UserDatabase{}, &mocks.MessageDatabase{})

	req := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	w := httptest.NewRecorder()
	srv.Handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error": "Authentication error: No token provided"}`, w.Body.String())
}

func TestServer_RejectsHandshakeWithBadToken(t *testing.T) {
	srv := newTestServer(&mocks.UserDatabase{}, &mocks.MessageDatabase{})

	req := httptest.NewRequest(http.MethodGet, "/ws/chat?token=bogus", nil)
	w := httptest.NewRecorder()
	srv.Handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error": "Authentication error: Invalid token"}`, w.Body.String())
}

func TestServer_RoundTrip(t *testing.T) {
	udb := &mocks.UserDatabase{}
	mdb := &mocks.MessageDatabase{}
	srv := newTestServer(udb, mdb)

	user := &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Asha Rao",
		Email:    "asha@example.com",
	}
	admin := &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Ward Officer",
		Email:    "officer@example.com",
		IsAdmin:  true,
	}
	udb.On("FindOne", mock.Anything, bson.M{"_id": user.ID}).Return(user, nil)
	udb.On("FindOne", mock.Anything, bson.M{"_id": admin.ID}).Return(admin, nil)
	mdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Message")).Return(nil, nil)

	ts := httptest.NewServer(http.HandlerFunc(srv.Handler))
	defer ts.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(gateSecret)
	assert.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer ws.Close()

	complaintID := primitive.NewObjectID()
	assert.NoError(t, ws.WriteJSON(Event{
		Event: EventJoinComplaint,
		Data:  map[string]string{"complaintId": complaintID.Hex()},
	}))
	assert.NoError(t, ws.WriteJSON(Event{
		Event: EventSendMessage,
		Data: map[string]string{
			"complaintId": complaintID.Hex(),
			"toUser":      admin.ID.Hex(),
			"message":     "Streetlight still out on 5th cross",
		},
	}))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Event string                `json:"event"`
		Data  models.MessageDetails `json:"data"`
	}
	_, frame, err := ws.ReadMessage()
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(frame, &got))

	assert.Equal(t, EventNewMessage, got.Event)
	assert.Equal(t, "Streetlight still out on 5th cross", got.Data.Message)
	assert.Equal(t, user.ID, got.Data.FromUser.ID)
	assert.Equal(t, "Ward Officer", got.Data.ToUser.FullName)
	assert.False(t, got.Data.HasSeen)
}
