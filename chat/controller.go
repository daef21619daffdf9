package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
)

// Controller orchestrates the per-connection chat operations: joining a
// complaint room, sending a message (persist then broadcast) and marking
// incoming messages seen (bulk update then broadcast). It holds no
// per-connection state; everything it needs arrives as the Session.
type Controller struct {
	MDB   databases.MessageDatabase
	UDB   databases.UserDatabase
	Rooms Broadcaster

	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, s Session, c Client, data json.RawMessage)

// NewController wires the event dispatch table
func NewController(mdb databases.MessageDatabase, udb databases.UserDatabase, rooms Broadcaster) *Controller {
	ctrl := &Controller{MDB: mdb, UDB: udb, Rooms: rooms}
	ctrl.handlers = map[string]handlerFunc{
		EventJoinComplaint: ctrl.joinComplaint,
		EventSendMessage:   ctrl.sendMessage,
		EventMarkSeen:      ctrl.markSeen,
	}
	return ctrl
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatch decodes one inbound frame and routes it to the handler registered
// for its event name. Malformed frames and unknown events produce an error
// event on the originating connection only; they never tear the connection
// down.
func (ctrl *Controller) Dispatch(ctx context.Context, s Session, c Client, raw []byte) {
	var evt inboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		zap.S().Debugw("chat: malformed frame", "user", s.UserID.Hex(), "error", err)
		c.Send(errorEvent("invalid message format"))
		return
	}

	handler, ok := ctrl.handlers[evt.Event]
	if !ok {
		zap.S().Debugw("chat: unsupported event", "event", evt.Event, "user", s.UserID.Hex())
		c.Send(errorEvent("unsupported event"))
		return
	}

	handler(ctx, s, c, evt.Data)
}

type joinData struct {
	ComplaintID string `json:"complaintId"`
}

func (ctrl *Controller) joinComplaint(_ context.Context, s Session, c Client, data json.RawMessage) {
	var p joinData
	if err := json.Unmarshal(data, &p); err != nil || p.ComplaintID == "" {
		c.Send(errorEvent("complaintId is required"))
		return
	}

	ctrl.Rooms.Join(p.ComplaintID, c)
	zap.S().Infow("chat: joined complaint room",
		"complaintId", p.ComplaintID,
		"user", s.UserID.Hex(),
	)
}

type sendData struct {
	ComplaintID string `json:"complaintId"`
	ToUser      string `json:"toUser"`
	Message     string `json:"message"`
}

func (ctrl *Controller) sendMessage(ctx context.Context, s Session, c Client, data json.RawMessage) {
	var p sendData
	if err := json.Unmarshal(data, &p); err != nil {
		c.Send(errorEvent("invalid sendMessage payload"))
		return
	}

	body := strings.TrimSpace(p.Message)
	if body == "" {
		c.Send(errorEvent("message cannot be empty"))
		return
	}
	complaintID, err := primitive.ObjectIDFromHex(p.ComplaintID)
	if err != nil {
		c.Send(errorEvent("invalid complaint id"))
		return
	}
	toUser, err := primitive.ObjectIDFromHex(p.ToUser)
	if err != nil {
		c.Send(errorEvent("invalid recipient id"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	msg := models.Message{
		ID:          primitive.NewObjectID(),
		ComplaintID: complaintID,
		FromUser:    s.UserID,
		ToUser:      toUser,
		Message:     body,
		HasSeen:     false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// persist before broadcast; a message no client could refetch must never
	// be fanned out
	if _, err := ctrl.MDB.InsertOne(ctx, msg); err != nil {
		zap.S().Errorw("chat: failed to persist message",
			"complaintId", p.ComplaintID,
			"from", s.UserID.Hex(),
			"error", err,
		)
		c.Send(errorEvent("Failed to send message"))
		return
	}

	recipient := models.UserRef{ID: toUser}
	if u, err := ctrl.UDB.FindOne(ctx, bson.M{"_id": toUser}); err == nil {
		recipient = u.Ref()
	}

	details := models.MessageDetails{
		ID:          msg.ID,
		ComplaintID: complaintID,
		FromUser: models.UserRef{
			ID:       s.UserID,
			FullName: s.FullName,
			Email:    s.Email,
			IsAdmin:  s.IsAdmin,
		},
		ToUser:    recipient,
		Message:   body,
		HasSeen:   false,
		CreatedAt: now,
	}

	ctrl.Rooms.Broadcast(p.ComplaintID, Event{Event: EventNewMessage, Data: details})
}

type seenData struct {
	ComplaintID string `json:"complaintId"`
}

func (ctrl *Controller) markSeen(ctx context.Context, s Session, c Client, data json.RawMessage) {
	var p seenData
	if err := json.Unmarshal(data, &p); err != nil || p.ComplaintID == "" {
		c.Send(errorEvent("complaintId is required"))
		return
	}
	complaintID, err := primitive.ObjectIDFromHex(p.ComplaintID)
	if err != nil {
		c.Send(errorEvent("invalid complaint id"))
		return
	}

	// single bulk update scoped to this recipient's unseen messages; seen
	// flags only ever move false -> true
	filter := bson.M{
		"complaintId": complaintID,
		"toUser":      s.UserID,
		"hasSeen":     false,
	}
	update := bson.M{"$set": bson.M{
		"hasSeen":   true,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}}
	if _, err := ctrl.MDB.UpdateMany(ctx, filter, update); err != nil {
		// not surfaced to the client: the next markSeen retries the same set
		zap.S().Errorw("chat: failed to mark messages seen",
			"complaintId", p.ComplaintID,
			"seenBy", s.UserID.Hex(),
			"error", err,
		)
		return
	}

	ctrl.Rooms.Broadcast(p.ComplaintID, Event{
		Event: EventMessagesSeen,
		Data:  SeenData{ComplaintID: p.ComplaintID, SeenBy: s.UserID.Hex()},
	})
}
