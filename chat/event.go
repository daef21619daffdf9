package chat

// Event names accepted from clients
const (
	EventJoinComplaint = "joinComplaint"
	EventSendMessage   = "sendMessage"
	EventMarkSeen      = "markSeen"
)

// Event names emitted to clients
const (
	EventNewMessage   = "newMessage"
	EventMessagesSeen = "messagesSeen"
	EventError        = "error"
)

// Event is the envelope for every frame in both directions
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ErrorData is the payload of an error event, delivered only to the
// connection whose operation failed
type ErrorData struct {
	Message string `json:"message"`
}

func errorEvent(message string) Event {
	return Event{Event: EventError, Data: ErrorData{Message: message}}
}

// SeenData is the payload of a messagesSeen broadcast
type SeenData struct {
	ComplaintID string `json:"complaintId"`
	SeenBy      string `json:"seenBy"`
}
