package chat

import "go.mongodb.org/mongo-driver/bson/primitive"

// Session is the identity resolved by the connection gate, attached to a
// connection for its whole lifetime. It is passed by value to every event
// handler and never mutated after the handshake.
type Session struct {
	UserID   primitive.ObjectID
	FullName string
	Email    string
	IsAdmin  bool
}
