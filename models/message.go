package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message holds the structure for the messages collection in mongo. Sender and
// recipient are always one citizen and one administrator; the seen flag only
// ever moves false to true.
type Message struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	ComplaintID primitive.ObjectID `json:"complaintId" bson:"complaintId"`
	FromUser    primitive.ObjectID `json:"fromUser" bson:"fromUser"`
	ToUser      primitive.ObjectID `json:"toUser" bson:"toUser"`
	Message     string             `json:"message" bson:"message"`
	HasSeen     bool               `json:"hasSeen" bson:"hasSeen"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// MessageDetails is a message with sender and recipient identities populated,
// the shape broadcast as newMessage and returned by the history endpoint
type MessageDetails struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	ComplaintID primitive.ObjectID `json:"complaintId" bson:"complaintId"`
	FromUser    UserRef            `json:"fromUser" bson:"fromUser"`
	ToUser      UserRef            `json:"toUser" bson:"toUser"`
	Message     string             `json:"message" bson:"message"`
	HasSeen     bool               `json:"hasSeen" bson:"hasSeen"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
