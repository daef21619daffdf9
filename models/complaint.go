package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Complaint status values
const (
	StatusNew        = "new"
	StatusInProgress = "in progress"
	StatusResolved   = "resolved"
)

// ValidStatus reports whether s is a recognized complaint status
func ValidStatus(s string) bool {
	return s == StatusNew || s == StatusInProgress || s == StatusResolved
}

// Complaint holds the structure for the complaints collection in mongo
type Complaint struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	User           primitive.ObjectID `json:"user" bson:"user"`
	Description    string             `json:"description" bson:"description"`
	Latitude       string             `json:"latitude" bson:"latitude"`
	Longitude      string             `json:"longitude" bson:"longitude"`
	City           string             `json:"city" bson:"city"`
	State          string             `json:"state" bson:"state"`
	Landmark       string             `json:"landmark" bson:"landmark"`
	BeforeImageURL string             `json:"beforeImageUrl" bson:"beforeImageUrl"`
	AfterImageURL  string             `json:"afterImageUrl" bson:"afterImageUrl"`
	Category       string             `json:"category" bson:"category"`
	Status         string             `json:"status" bson:"status"`
	Rating         int                `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt      primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt      primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ComplaintDetails is a complaint with its owner populated, used by the admin
// listings and the chat overview pages
type ComplaintDetails struct {
	Complaint `bson:",inline"`
	Owner     UserRef `json:"owner" bson:"owner"`
}
