package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the users collection in mongo
type User struct {
	ID                   primitive.ObjectID  `json:"_id" bson:"_id"`
	Email                string              `json:"email" bson:"email"`
	FullName             string              `json:"fullName" bson:"fullName"`
	Password             string              `json:"-" bson:"password"`
	Address              string              `json:"address" bson:"address"`
	ProfilePic           string              `json:"profilePic" bson:"profilePic"`
	IsAdmin              bool                `json:"isAdmin" bson:"isAdmin"`
	IsVerified           bool                `json:"isVerified" bson:"isVerified"`
	ResetPasswordToken   string              `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *primitive.DateTime `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt            primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt            primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// UserRef is the trimmed user identity embedded in chat payloads and populated
// message history, mirroring the fields the dashboard renders
type UserRef struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	FullName string             `json:"fullName" bson:"fullName"`
	Email    string             `json:"email" bson:"email"`
	IsAdmin  bool               `json:"isAdmin" bson:"isAdmin"`
}

// Ref returns the trimmed identity for a user
func (u *User) Ref() UserRef {
	return UserRef{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}
