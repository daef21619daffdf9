package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// OTP holds the structure for the otps collection in mongo
type OTP struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Email     string             `json:"email" bson:"email"`
	OTP       string             `json:"otp" bson:"otp"`
	ExpiresAt primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
