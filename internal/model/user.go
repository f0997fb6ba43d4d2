package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

// User is a registered account
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"password"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Profile is the public part of a user
type Profile struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
}
