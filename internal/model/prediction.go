package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prediction is one participant's answer to a session question
type Prediction struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Session    primitive.ObjectID  `json:"session" bson:"session"`
	User       *primitive.ObjectID `json:"user" bson:"user,omitempty"` // nil for anonymous players
	PlayerName string              `json:"playerName" bson:"playerName"`
	Content    string              `json:"content" bson:"content"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// AddPredictionInput is the request body for submitting a prediction
type AddPredictionInput struct {
	SessionCode string `json:"sessionCode"`
	PlayerName  string `json:"playerName"`
	Content     string `json:"content"`
}
