package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus is the lifecycle state of a session; it only moves from active to completed
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

const (
	MinPlayers     = 2
	MaxPlayers     = 20
	DefaultPlayers = 5

	// CodeAlphabet omits I, O, 0 and 1 so codes can be read aloud.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 6
)

// Session is a shareable prediction round keyed by Code
type Session struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Code       string              `json:"code" bson:"code"`
	Question   string              `json:"question" bson:"question"`
	MaxPlayers int                 `json:"maxPlayers" bson:"maxPlayers"`
	SecretCode string              `json:"secretCode,omitempty" bson:"secretCode,omitempty"` // stored, not enforced
	Creator    *primitive.ObjectID `json:"creator" bson:"creator,omitempty"`
	Status     SessionStatus       `json:"status" bson:"status"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsCompleted reports whether the session stopped accepting predictions
func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// CreatedBy reports whether userID owns the session
func (s *Session) CreatedBy(userID primitive.ObjectID) bool {
	return s.Creator != nil && *s.Creator == userID
}

// SessionView is a session plus its live participant count
type SessionView struct {
	*Session
	CurrentPlayers int64 `json:"currentPlayers"`
}

// UserSessions groups a user's sessions for the dashboard
type UserSessions struct {
	Created      []*Session `json:"created"`
	Participated []*Session `json:"participated"`
}

// CreateSessionInput carries the fields a client may set
type CreateSessionInput struct {
	Question   string `json:"question"`
	MaxPlayers int    `json:"maxPlayers"`
	SecretCode string `json:"secretCode"`
}

// ValidCode reports whether code has the shape of a generated session code
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
