package service

// Live event types pushed to session subscribers
const (
	EventPredictionAdded  = "prediction_added"
	EventSessionCompleted = "session_completed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionCode string, msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToSession(string, string, interface{}) {}
