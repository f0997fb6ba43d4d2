package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"predictbattle/internal/model"
	"predictbattle/internal/repository"
)

// SessionService handles the prediction session lifecycle
type SessionService struct {
	sessions    repository.SessionRepo
	predictions repository.PredictionRepo
	broadcaster Broadcaster
	newCode     func() (string, error)
}

// NewSessionService creates a new session service
func NewSessionService(sessions repository.SessionRepo, predictions repository.PredictionRepo) *SessionService {
	return &SessionService{
		sessions:    sessions,
		predictions: predictions,
		broadcaster: nopBroadcaster{},
		newCode:     generateSessionCode,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSession validates input and stores an active session under a fresh code.
// caller may be nil for anonymous sessions.
func (s *SessionService) CreateSession(ctx context.Context, in model.CreateSessionInput, caller *model.Identity) (*model.Session, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, model.Invalid("question is required")
	}
	maxPlayers := in.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = model.DefaultPlayers
	}
	if maxPlayers < model.MinPlayers || maxPlayers > model.MaxPlayers {
		return nil, model.Invalid(fmt.Sprintf("maxPlayers must be between %d and %d", model.MinPlayers, model.MaxPlayers))
	}

	session := &model.Session{
		Question:   question,
		MaxPlayers: maxPlayers,
		SecretCode: in.SecretCode,
		Status:     model.SessionActive,
	}
	if caller != nil {
		creator := caller.UserID
		session.Creator = &creator
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session code: %w", err)
		}
		existing, err := s.sessions.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check session code: %w", err)
		}
		if existing != nil {
			continue
		}

		session.ID = primitive.NilObjectID
		session.Code = code
		err = s.sessions.Create(ctx, session)
		if errors.Is(err, repository.ErrDuplicateKey) {
			// another request took the code between the lookup and the insert
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return session, nil
	}
}

// GetSessionByCode returns the session with its current prediction count
func (s *SessionService) GetSessionByCode(ctx context.Context, code string) (*model.SessionView, error) {
	session, err := s.getByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	count, err := s.predictions.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	return &model.SessionView{Session: session, CurrentPlayers: count}, nil
}

// ListUserSessions returns sessions the caller created and, separately, the
// ones they only took part in
func (s *SessionService) ListUserSessions(ctx context.Context, caller *model.Identity) (*model.UserSessions, error) {
	if caller == nil {
		return nil, model.ErrNoToken
	}

	created, err := s.sessions.ListByCreator(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created sessions: %w", err)
	}

	ids, err := s.predictions.SessionIDsByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	participated, err := s.sessions.ListByIDsExcludingCreator(ctx, ids, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participated sessions: %w", err)
	}

	return &model.UserSessions{Created: created, Participated: participated}, nil
}

// CompleteSession moves a session to completed. Sessions without a creator
// may be completed by any signed-in user.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID string, caller *model.Identity) (*model.Session, error) {
	if caller == nil {
		return nil, model.ErrNoToken
	}
	id, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, model.ErrSessionNotFound
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	if session.Creator != nil && !session.CreatedBy(caller.UserID) {
		return nil, model.ErrNotCreator
	}

	updated, err := s.sessions.MarkCompleted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if updated == nil {
		return nil, model.ErrSessionNotFound
	}

	s.broadcaster.BroadcastToSession(updated.Code, EventSessionCompleted, updated)
	return updated, nil
}

func (s *SessionService) getByCode(ctx context.Context, code string) (*model.Session, error) {
	session, err := s.sessions.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateSessionCode creates a 6-char code. The alphabet has 32 symbols so
// byte%32 is unbiased.
func generateSessionCode() (string, error) {
	b := make([]byte, model.CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	code := make([]byte, model.CodeLength)
	for i := range code {
		code[i] = model.CodeAlphabet[int(b[i])%len(model.CodeAlphabet)]
	}
	return string(code), nil
}
