package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"predictbattle/internal/cache"
	"predictbattle/internal/model"
	"predictbattle/internal/repository"
)

const seatSettleTimeout = 5 * time.Second

// PredictionService records predictions and enforces per-session limits
type PredictionService struct {
	sessions    repository.SessionRepo
	predictions repository.PredictionRepo
	seats       cache.SeatCache
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewPredictionService creates a new prediction service. seats may be nil, in
// which case capacity is only checked against the stored count.
func NewPredictionService(sessions repository.SessionRepo, predictions repository.PredictionRepo, seats cache.SeatCache) *PredictionService {
	return &PredictionService{
		sessions:    sessions,
		predictions: predictions,
		seats:       seats,
		broadcaster: nopBroadcaster{},
		logger:      slog.Default(),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PredictionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// AddPrediction stores a prediction for the session identified by code.
// caller may be nil for anonymous players.
func (s *PredictionService) AddPrediction(ctx context.Context, in model.AddPredictionInput, caller *model.Identity) (*model.Prediction, error) {
	playerName := strings.TrimSpace(in.PlayerName)
	content := strings.TrimSpace(in.Content)
	if playerName == "" {
		return nil, model.Invalid("playerName is required")
	}
	if content == "" {
		return nil, model.Invalid("content is required")
	}

	session, err := s.sessions.GetByCode(ctx, normalizeCode(in.SessionCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	if session.IsCompleted() {
		return nil, model.ErrSessionCompleted
	}

	count, err := s.predictions.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	if count >= int64(session.MaxPlayers) {
		return nil, model.ErrSessionFull
	}

	prediction := &model.Prediction{
		Session:    session.ID,
		PlayerName: playerName,
		Content:    content,
	}
	if caller != nil {
		exists, err := s.predictions.ExistsForUser(ctx, session.ID, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing prediction: %w", err)
		}
		if exists {
			return nil, model.ErrAlreadyPredicted
		}
		userID := caller.UserID
		prediction.User = &userID
	}

	var lease string
	if s.seats != nil {
		var ok bool
		lease, ok, err = s.seats.Reserve(ctx, session.ID.Hex(), count, session.MaxPlayers)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve seat: %w", err)
		}
		if !ok {
			return nil, model.ErrSessionFull
		}
	}

	if err := s.predictions.Create(ctx, prediction); err != nil {
		s.settleSeat(ctx, session.ID.Hex(), lease, false)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.ErrAlreadyPredicted
		}
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	s.settleSeat(ctx, session.ID.Hex(), lease, true)

	s.broadcaster.BroadcastToSession(session.Code, EventPredictionAdded, prediction)
	return prediction, nil
}

// GetSessionPredictions lists a session's predictions in submission order
func (s *PredictionService) GetSessionPredictions(ctx context.Context, code string) ([]*model.Prediction, error) {
	session, err := s.sessions.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}

	predictions, err := s.predictions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}

// settleSeat commits or releases a lease. It runs even when the request was
// cancelled; a lease that still cannot be settled expires after cache.LeaseTTL.
func (s *PredictionService) settleSeat(ctx context.Context, sessionID, lease string, stored bool) {
	if s.seats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), seatSettleTimeout)
	defer cancel()

	var err error
	if stored {
		err = s.seats.Commit(ctx, sessionID, lease)
	} else {
		err = s.seats.Release(ctx, sessionID, lease)
	}
	if err != nil {
		s.logger.Warn("failed to settle seat",
			slog.String("session", sessionID),
			slog.Bool("stored", stored),
			slog.Any("error", err),
		)
	}
}
