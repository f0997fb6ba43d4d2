// Package repotest provides in-memory repositories for tests. They mirror the
// unique indexes created by repository.EnsureIndexes.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"predictbattle/internal/model"
	"predictbattle/internal/repository"
)

// Store backs the in-memory repositories
type Store struct {
	mu          sync.Mutex
	clock       time.Time
	users       []*model.User
	sessions    []*model.Session
	predictions []*model.Prediction
	failInsert  error
}

// NewStore creates an empty store with a deterministic clock
func NewStore() *Store {
	return &Store{clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// SetFailInsert makes every prediction insert fail with err until reset with nil
func (m *Store) SetFailInsert(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInsert = err
}

// SessionCodes returns the code of every stored session in insertion order
func (m *Store) SessionCodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0, len(m.sessions))
	for _, s := range m.sessions {
		codes = append(codes, s.Code)
	}
	return codes
}

// Users returns the user repository
func (m *Store) Users() Users { return Users{m} }

// Sessions returns the session repository
func (m *Store) Sessions() Sessions { return Sessions{m} }

// Predictions returns the prediction repository
func (m *Store) Predictions() Predictions { return Predictions{m} }

func (m *Store) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

// Users implements repository.UserRepo
type Users struct{ *Store }

func (r Users) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username", repository.ErrDuplicateKey)
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = r.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r Users) GetByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Sessions implements repository.SessionRepo
type Sessions struct{ *Store }

func (r Sessions) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.Code == s.Code {
			return fmt.Errorf("%w: code", repository.ErrDuplicateKey)
		}
	}
	s.ID = primitive.NewObjectID()
	s.CreatedAt = r.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.sessions = append(r.sessions, &cp)
	return nil
}

func (r Sessions) GetByID(_ context.Context, id primitive.ObjectID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Sessions) GetByCode(_ context.Context, code string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r Sessions) ListByCreator(_ context.Context, creator primitive.ObjectID) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, s := range r.sessions {
		if s.CreatedBy(creator) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r Sessions) ListByIDsExcludingCreator(_ context.Context, ids []primitive.ObjectID, creator primitive.ObjectID) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, s := range r.sessions {
		if s.CreatedBy(creator) {
			continue
		}
		for _, id := range ids {
			if s.ID == id {
				cp := *s
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (r Sessions) MarkCompleted(_ context.Context, id primitive.ObjectID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == id {
			s.Status = model.SessionCompleted
			s.UpdatedAt = r.tick()
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

// Predictions implements repository.PredictionRepo
type Predictions struct{ *Store }

func (r Predictions) Create(_ context.Context, p *model.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert != nil {
		return r.failInsert
	}
	if p.User != nil {
		for _, existing := range r.predictions {
			if existing.Session == p.Session && existing.User != nil && *existing.User == *p.User {
				return fmt.Errorf("%w: session_1_user_1", repository.ErrDuplicateKey)
			}
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.predictions = append(r.predictions, &cp)
	return nil
}

func (r Predictions) CountBySession(_ context.Context, sessionID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.predictions {
		if p.Session == sessionID {
			n++
		}
	}
	return n, nil
}

func (r Predictions) ExistsForUser(_ context.Context, sessionID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.predictions {
		if p.Session == sessionID && p.User != nil && *p.User == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r Predictions) ListBySession(_ context.Context, sessionID primitive.ObjectID) ([]*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Prediction{}
	for _, p := range r.predictions {
		if p.Session == sessionID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r Predictions) SessionIDsByUser(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, p := range r.predictions {
		if p.User != nil && *p.User == userID && !seen[p.Session] {
			seen[p.Session] = true
			ids = append(ids, p.Session)
		}
	}
	return ids, nil
}

var (
	_ repository.UserRepo       = Users{}
	_ repository.SessionRepo    = Sessions{}
	_ repository.PredictionRepo = Predictions{}
)
