package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"predictbattle/internal/model"
	"predictbattle/internal/repository/repotest"
)

type SessionServiceSuite struct {
	suite.Suite
	store       *repotest.Store
	sessions    *SessionService
	predictions *PredictionService
	events      *recordingBroadcaster
	ctx         context.Context
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceSuite))
}

func (s *SessionServiceSuite) SetupTest() {
	s.store = repotest.NewStore()
	s.sessions = NewSessionService(s.store.Sessions(), s.store.Predictions())
	s.predictions = NewPredictionService(s.store.Sessions(), s.store.Predictions(), nil)
	s.events = &recordingBroadcaster{}
	s.sessions.SetBroadcaster(s.events)
	s.ctx = context.Background()
}

func (s *SessionServiceSuite) user() *model.Identity {
	return &model.Identity{UserID: primitive.NewObjectID()}
}

func (s *SessionServiceSuite) create(question string, maxPlayers int, caller *model.Identity) *model.Session {
	session, err := s.sessions.CreateSession(s.ctx, model.CreateSessionInput{Question: question, MaxPlayers: maxPlayers}, caller)
	s.Require().NoError(err)
	return session
}

// CreateSession tests

func (s *SessionServiceSuite) TestCreateSessionGeneratesValidCode() {
	for i := 0; i < 50; i++ {
		session := s.create("Will it rain?", 2+i%19, nil)
		s.True(model.ValidCode(session.Code), session.Code)
		s.Equal(model.SessionActive, session.Status)
		s.Nil(session.Creator)
	}

	codes := s.store.SessionCodes()
	s.Len(codes, 50)
	seen := map[string]bool{}
	for _, code := range codes {
		s.False(seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func (s *SessionServiceSuite) TestCreateSessionSetsCreator() {
	alice := s.user()
	session := s.create("Will it rain?", 5, alice)
	s.Require().NotNil(session.Creator)
	s.Equal(alice.UserID, *session.Creator)
}

func (s *SessionServiceSuite) TestCreateSessionDefaultsMaxPlayers() {
	session := s.create("Will it rain?", 0, nil)
	s.Equal(model.DefaultPlayers, session.MaxPlayers)
}

func (s *SessionServiceSuite) TestCreateSessionKeepsSecretCode() {
	session, err := s.sessions.CreateSession(s.ctx, model.CreateSessionInput{
		Question: "q", MaxPlayers: 3, SecretCode: "hush",
	}, nil)
	s.Require().NoError(err)
	s.Equal("hush", session.SecretCode)
}

func (s *SessionServiceSuite) TestCreateSessionValidates() {
	_, err := s.sessions.CreateSession(s.ctx, model.CreateSessionInput{Question: "   ", MaxPlayers: 5}, nil)
	s.ErrorIs(err, model.ErrValidation)

	for _, n := range []int{1, 21, -3} {
		_, err = s.sessions.CreateSession(s.ctx, model.CreateSessionInput{Question: "q", MaxPlayers: n}, nil)
		s.ErrorIs(err, model.ErrValidation, "maxPlayers %d", n)
	}
}

func (s *SessionServiceSuite) TestCreateSessionRerollsTakenCode() {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	s.sessions.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	first := s.create("one", 5, nil)
	second := s.create("two", 5, nil)
	s.Equal("AAAAAA", first.Code)
	s.Equal("BBBBBB", second.Code)
}

func (s *SessionServiceSuite) TestCreateSessionRetriesOnInsertRace() {
	// the lookup misses but the insert hits the unique index
	racing := s.store.Sessions()
	s.Require().NoError(racing.Create(s.ctx, &model.Session{Code: "CCCCCC"}))

	codes := []string{"CCCCCC", "DDDDDD"}
	s.sessions = NewSessionService(lookupMisses{s.store.Sessions()}, s.store.Predictions())
	s.sessions.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	session := s.create("q", 5, nil)
	s.Equal("DDDDDD", session.Code)
}

// GetSessionByCode tests

func (s *SessionServiceSuite) TestGetSessionByCodeCountsPredictions() {
	session := s.create("Will it rain?", 3, nil)
	_, err := s.predictions.AddPrediction(s.ctx, model.AddPredictionInput{SessionCode: session.Code, PlayerName: "Bob", Content: "yes"}, nil)
	s.Require().NoError(err)

	view, err := s.sessions.GetSessionByCode(s.ctx, session.Code)
	s.Require().NoError(err)
	s.Equal(session.ID, view.ID)
	s.Equal(int64(1), view.CurrentPlayers)
}

func (s *SessionServiceSuite) TestGetSessionByCodeNotFound() {
	_, err := s.sessions.GetSessionByCode(s.ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

// ListUserSessions tests

func (s *SessionServiceSuite) TestListUserSessionsSplitsCreatedAndParticipated() {
	alice, bob := s.user(), s.user()
	own := s.create("alice's", 5, alice)
	other := s.create("bob's", 5, bob)
	anon := s.create("anon", 5, nil)
	s.create("untouched", 5, bob)

	for _, code := range []string{own.Code, other.Code, anon.Code} {
		_, err := s.predictions.AddPrediction(s.ctx, model.AddPredictionInput{SessionCode: code, PlayerName: "Alice", Content: "x"}, alice)
		s.Require().NoError(err)
	}

	lists, err := s.sessions.ListUserSessions(s.ctx, alice)
	s.Require().NoError(err)

	s.Require().Len(lists.Created, 1)
	s.Equal(own.ID, lists.Created[0].ID)

	var participated []string
	for _, p := range lists.Participated {
		participated = append(participated, p.Code)
	}
	s.ElementsMatch([]string{other.Code, anon.Code}, participated)
}

func (s *SessionServiceSuite) TestListUserSessionsRequiresCaller() {
	_, err := s.sessions.ListUserSessions(s.ctx, nil)
	s.ErrorIs(err, model.ErrUnauthorized)
}

// CompleteSession tests

func (s *SessionServiceSuite) TestCompleteSessionByCreatorIsIdempotent() {
	alice := s.user()
	session := s.create("q", 5, alice)

	done, err := s.sessions.CompleteSession(s.ctx, session.ID.Hex(), alice)
	s.Require().NoError(err)
	s.Equal(model.SessionCompleted, done.Status)

	again, err := s.sessions.CompleteSession(s.ctx, session.ID.Hex(), alice)
	s.Require().NoError(err)
	s.Equal(model.SessionCompleted, again.Status)

	s.Equal([]string{
		EventSessionCompleted + ":" + session.Code,
		EventSessionCompleted + ":" + session.Code,
	}, s.events.Events())
}

func (s *SessionServiceSuite) TestCompleteSessionRejectsNonCreator() {
	session := s.create("q", 5, s.user())

	_, err := s.sessions.CompleteSession(s.ctx, session.ID.Hex(), s.user())
	s.ErrorIs(err, model.ErrNotCreator)
	s.ErrorIs(err, model.ErrUnauthorized)

	view, err := s.sessions.GetSessionByCode(s.ctx, session.Code)
	s.Require().NoError(err)
	s.Equal(model.SessionActive, view.Status)
}

func (s *SessionServiceSuite) TestCompleteAnonymousSessionByAnyUser() {
	session := s.create("q", 5, nil)

	done, err := s.sessions.CompleteSession(s.ctx, session.ID.Hex(), s.user())
	s.Require().NoError(err)
	s.True(done.IsCompleted())
}

func (s *SessionServiceSuite) TestCompleteSessionNotFound() {
	_, err := s.sessions.CompleteSession(s.ctx, primitive.NewObjectID().Hex(), s.user())
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.sessions.CompleteSession(s.ctx, "not-an-id", s.user())
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *SessionServiceSuite) TestCompleteSessionRequiresCaller() {
	session := s.create("q", 5, nil)
	_, err := s.sessions.CompleteSession(s.ctx, session.ID.Hex(), nil)
	s.ErrorIs(err, model.ErrUnauthorized)
}

// lookupMisses hides existing sessions from GetByCode to simulate a
// concurrent creator winning the race for a code.
type lookupMisses struct{ repotest.Sessions }

func (lookupMisses) GetByCode(context.Context, string) (*model.Session, error) {
	return nil, nil
}
