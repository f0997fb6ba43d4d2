package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"predictbattle/internal/model"
	"predictbattle/internal/repository"
)

// DefaultTokenTTL matches the 30 day lifetime clients expect
const DefaultTokenTTL = 30 * 24 * time.Hour

// AuthService registers users and issues/validates their bearer tokens
type AuthService struct {
	users     repository.UserRepo
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepo, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		users:     users,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates an account and returns a token for it
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	username = strings.TrimSpace(username)
	if len(username) < model.MinUsernameLen {
		return nil, model.Invalid(fmt.Sprintf("username must be at least %d characters", model.MinUsernameLen))
	}
	if len(password) < model.MinPasswordLen {
		return nil, model.Invalid(fmt.Sprintf("password must be at least %d characters", model.MinPasswordLen))
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.authResponse(user)
}

// Login verifies credentials and returns a fresh token
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// GetProfile resolves a token to the public profile of its user
func (s *AuthService) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	user, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &model.Profile{ID: user.ID, Username: user.Username}, nil
}

// Authenticate resolves a token to the caller identity attached to requests
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	user, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return &model.Identity{UserID: user.ID}, nil
}

// GenerateToken signs a token bound to userID
func (s *AuthService) GenerateToken(userID primitive.ObjectID) (string, error) {
	now := s.now()
	claims := &model.UserClaims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken checks signature and expiry and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrNoToken
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) authResponse(user *model.User) (*model.AuthResponse, error) {
	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &model.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	}, nil
}
