package model

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserClaims are JWT claims for registered users
type UserClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to a request
type Identity struct {
	UserID primitive.ObjectID
}

// Credentials is the request body for register and login
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned after register or login
type AuthResponse struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Token    string             `json:"token"`
}
