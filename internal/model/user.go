package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// AccessAuth is the purpose tag of session tokens handed out on register and login.
const AccessAuth = "auth"

// Token is a bearer token embedded in its owner's user document.
type Token struct {
	Access string `bson:"access"`
	Token  string `bson:"token"`
}

// User represents a document in the users collection.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"` // hashed
	Tokens   []Token            `bson:"tokens"`
}

// HasToken reports whether token is currently listed for the given access purpose.
func (u *User) HasToken(access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}

// CreateUserRequest represents a user registration request.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID    primitive.ObjectID `json:"_id"`
	Email string             `json:"email"`
}

// NewUserResponse strips the password hash and tokens from u.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}
