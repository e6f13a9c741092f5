package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/logutil"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// fallbackDummyHash is a well-formed argon2id hash matching no password.
const fallbackDummyHash = "$argon2id$v=19$m=65536,t=3,p=2$dG9kb2FwcC1kdW1teS1zYQ$AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8"

// UserStore persists users and their token lists.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	FindByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*model.User, error)
	PushToken(ctx context.Context, id primitive.ObjectID, token model.Token) error
	PullToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID, access string) (string, error)
	Verify(token string) (*crypto.Claims, error)
}

// AuthService handles registration, login and bearer token bookkeeping.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register validates req, hashes the password and stores the new user.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, &ValidationError{Fields: []string{"password must be at most 72 bytes"}}
		}
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		Password: hash,
		Tokens:   []model.Token{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// FindByCredentials returns the user owning email if password matches.
// Every failure is reported as ErrInvalidCredentials.
func (s *AuthService) FindByCredentials(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	log := logutil.GetOrDefault(ctx)

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Error().Err(err).Msg("Unable to load user for login")
		}
		// Spend the same work as a real verification.
		_, _ = s.hasher.Verify(req.Password, s.dummy(ctx))
		return nil, ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil {
		log.Warn().Err(err).Str("user.id", user.ID.Hex()).Msg("Stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueSessionToken creates an auth token for user and records it on the
// user document.
func (s *AuthService) IssueSessionToken(ctx context.Context, user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID.Hex(), model.AccessAuth)
	if err != nil {
		return "", err
	}

	entry := model.Token{Access: model.AccessAuth, Token: token}
	if err := s.users.PushToken(ctx, user.ID, entry); err != nil {
		return "", err
	}
	user.Tokens = append(user.Tokens, entry)

	return token, nil
}

// RevokeToken removes token from user. Revoking a token that is not listed
// succeeds.
func (s *AuthService) RevokeToken(ctx context.Context, user *model.User, token string) error {
	if err := s.users.PullToken(ctx, user.ID, token); err != nil {
		return err
	}

	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept
	return nil
}

// Authenticate resolves token to its user. The token must carry a valid
// signature, be an auth token and still be listed on the user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.Access != model.AccessAuth {
		return nil, ErrUnauthenticated
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID())
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.FindByToken(ctx, id, model.AccessAuth, token)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log := logutil.GetOrDefault(ctx)
			log.Error().Err(err).Msg("Unable to resolve token owner")
		}
		return nil, ErrUnauthenticated
	}

	return user, nil
}

func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("todoapp-dummy-password")
		if err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Warn().Err(err).Msg("Unable to build dummy password hash, using fallback")
			hash = fallbackDummyHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
