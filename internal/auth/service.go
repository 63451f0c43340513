// Package auth owns registration, login and the request authentication and
// authorization middleware.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/store"
)

const saltSize = 128

type Config struct {
	Users    store.Users
	EventBus *event.Bus
}

type Service struct {
	users store.Users
	eb    *event.Bus
}

func NewService(c Config) *Service {
	return &Service{users: c.Users, eb: c.EventBus}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Register creates a new default-role user with a salted keyed hash of the
// password. Duplicate email or username fails with a conflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	switch {
	case strings.TrimSpace(req.Email) == "":
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide an email"))
	case strings.TrimSpace(req.Username) == "":
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("You must provide a username"))
	case strings.TrimSpace(req.Password) == "":
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("The password is required"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	hash, salt, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		UserID:             id.String(),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Username:           req.Username,
		Email:              req.Email,
		PasswordHash:       hash,
		PasswordSalt:       salt,
		Role:               domain.RoleDefault,
		PendingChallenges:  map[string]string{},
		FinishedChallenges: map[string]int{},
	}

	if err := s.users.Insert(ctx, u); err != nil {
		if errors.IsCode(err, errors.CodeAlreadyExists) {
			return nil, errors.New(errors.CodeAlreadyExists,
				errors.WithMessagef("The email or the username is already in use"),
				errors.WithCause(err),
			)
		}
		return nil, err
	}

	// Seed the leaderboard entry so new players show up before their
	// first validated challenge.
	s.eb.Publish(ctx, domain.EventUserScoreUpdated{
		UserID:   u.UserID,
		Username: u.Username,
		Score:    0,
	})

	return u, nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login resolves the user by username or email and checks the password. The
// returned record keeps the credential hash: clients authenticate subsequent
// requests with "id:hash".
func (s *Service) Login(ctx context.Context, req LoginRequest) (*domain.User, error) {
	badLogin := errors.New(errors.CodeInvalidArgument, errors.WithMessagef("Username or password is incorrect"))

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, badLogin
	}

	u, err := s.users.FindByLogin(ctx, req.Username)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil, badLogin
		}
		return nil, err
	}

	if !verifyPassword(req.Password, u.PasswordHash, u.PasswordSalt) {
		return nil, badLogin
	}

	u.PasswordSalt = nil
	u.PendingChallenges = nil
	return u, nil
}

// Authenticate resolves the subject of a request credential. The presented
// secret is the stored hash itself, not the password.
func (s *Service) Authenticate(ctx context.Context, userID, presentedHash string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithCause(err))
	}

	if !hmac.Equal([]byte(presentedHash), []byte(u.PasswordHash)) {
		return nil, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid credentials for user %s", userID))
	}

	return u, nil
}

func hashPassword(password string) (hash string, salt []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", nil, fmt.Errorf("generate salt: %w", err)
	}

	return computeHash(password, salt), salt, nil
}

func verifyPassword(password, storedHash string, salt []byte) bool {
	if len(salt) != saltSize {
		return false
	}

	return hmac.Equal([]byte(computeHash(password, salt)), []byte(storedHash))
}

func computeHash(password string, salt []byte) string {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
