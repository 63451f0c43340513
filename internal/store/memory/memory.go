// Package memory is an in-memory store implementation with the same
// not-found and conflict semantics as the postgres one. It backs the service
// tests and local development without a database.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
)

type Store struct {
	mu sync.RWMutex

	Users      *users
	Teams      *teams
	Challenges *challenges
	Settings   *settings
	Blobs      *blobs
}

func NewStore() *Store {
	s := &Store{}
	s.Users = &users{store: s, byID: map[string]*domain.User{}}
	s.Teams = &teams{store: s, byID: map[string]*domain.Team{}}
	s.Challenges = &challenges{store: s, byID: map[string]*domain.Challenge{}}
	s.Settings = &settings{store: s}
	s.Blobs = &blobs{store: s, byID: map[string][]byte{}}
	return s
}

// UpdateUserAndTeam applies both writes under one lock.
func (s *Store) UpdateUserAndTeam(ctx context.Context, u *domain.User, t *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Users.byID[u.UserID]; !ok {
		return notFound("user", u.UserID)
	}
	if _, ok := s.Teams.byID[t.TeamID]; !ok {
		return notFound("team", t.TeamID)
	}

	s.Users.byID[u.UserID] = cloneUser(u)
	s.Teams.byID[t.TeamID] = cloneTeam(t)
	return nil
}

func notFound(entity, id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("%s not found: %s", entity, id))
}

func conflict(format string, args ...any) error {
	return errors.New(errors.CodeAlreadyExists, errors.WithMessagef(format, args...))
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.PasswordSalt = slices.Clone(u.PasswordSalt)
	c.PendingChallenges = maps.Clone(u.PendingChallenges)
	c.FinishedChallenges = maps.Clone(u.FinishedChallenges)
	return &c
}

func cloneTeam(t *domain.Team) *domain.Team {
	c := *t
	c.Members = slices.Clone(t.Members)
	c.FinishedChallenges = maps.Clone(t.FinishedChallenges)
	return &c
}

type users struct {
	store *Store
	byID  map[string]*domain.User
}

func (s *users) Get(_ context.Context, userID string) (*domain.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, notFound("user", userID)
	}

	return cloneUser(u), nil
}

func (s *users) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, u := range s.byID {
		if u.Username == login || u.Email == login {
			return cloneUser(u), nil
		}
	}

	return nil, notFound("user", login)
}

func (s *users) List(_ context.Context) ([]domain.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return s.listLocked(func(*domain.User) bool { return true }), nil
}

func (s *users) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	return s.listLocked(func(u *domain.User) bool { return u.Role == role }), nil
}

func (s *users) listLocked(keep func(*domain.User) bool) []domain.User {
	var out []domain.User
	for _, u := range s.byID {
		if keep(u) {
			out = append(out, *cloneUser(u))
		}
	}

	slices.SortFunc(out, func(a, b domain.User) int { return b.Score - a.Score })
	return out
}

func (s *users) Insert(_ context.Context, u *domain.User) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return conflict("username or email already in use: %s", u.Username)
		}
	}

	s.byID[u.UserID] = cloneUser(u)
	return nil
}

func (s *users) Update(_ context.Context, u *domain.User) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.byID[u.UserID]; !ok {
		return notFound("user", u.UserID)
	}

	s.byID[u.UserID] = cloneUser(u)
	return nil
}

func (s *users) Delete(_ context.Context, userID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.byID, userID)
	return nil
}

type teams struct {
	store *Store
	byID  map[string]*domain.Team
}

func (s *teams) Get(_ context.Context, teamID string) (*domain.Team, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	t, ok := s.byID[teamID]
	if !ok {
		return nil, notFound("team", teamID)
	}

	return cloneTeam(t), nil
}

func (s *teams) List(_ context.Context) ([]domain.Team, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var out []domain.Team
	for _, t := range s.byID {
		out = append(out, *cloneTeam(t))
	}

	slices.SortFunc(out, func(a, b domain.Team) int { return b.Score - a.Score })
	return out, nil
}

func (s *teams) FindByCaptain(_ context.Context, captainID string) (*domain.Team, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, t := range s.byID {
		if t.CaptainID == captainID {
			return cloneTeam(t), nil
		}
	}

	return nil, notFound("team for captain", captainID)
}

func (s *teams) FindByUser(_ context.Context, userID string) (*domain.Team, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, t := range s.byID {
		if t.CaptainID == userID || t.HasMember(userID) {
			return cloneTeam(t), nil
		}
	}

	return nil, notFound("team for user", userID)
}

func (s *teams) FindByMember(_ context.Context, userID string) (*domain.Team, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, t := range s.byID {
		if t.HasMember(userID) {
			return cloneTeam(t), nil
		}
	}

	return nil, notFound("team for member", userID)
}

func (s *teams) Insert(_ context.Context, t *domain.Team) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Name == t.Name || existing.CaptainID == t.CaptainID {
			return conflict("team name or captain already taken: %s", t.Name)
		}
	}

	s.byID[t.TeamID] = cloneTeam(t)
	return nil
}

func (s *teams) Update(_ context.Context, t *domain.Team) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.byID[t.TeamID]; !ok {
		return notFound("team", t.TeamID)
	}

	s.byID[t.TeamID] = cloneTeam(t)
	return nil
}

func (s *teams) Delete(_ context.Context, teamID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.byID, teamID)
	return nil
}

type challenges struct {
	store *Store
	byID  map[string]*domain.Challenge
}

func (s *challenges) Get(_ context.Context, challengeID string) (*domain.Challenge, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	c, ok := s.byID[challengeID]
	if !ok {
		return nil, notFound("challenge", challengeID)
	}

	cc := *c
	return &cc, nil
}

func (s *challenges) List(_ context.Context) ([]domain.Challenge, error) {
	return s.list(func(*domain.Challenge) bool { return true }), nil
}

func (s *challenges) ListVisible(_ context.Context, forTeam bool) ([]domain.Challenge, error) {
	return s.list(func(c *domain.Challenge) bool { return c.IsVisible && c.IsForTeam == forTeam }), nil
}

func (s *challenges) list(keep func(*domain.Challenge) bool) []domain.Challenge {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var out []domain.Challenge
	for _, c := range s.byID {
		if keep(c) {
			out = append(out, *c)
		}
	}

	slices.SortFunc(out, func(a, b domain.Challenge) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

func (s *challenges) Insert(_ context.Context, c *domain.Challenge) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	cc := *c
	s.byID[c.ChallengeID] = &cc
	return nil
}

func (s *challenges) Update(_ context.Context, c *domain.Challenge) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.byID[c.ChallengeID]; !ok {
		return notFound("challenge", c.ChallengeID)
	}

	cc := *c
	s.byID[c.ChallengeID] = &cc
	return nil
}

func (s *challenges) Delete(_ context.Context, challengeID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.byID, challengeID)
	return nil
}

type settings struct {
	store     *Store
	singleton *domain.GameSettings
}

func (s *settings) Get(_ context.Context) (*domain.GameSettings, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	if s.singleton == nil {
		return nil, notFound("game settings", "singleton")
	}

	gs := *s.singleton
	return &gs, nil
}

func (s *settings) Insert(_ context.Context, gs *domain.GameSettings) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.singleton != nil {
		return conflict("game settings already exist")
	}

	c := *gs
	s.singleton = &c
	return nil
}

func (s *settings) Update(_ context.Context, gs *domain.GameSettings) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.singleton == nil {
		return notFound("game settings", gs.SettingsID)
	}

	c := *gs
	s.singleton = &c
	return nil
}

type blobs struct {
	store *Store
	byID  map[string][]byte
}

func (s *blobs) Upload(_ context.Context, _ string, data []byte) (string, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate blob ID: %w", err)
	}

	s.byID[id.String()] = slices.Clone(data)
	return id.String(), nil
}

func (s *blobs) Download(_ context.Context, blobID string) ([]byte, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	data, ok := s.byID[blobID]
	if !ok {
		return nil, notFound("blob", blobID)
	}

	return slices.Clone(data), nil
}

func (s *blobs) Delete(_ context.Context, blobID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	delete(s.byID, blobID)
	return nil
}
