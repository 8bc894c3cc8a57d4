// Package testhelpers provides in-memory implementations of the persistence
// interfaces so the identity and registry components can be tested without a
// running mongo instance. Both stores serialize access behind a mutex and
// honor the same atomicity contract as the mongo-backed implementations.
package testhelpers

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parkpass/parking-pass-api/databases"
	"github.com/parkpass/parking-pass-api/models"
)

// UserStore is an in-memory databases.UserDatabase.
type UserStore struct {
	mu    sync.Mutex
	users []models.User
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{}
}

// FindByEmail implements databases.UserDatabase.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Details.Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindByID implements databases.UserDatabase.
func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// InsertOne implements databases.UserDatabase.
func (s *UserStore) InsertOne(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
	return nil
}

// Len reports the stored user count.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// ApplicationStore is an in-memory databases.ApplicationDatabase preserving
// insertion order.
type ApplicationStore struct {
	mu   sync.Mutex
	apps []models.Application
}

// NewApplicationStore creates an empty in-memory application store.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{}
}

// FindByID implements databases.ApplicationDatabase.
func (s *ApplicationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == id {
			a := s.apps[i]
			return &a, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindAll implements databases.ApplicationDatabase.
func (s *ApplicationStore) FindAll(ctx context.Context) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Application, len(s.apps))
	copy(out, s.apps)
	return out, nil
}

// FindByUserID implements databases.ApplicationDatabase.
func (s *ApplicationStore) FindByUserID(ctx context.Context, userID string) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Application
	for _, a := range s.apps {
		if a.Details.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// FindPendingOlderThan implements databases.ApplicationDatabase.
func (s *ApplicationStore) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Application
	for _, a := range s.apps {
		if a.Details.Status == models.StatusPending && a.Details.SubmittedAt.Time().Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

// InsertOne implements databases.ApplicationDatabase.
func (s *ApplicationStore) InsertOne(ctx context.Context, app models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = append(s.apps, app)
	return nil
}

// TransitionStatus implements databases.ApplicationDatabase with the same
// check-and-set semantics as the mongo version: the pending check and the
// write happen under one lock.
func (s *ApplicationStore) TransitionStatus(ctx context.Context, id primitive.ObjectID, decision, comment, reviewedBy string, reviewedAt time.Time) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID != id {
			continue
		}
		if s.apps[i].Details.Status != models.StatusPending {
			return nil, databases.ErrNotPending
		}
		s.apps[i].Details.Status = decision
		s.apps[i].Details.AdminComment = comment
		s.apps[i].Details.ReviewedAt = primitive.NewDateTimeFromTime(reviewedAt)
		s.apps[i].Details.ReviewedBy = reviewedBy
		a := s.apps[i]
		return &a, nil
	}
	return nil, mongo.ErrNoDocuments
}

// Len reports the stored application count.
func (s *ApplicationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}
