package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/parkpass/parking-pass-api/databases"
	"github.com/parkpass/parking-pass-api/models"
)

// ErrDuplicateEmail is returned by Register when the email is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

// ErrInvalidCredentials is returned by Login when the email is unknown or the
// password does not match. The two cases are deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Demo accounts present at process start without explicit registration.
const (
	DemoAdminEmail    = "admin@parking.com"
	demoAdminPassword = "admin123"
	demoAdminName     = "Parking Admin"
	DemoUserEmail     = "user@parking.com"
	demoUserPassword  = "user123"
	demoUserName      = "Demo User"
)

// Service authenticates principals and tracks the current session. The
// session has two states, anonymous and authenticated; Register and Login
// move it to authenticated, Logout back to anonymous. Failed operations
// never touch the session or the store.
type Service struct {
	Users databases.UserDatabase

	mu      sync.Mutex
	current *models.Principal
}

// NewService creates an identity service over the given user store.
func NewService(users databases.UserDatabase) *Service {
	return &Service{Users: users}
}

// Register creates a new account with role "user", persists it and sets the
// session to the new principal.
func (s *Service) Register(ctx context.Context, email, password, name string) (models.Principal, error) {
	_, err := s.Users.FindByEmail(ctx, email)
	if err == nil {
		return models.Principal{}, ErrDuplicateEmail
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Principal{}, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Principal{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:     email,
			Name:      name,
			Role:      models.RoleUser,
			Password:  string(hashed),
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	if err := s.Users.InsertOne(ctx, user); err != nil {
		return models.Principal{}, fmt.Errorf("failed to insert user: %w", err)
	}

	principal := user.Principal()
	s.setSession(principal)
	zap.S().Infow("registered new user", "email", email)
	return principal, nil
}

// Login verifies the credentials and sets the session to the matching
// principal. Repeated login simply re-sets the session.
func (s *Service) Login(ctx context.Context, email, password string) (models.Principal, error) {
	principal, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return models.Principal{}, err
	}
	s.setSession(principal)
	return principal, nil
}

// VerifyCredentials checks an email/password pair against the store without
// touching the session. Used by Login and by the HTTP basic-auth strategy.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (models.Principal, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Principal{}, ErrInvalidCredentials
		}
		return models.Principal{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(password)); err != nil {
		return models.Principal{}, ErrInvalidCredentials
	}
	return user.Principal(), nil
}

// PrincipalByEmail resolves a stored user to a principal without credential
// checks. The bearer-token middleware uses it to rebuild the acting principal
// for an already-authenticated session.
func (s *Service) PrincipalByEmail(ctx context.Context, email string) (models.Principal, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return models.Principal{}, err
	}
	return user.Principal(), nil
}

// Logout clears the session unconditionally; calling it while anonymous is a
// no-op.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns the authenticated principal, if any. Pure read, no side
// effects.
func (s *Service) Current() (models.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.Principal{}, false
	}
	return *s.current, true
}

func (s *Service) setSession(p models.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &p
}

// SeedDemoAccounts inserts the fixed demo admin and demo user accounts when
// they are missing, so both exist at process start.
func (s *Service) SeedDemoAccounts(ctx context.Context) error {
	seeds := []struct {
		email, password, name, role string
	}{
		{DemoAdminEmail, demoAdminPassword, demoAdminName, models.RoleAdmin},
		{DemoUserEmail, demoUserPassword, demoUserName, models.RoleUser},
	}

	for _, seed := range seeds {
		_, err := s.Users.FindByEmail(ctx, seed.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("failed to check demo account %s: %w", seed.email, err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash demo password: %w", err)
		}
		user := models.User{
			ID: primitive.NewObjectID(),
			Details: models.UserDetails{
				Email:     seed.email,
				Name:      seed.name,
				Role:      seed.role,
				Password:  string(hashed),
				CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
			},
		}
		if err := s.Users.InsertOne(ctx, user); err != nil {
			return fmt.Errorf("failed to seed demo account %s: %w", seed.email, err)
		}
		zap.S().Infow("seeded demo account", "email", seed.email, "role", seed.role)
	}
	return nil
}
