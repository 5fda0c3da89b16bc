package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username, email and password are required")
)

const defaultRole = "customer"

type Service struct {
	repo Repository
	cost int
	log  *logrus.Logger
}

func NewService(repo Repository, bcryptCost int, log *logrus.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: bcryptCost, log: log}
}

// Register creates a new user. Duplicated username or email fails with
// ErrAlreadyExist.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         defaultRole,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("email", u.Email).Info("user registered")
	return u, nil
}

// Login checks credentials and returns the user. Unknown email and wrong
// password are reported identically.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	s.log.WithField("email", u.Email).Info("user logged in")
	return u, nil
}

// GetByID returns the user for the /me endpoint.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
