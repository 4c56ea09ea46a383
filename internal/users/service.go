package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
)

type Service struct {
	Store     Store
	Passwords auth.Passwords
	Tokens    *auth.Tokens
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// Register creates a customer account. The name defaults to the email's local part.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return 0, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name, _, _ = strings.Cut(in.Email, "@")
	}
	hash, err := s.Passwords.Hash(in.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.Store.Create(ctx, User{
		Name: in.Name, Email: in.Email, Phone: in.Phone, Role: auth.RoleCustomer, Password: hash,
	})
}

// Login returns a signed token. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	u, err := s.Store.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	ok, err := s.Passwords.Check(u.Password, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name})
}

func (s *Service) Profile(ctx context.Context, id int64) (User, error) {
	return s.Store.ByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return s.Store.UpdateProfile(ctx, id, strings.TrimSpace(name), strings.TrimSpace(phone))
}

func (s *Service) AddLocation(ctx context.Context, l Location) (int64, error) {
	if strings.TrimSpace(l.Street) == "" || strings.TrimSpace(l.City) == "" {
		return 0, fmt.Errorf("%w: street and city are required", ErrInvalidInput)
	}
	return s.Store.AddLocation(ctx, l)
}

func (s *Service) Locations(ctx context.Context, userID int64) ([]Location, error) {
	return s.Store.Locations(ctx, userID)
}
