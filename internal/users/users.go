// Package users owns accounts and saved delivery locations.
package users

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

type User struct {
	ID       int64  `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"-"`
}

type Location struct {
	ID        int64  `json:"location_id"`
	UserID    int64  `json:"user_id"`
	Street    string `json:"street"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Floor     string `json:"floor"`
}
