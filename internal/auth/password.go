package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type Passwords struct {
	Cost int
}

func (p Passwords) Hash(plain string) (string, error) {
	cost := p.Cost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check reports whether plain matches hash; a malformed hash is a mismatch.
func (p Passwords) Check(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	}
	return false, err
}
