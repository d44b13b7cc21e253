package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrTokenNotFound is returned by a TokenStore that holds no token yet
var ErrTokenNotFound = errors.New("no cached token")

// TokenStore persists a granted user token between runs
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// Granter obtains a new user token, usually interactively
type Granter interface {
	Grant(ctx context.Context) (*oauth2.Token, error)
}
