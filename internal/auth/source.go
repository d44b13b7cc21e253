package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig reads an installed-app client secret file
func OAuthConfig(clientSecretFile string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}
	return cfg, nil
}

// TokenSource returns a source for the cached user token. When the store is
// empty the granter runs once and its token is cached. Refreshed tokens are
// written back to the store.
func TokenSource(ctx context.Context, cfg *oauth2.Config, store TokenStore, granter Granter, log *zap.Logger) (oauth2.TokenSource, error) {
	token, err := store.Load()
	switch {
	case errors.Is(err, ErrTokenNotFound):
		log.Info("No cached token, starting authorization flow")
		token, err = granter.Grant(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to authorize: %w", err)
		}
		if err := store.Save(token); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	return &persistingSource{
		base:  cfg.TokenSource(ctx, token),
		store: store,
		last:  token.AccessToken,
		log:   log,
	}, nil
}

// persistingSource saves every token that differs from the last one seen
type persistingSource struct {
	base  oauth2.TokenSource
	store TokenStore
	log   *zap.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken != s.last {
		if err := s.store.Save(token); err != nil {
			s.log.Warn("Failed to cache refreshed token", zap.Error(err))
		} else {
			s.last = token.AccessToken
		}
	}
	return token, nil
}

// ServiceAccountCredentials reads a service account key file
func ServiceAccountCredentials(ctx context.Context, path string, scopes ...string) (*google.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account file: %w", err)
	}
	return creds, nil
}
