package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/foxhole/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// OAuthConfig builds the installed-app OAuth2 config from a Google client secrets file.
func OAuthConfig(secretsPath, redirectURI string) (*oauth2.Config, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: client secrets not found at %s", shared.ErrMissingCredentials, secretsPath)
		}
		return nil, fmt.Errorf("failed to read client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(data, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
	if redirectURI != "" {
		config.RedirectURL = redirectURI
	}
	return config, nil
}

// LoadToken reads a token previously stored by [SaveToken].
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no token at %s, run 'foxhole auth login'", shared.ErrNotAuthenticated, path)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
	return &token, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// ImportClientSecrets validates a client secrets file and copies it to dest.
func ImportClientSecrets(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read client secrets: %w", err)
	}
	if _, err := google.ConfigFromJSON(data, youtube.YoutubeForceSslScope); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return fmt.Errorf("failed to write client secrets: %w", err)
	}
	return nil
}

// ClientOptions picks API credentials from config.
// A stored OAuth token is preferred since playlist writes need user authorization; otherwise the API key is used.
func ClientOptions(ctx context.Context, cfg *shared.Config) ([]option.ClientOption, error) {
	token, tokenErr := LoadToken(cfg.TokenPath())
	if tokenErr == nil {
		oauthConfig, err := OAuthConfig(cfg.SecretsPath(), cfg.Credentials.YouTube.RedirectURI)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithTokenSource(oauthConfig.TokenSource(ctx, token))}, nil
	}
	if !errors.Is(tokenErr, shared.ErrNotAuthenticated) {
		return nil, tokenErr
	}

	if key := cfg.Credentials.YouTube.APIKey; key != "" {
		return []option.ClientOption{option.WithAPIKey(key)}, nil
	}
	return nil, fmt.Errorf("%w: set credentials.youtube.api_key or run 'foxhole auth login'", shared.ErrMissingCredentials)
}
