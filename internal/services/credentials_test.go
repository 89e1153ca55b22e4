package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/foxhole/internal/shared"
	"golang.org/x/oauth2"
)

const testSecrets = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	t.Setenv("YOUTUBE_API_KEY", "")
	cfg := shared.DefaultConfig()
	cfg.Storage.Directory = t.TempDir()
	cfg.Credentials.YouTube.APIKey = ""
	return cfg
}

func TestCredentials(t *testing.T) {
	t.Run("OAuthConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), shared.SecretsFileName)
		os.WriteFile(path, []byte(testSecrets), 0600)

		cfg, err := OAuthConfig(path, "http://127.0.0.1:8085/callback")
		if err != nil {
			t.Fatalf("failed to build config: %v", err)
		}
		if cfg.ClientID != "client-id.apps.googleusercontent.com" {
			t.Errorf("unexpected client id %q", cfg.ClientID)
		}
		if cfg.RedirectURL != "http://127.0.0.1:8085/callback" {
			t.Errorf("redirect should be overridden, got %q", cfg.RedirectURL)
		}
	})

	t.Run("OAuthConfig missing file", func(t *testing.T) {
		_, err := OAuthConfig(filepath.Join(t.TempDir(), "nope.json"), "")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("OAuthConfig invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), shared.SecretsFileName)
		os.WriteFile(path, []byte(`{"web":`), 0600)
		if _, err := OAuthConfig(path, ""); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("token round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", shared.TokenFileName)
		token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

		if err := SaveToken(path, token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}
		info, _ := os.Stat(path)
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("failed to load token: %v", err)
		}
		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" || !loaded.Expiry.Equal(token.Expiry) {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("LoadToken missing", func(t *testing.T) {
		if _, err := LoadToken(filepath.Join(t.TempDir(), "token.json")); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("ImportClientSecrets", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "downloaded.json")
		dest := filepath.Join(dir, "store", shared.SecretsFileName)
		os.WriteFile(src, []byte(testSecrets), 0644)

		if err := ImportClientSecrets(src, dest); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if data, _ := os.ReadFile(dest); string(data) != testSecrets {
			t.Error("secrets should be copied verbatim")
		}

		os.WriteFile(src, []byte("garbage"), 0644)
		if err := ImportClientSecrets(src, dest); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("ClientOptions", func(t *testing.T) {
		t.Run("prefers token", func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Credentials.YouTube.APIKey = "key"
			os.WriteFile(cfg.SecretsPath(), []byte(testSecrets), 0600)
			SaveToken(cfg.TokenPath(), &oauth2.Token{AccessToken: "access"})

			opts, err := ClientOptions(context.Background(), cfg)
			if err != nil || len(opts) != 1 {
				t.Fatalf("expected one option, got %d, %v", len(opts), err)
			}
		})

		t.Run("falls back to api key", func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Credentials.YouTube.APIKey = "key"

			opts, err := ClientOptions(context.Background(), cfg)
			if err != nil || len(opts) != 1 {
				t.Fatalf("expected one option, got %d, %v", len(opts), err)
			}
		})

		t.Run("no credentials", func(t *testing.T) {
			cfg := testConfig(t)
			if _, err := ClientOptions(context.Background(), cfg); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})
}
