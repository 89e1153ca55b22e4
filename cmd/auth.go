package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/foxhole/internal/server"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSetCredentials copies a Google OAuth client secrets file into the configured location.
func (r *Runner) AuthSetCredentials(ctx context.Context, cmd *cli.Command) error {
	src := shared.ExpandPath(cmd.String("file"))
	if src == "" {
		return fmt.Errorf("%w: --file", shared.ErrMissingArgument)
	}

	dest := r.config.SecretsPath()
	if err := services.ImportClientSecrets(src, dest); err != nil {
		return err
	}
	r.logger.Info("stored client secrets", "path", dest)
	return r.writePlain("Client secrets saved. Run 'foxhole auth login' to authorize playlist access.\n")
}

// AuthLogin runs the browser OAuth flow and stores the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	oauthConfig, err := services.OAuthConfig(r.config.SecretsPath(), r.config.Credentials.YouTube.RedirectURI)
	if err != nil {
		return err
	}

	token, err := server.Login(ctx, server.LoginOptions{
		Config: oauthConfig,
		Open: func(authURL string) error {
			r.writePlain("Opening browser for authorization. If it does not open, visit:\n%s\n", authURL)
			return r.openBrowser(authURL)
		},
		Logger: shared.WithLogger(r.logger, "component", "oauth"),
	})
	if err != nil {
		return err
	}

	path := r.config.TokenPath()
	if err := services.SaveToken(path, token); err != nil {
		return err
	}
	r.logger.Info("stored oauth token", "path", path)
	return r.writePlain("✓ Authorized. Token saved to %s\n", path)
}

// AuthStatus reports which credentials are available.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	yt := r.config.Credentials.YouTube

	apiKey := "not set"
	if yt.APIKey != "" {
		apiKey = "set"
	}
	r.writePlain("API key:        %s\n", apiKey)
	r.writePlain("Client secrets: %s\n", fileStatus(r.config.SecretsPath()))

	token, err := services.LoadToken(r.config.TokenPath())
	switch {
	case err == nil && token.RefreshToken != "":
		r.writePlain("OAuth token:    present (%s)\n", r.config.TokenPath())
	case err == nil:
		r.writePlain("OAuth token:    present without refresh token, run 'foxhole auth login'\n")
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.writePlain("OAuth token:    missing, run 'foxhole auth login'\n")
	default:
		return err
	}
	return nil
}

func fileStatus(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "missing (" + path + ")"
	}
	return "present (" + path + ")"
}
