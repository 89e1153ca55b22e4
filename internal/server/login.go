package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/shared"
	"golang.org/x/oauth2"
)

const defaultLoginTimeout = 2 * time.Minute

// LoginOptions configures [Login].
type LoginOptions struct {
	// Config is the installed-app OAuth config. An empty RedirectURL listens on a free loopback port.
	Config  *oauth2.Config
	Timeout time.Duration
	// Open presents the consent URL to the user, typically by launching a browser.
	Open   func(authURL string) error
	Logger *log.Logger
}

// Login runs the loopback authorization code flow: it serves /callback on the redirect address,
// hands the consent URL to Open and waits for the token.
func Login(ctx context.Context, opts LoginOptions) (*oauth2.Token, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: oauth config", shared.ErrMissingArgument)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultLoginTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	config := *opts.Config
	addr := "127.0.0.1:0"
	if config.RedirectURL != "" {
		u, err := url.Parse(config.RedirectURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%w: redirect uri %q", shared.ErrInvalidConfig, config.RedirectURL)
		}
		if u.Path != "/callback" {
			return nil, fmt.Errorf("%w: redirect uri must end in /callback", shared.ErrInvalidConfig)
		}
		addr = u.Host
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if config.RedirectURL == "" {
		config.RedirectURL = "http://" + ln.Addr().String() + "/callback"
	}

	handler := NewOAuthHandler(&config, shared.GenerateID())
	router := NewBasicRouter()
	router.Use(RequestLogger(opts.Logger), Recoverer(opts.Logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		opts.Logger.Info("waiting for oauth callback", "redirect_uri", config.RedirectURL)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			opts.Logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := handler.AuthCodeURL()
	if opts.Open != nil {
		if err := opts.Open(authURL); err != nil {
			opts.Logger.Warn("failed to open browser automatically", "err", err)
		}
	}

	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()

	var result OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrAuthFailed, opts.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
