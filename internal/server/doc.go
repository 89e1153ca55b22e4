// Package server provides HTTP routing, middleware, and the OAuth handling behind `foxhole auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the middleware the login server installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the Google OAuth2 authorization code callback.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Loopback Login
//
// [Login] starts a temporary HTTP server on the configured redirect address (127.0.0.1:8085 by default),
// opens the consent page, waits for the callback and shuts the server down once a token arrives.
package server
