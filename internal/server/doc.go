// Package server runs the short-lived loopback HTTP server that completes an OAuth authorization code flow.
//
// # Consent Flow
//
// [Consent.Run] listens on the host and port of the configured redirect URL, opens the authorization page in the
// browser, and waits for the provider to redirect back. Port 0 picks a free port and rewrites the redirect URL.
// Requests carry a random state and a PKCE challenge; the code is exchanged with the matching verifier.
//
// The server shuts down as soon as one callback has been handled, the context is cancelled, or the timeout elapses.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] and applies [Middleware] in reverse order (last added executes first).
// [LoggingMiddleware] records each callback request without its query string.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for a token, and sends the
// result through a channel. It only processes one callback.
package server
