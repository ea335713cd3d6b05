// Package server exposes MelodyMind over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] internally with method filtering.
//
// # API
//
// [API] serves the browser-facing endpoints: Spotify and Google logins with their callbacks,
// playlist listing, quiz preparation for trivia or transfer mode, transfer status and cancellation.
// Requests are scoped to a session taken from the X-Session-ID header or the mm_session cookie.
// Domain errors map to status codes through [StatusCode] and are written as {"detail": "..."}.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves one OAuth2 authorization code callback for the CLI login commands.
// It validates the state parameter, exchanges the code and sends the result through a channel.
// It only processes one callback.
package server
