// Package server provides HTTP routing, middleware and the handlers of the pixtape web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns. Every route gets the chi
// request ID, real IP and panic recovery middleware plus [RequestLogger], which logs the request and
// records its latency in Prometheus.
//
// # Routes
//
//	GET  /               → browser client
//	GET  /static/*       → client scripts and styles
//	GET  /health         → liveness
//	GET  /metrics        → Prometheus metrics
//	GET  /auth/login     → redirect to the music service consent page
//	GET  /auth/callback  → finish login, redirect to /?auth_status=success or /?auth_error=<code>
//	POST /auth/logout    → end the session
//	GET  /api/me         → current user (session required)
//	POST /api/upload     → multipart "image" field, returns the image ID
//	POST /api/analyze    → {"imageId"} → analysis result
//	POST /api/recommend  → {"imageId"} → songs, resolved to tracks when logged in
//	POST /api/playlist   → {"name", "description", "trackUris"} (session required)
//
// # Sessions
//
// [Sessions] resolves the caller through [auth.Resolver], reissues the session cookie after an
// identity hint recovery and refreshes the access token through [auth.TokenManager] before the handler
// runs. Refresh failures never fail the request.
//
// # Errors
//
// Handlers answer {"error": "..."} with a status derived from the shared sentinel errors. Upstream
// failures keep the upstream status code and message.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
