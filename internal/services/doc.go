// Package services implements the HTTP clients for the external APIs pixtape orchestrates.
//
// # Vision
//
// [GoogleVisionClient] sends an image to the Cloud Vision images:annotate endpoint and returns the raw
// [vision.Annotation]. Post-processing happens in the vision package.
//
// # Language Model
//
// [ChatClient] talks to any OpenAI-compatible chat completions endpoint. It asks for a JSON object
// and parses it into [models.Recommendation] values. A reply that cannot be parsed yields an empty
// list, never an error.
//
// # Spotify
//
// [SpotifyService] builds the OAuth2 configuration used by the login flow and performs the Web API
// calls made on behalf of a user: profile lookup, track search, playlist creation and track
// insertion. Every call takes the caller's access token; token refresh is handled by the auth
// package.
//
// # Error Handling
//
// All clients share one transport helper that applies a per-upstream rate limit, records latency
// and converts non-2xx replies into [*UpstreamError], which wraps [shared.ErrAPIRequest]:
//   - [shared.ErrMissingCredentials] : API key or client credentials not configured
//   - [shared.ErrNotAuthenticated] : Spotify call made without an access token
//   - [shared.ErrTrackNotFound] : search returned no results
//   - [shared.ErrParseFailure] : 2xx reply with a body that does not decode
//
// Nothing is retried locally.
package services
