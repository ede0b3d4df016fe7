// Package auth owns the Spotify credential lifecycle of a browser session.
//
// # Token lifecycle
//
// A [models.Credential] is either valid or expiring. It becomes expiring once the current time is
// within the refresh skew (five minutes by default) of its expiry. [TokenManager.EnsureFresh] runs
// on every authenticated request: an expiring credential with a refresh token is exchanged through
// a [Refresher], and the result is written back to the [SessionStore] before the request continues.
//
// Refresh is fail-open. When there is no refresh token or the exchange fails, the stale credential
// is returned unchanged and the downstream call either succeeds or surfaces the upstream 401.
//
// # Session continuity
//
// [Resolver] maps a request to a credential in two tiers:
//  1. the signed session cookie, whose session ID is looked up in the store
//  2. the identity hint cookie set at login, whose subject ID is used to find the latest credential
//     for that user and mint a fresh session pointing at it
//
// The second tier keeps users logged in when the signed cookie is lost or its keys rotate (random
// keys are generated per process when none are configured). The hint is a plain cookie and is not
// cryptographically bound to the user; disable it with session.allow_identity_hint = false.
package auth
