// Package repositories implements SQLite persistence for sessions and catalog lookups.
//
// Key Implementations:
//   - [SessionRepository] : [auth.SessionStore] backed by the sessions table, with a subject index used
//     for session recovery
//   - [TrackRepository] : catalog search results keyed by normalized title and artist, so repeated
//     recommendations do not hit the music API again
//
// Tables are created by the embedded migrations in the shared package.
package repositories
