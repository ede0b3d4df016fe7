package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
)

// SessionRepository implements [auth.SessionStore] on SQLite.
type SessionRepository struct {
	db  *sql.DB
	now clock
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: utcNow}
}

const sessionColumns = `subject_id, display_name, email, access_token, refresh_token, expires_at`

// Get retrieves the credential stored under sessionID
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Credential, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, sessionID), sessionID)
}

// FindBySubject returns the session ID and credential most recently written for subjectID
func (r *SessionRepository) FindBySubject(ctx context.Context, subjectID string) (string, *models.Credential, error) {
	query := `
		SELECT id, ` + sessionColumns + `
		FROM sessions
		WHERE subject_id = ?
		ORDER BY updated_at DESC, rowid DESC
		LIMIT 1
	`

	var sessionID string
	cred, err := r.scan(r.db.QueryRowContext(ctx, query, subjectID), "subject "+subjectID, &sessionID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, cred, nil
}

// Set inserts or replaces the credential stored under sessionID
func (r *SessionRepository) Set(ctx context.Context, sessionID string, cred *models.Credential) error {
	if sessionID == "" || cred == nil {
		return fmt.Errorf("%w: session id and credential are required", shared.ErrInvalidInput)
	}

	now := r.now()
	query := `
		INSERT INTO sessions (id, ` + sessionColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			display_name = excluded.display_name,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		sessionID,
		cred.SubjectID,
		cred.DisplayName,
		nullString(cred.Email),
		cred.AccessToken,
		nullString(cred.RefreshToken),
		cred.ExpiresAt.UTC(),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteBySubject removes every session of subjectID
func (r *SessionRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE subject_id = ?`, subjectID); err != nil {
		return fmt.Errorf("failed to delete sessions for subject: %w", err)
	}
	return nil
}

// Prune deletes sessions that have not been written since before and returns how many were removed.
func (r *SessionRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// scan reads a credential row. Extra destinations are filled from the columns preceding
// sessionColumns.
func (r *SessionRepository) scan(row *sql.Row, key string, extra ...any) (*models.Credential, error) {
	var (
		cred         models.Credential
		email        sql.NullString
		refreshToken sql.NullString
	)

	dest := append(extra, &cred.SubjectID, &cred.DisplayName, &email, &cred.AccessToken, &refreshToken, &cred.ExpiresAt)
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	cred.Email = email.String
	cred.RefreshToken = refreshToken.String
	return &cred, nil
}
