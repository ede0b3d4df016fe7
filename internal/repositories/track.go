package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
)

// TrackRepository stores catalog search results so that a song recommended twice is only searched once.
type TrackRepository struct {
	db  *sql.DB
	now clock
}

// NewTrackRepository creates a new [TrackRepository] with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db, now: utcNow}
}

// Get returns the stored match for title and artist, or [shared.ErrTrackNotFound].
func (r *TrackRepository) Get(ctx context.Context, title, artist string) (*services.Track, error) {
	query := `
		SELECT track_id, title, artist, uri, preview_url
		FROM track_matches
		WHERE title_key = ? AND artist_key = ?
	`

	var (
		track      services.Track
		previewURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, normalize(title), normalize(artist)).
		Scan(&track.ID, &track.Title, &track.Artist, &track.URI, &previewURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, title, artist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}

	track.PreviewURL = previewURL.String
	return &track, nil
}

// Put stores track as the match for title and artist, replacing any previous match.
func (r *TrackRepository) Put(ctx context.Context, title, artist string, track *services.Track) error {
	titleKey := normalize(title)
	if titleKey == "" || track == nil || track.URI == "" {
		return fmt.Errorf("%w: title and track uri are required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO track_matches (title_key, artist_key, track_id, title, artist, uri, preview_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title_key, artist_key) DO UPDATE SET
			track_id = excluded.track_id,
			title = excluded.title,
			artist = excluded.artist,
			uri = excluded.uri,
			preview_url = excluded.preview_url
	`

	_, err := r.db.ExecContext(ctx, query,
		titleKey,
		normalize(artist),
		track.ID,
		track.Title,
		track.Artist,
		track.URI,
		nullString(track.PreviewURL),
		r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save track: %w", err)
	}
	return nil
}

// Count returns the number of stored matches.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}
