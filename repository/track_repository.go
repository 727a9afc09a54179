package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Vibe/logger"
	"Vibe/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) error
	GetTrackByID(ctx context.Context, id string) (*model.Track, error)
	ListTracks(ctx context.Context) ([]model.Track, error)
	GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

// CreateTrack adds a new track. The caller supplies the id.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) error {
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}
	query := `INSERT INTO songs (` + songColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		track.ID, track.Name, track.ArtistName, track.ArtistID, track.AlbumName, track.AlbumID,
		track.AlbumImage, track.AudioURL, track.Duration, track.UserID, track.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute CreateTrack: %w", err)
	}
	logger.Info("Track created", logger.String("trackId", track.ID), logger.String("name", track.Name))
	return nil
}

// GetTrackByID retrieves a track by its ID. A missing track yields nil, nil.
func (r *mysqlTrackRepository) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	var row songRow
	err := r.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id).Scan(row.scanTargets()...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	t, ok := row.toTrack()
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListTracks returns the whole catalog, newest first.
func (r *mysqlTrackRepository) ListTracks(ctx context.Context) ([]model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+songColumns+` FROM songs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	return scanTracks(rows)
}

// GetTracksByIDs returns the tracks whose ids are in ids, in catalog order.
func (r *mysqlTrackRepository) GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error) {
	if len(ids) == 0 {
		return []model.Track{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id IN (`+placeholders+`) ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks by ids: %w", err)
	}
	return scanTracks(rows)
}

func scanTracks(rows *sql.Rows) ([]model.Track, error) {
	defer rows.Close()

	tracks := []model.Track{}
	for rows.Next() {
		var row songRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		if t, ok := row.toTrack(); ok {
			tracks = append(tracks, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating track rows: %w", err)
	}
	return tracks, nil
}
