package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hoverlearn/hoverlearn/internal/database"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// VideoRepository defines operations on the video catalog.
type VideoRepository interface {
	// List returns videos, optionally filtered by a title substring.
	List(ctx context.Context, query string) ([]Video, error)
	Find(ctx context.Context, id int64) (*Video, error)
	Create(ctx context.Context, video *Video) error
}

// NoteRepository defines operations on user video notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	// ListByUserVideo returns a user's notes for one video, newest first.
	ListByUserVideo(ctx context.Context, userID string, videoID int64) ([]Note, error)
	// ListByUser returns all of a user's notes, newest first.
	ListByUser(ctx context.Context, userID string) ([]Note, error)
	// Delete removes a note owned by userID; ErrNotFound otherwise.
	Delete(ctx context.Context, id int64, userID string) error
}

// HistoryRepository defines operations on watch history.
type HistoryRepository interface {
	Upsert(ctx context.Context, userID string, videoID int64, position float64) error
	// Find returns the history row, or nil when the user has not watched
	// the video yet.
	Find(ctx context.Context, userID string, videoID int64) (*WatchHistory, error)
}

// VoteRepository defines operations on video votes.
type VoteRepository interface {
	// Toggle applies a vote: a first vote is recorded, repeating the same
	// vote removes it, and voting the other way switches it. It returns the
	// tallies after the change.
	Toggle(ctx context.Context, userID string, videoID int64, vote Vote) (VoteTally, error)
	Tally(ctx context.Context, videoID int64) (VoteTally, error)
}

// DBVideoRepository implements VideoRepository using MySQL.
type DBVideoRepository struct {
	db *sqlx.DB
}

// NewDBVideoRepository creates a new DBVideoRepository.
func NewDBVideoRepository(db *sqlx.DB) *DBVideoRepository {
	return &DBVideoRepository{db: db}
}

// List returns videos newest first; a non-empty query filters by title.
func (r *DBVideoRepository) List(ctx context.Context, query string) ([]Video, error) {
	var videos []Video
	var err error
	if query != "" {
		err = r.db.SelectContext(ctx, &videos,
			"SELECT * FROM videos WHERE title LIKE ? ORDER BY created_at DESC, id DESC",
			"%"+query+"%")
	} else {
		err = r.db.SelectContext(ctx, &videos, "SELECT * FROM videos ORDER BY created_at DESC, id DESC")
	}
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// Find returns one video by id.
func (r *DBVideoRepository) Find(ctx context.Context, id int64) (*Video, error) {
	var video Video
	err := r.db.GetContext(ctx, &video, "SELECT * FROM videos WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	return &video, nil
}

// Create inserts a video and fills in its generated ID.
func (r *DBVideoRepository) Create(ctx context.Context, video *Video) error {
	result, err := r.db.NamedExecContext(ctx,
		"INSERT INTO videos (title, video_key, subtitle_key, thumbnail_key) VALUES (:title, :video_key, :subtitle_key, :thumbnail_key)",
		video)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("video insert id: %w", err)
	}
	video.ID = id
	return nil
}

// DBNoteRepository implements NoteRepository using MySQL.
type DBNoteRepository struct {
	db *sqlx.DB
}

// NewDBNoteRepository creates a new DBNoteRepository.
func NewDBNoteRepository(db *sqlx.DB) *DBNoteRepository {
	return &DBNoteRepository{db: db}
}

// Create inserts a note and fills in its generated ID.
func (r *DBNoteRepository) Create(ctx context.Context, note *Note) error {
	result, err := r.db.NamedExecContext(ctx,
		"INSERT INTO video_notes (user_id, video_id, content, timestamp) VALUES (:user_id, :video_id, :content, :timestamp)",
		note)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("note insert id: %w", err)
	}
	note.ID = id
	return nil
}

// ListByUserVideo returns a user's notes for one video, newest first.
func (r *DBNoteRepository) ListByUserVideo(ctx context.Context, userID string, videoID int64) ([]Note, error) {
	var notes []Note
	err := r.db.SelectContext(ctx, &notes,
		"SELECT * FROM video_notes WHERE user_id = ? AND video_id = ? ORDER BY created_at DESC, id DESC",
		userID, videoID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListByUser returns all of a user's notes, newest first.
func (r *DBNoteRepository) ListByUser(ctx context.Context, userID string) ([]Note, error) {
	var notes []Note
	err := r.db.SelectContext(ctx, &notes,
		"SELECT * FROM video_notes WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note only when it belongs to userID.
func (r *DBNoteRepository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM video_notes WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DBHistoryRepository implements HistoryRepository using MySQL.
type DBHistoryRepository struct {
	db *sqlx.DB
}

// NewDBHistoryRepository creates a new DBHistoryRepository.
func NewDBHistoryRepository(db *sqlx.DB) *DBHistoryRepository {
	return &DBHistoryRepository{db: db}
}

// Upsert records the last playback position for (user, video).
func (r *DBHistoryRepository) Upsert(ctx context.Context, userID string, videoID int64, position float64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO watch_histories (user_id, video_id, last_position) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE last_position = VALUES(last_position)",
		userID, videoID, position)
	if err != nil {
		return fmt.Errorf("upsert watch history: %w", err)
	}
	return nil
}

// Find returns the history row for (user, video), nil when unwatched.
func (r *DBHistoryRepository) Find(ctx context.Context, userID string, videoID int64) (*WatchHistory, error) {
	var history WatchHistory
	err := r.db.GetContext(ctx, &history,
		"SELECT * FROM watch_histories WHERE user_id = ? AND video_id = ?",
		userID, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find watch history: %w", err)
	}
	return &history, nil
}

// DBVoteRepository implements VoteRepository using MySQL.
type DBVoteRepository struct {
	db *sqlx.DB
}

// NewDBVoteRepository creates a new DBVoteRepository.
func NewDBVoteRepository(db *sqlx.DB) *DBVoteRepository {
	return &DBVoteRepository{db: db}
}

// Toggle applies a vote inside one transaction so concurrent re-votes from
// the same user cannot leave both an up and a down row.
func (r *DBVoteRepository) Toggle(ctx context.Context, userID string, videoID int64, vote Vote) (VoteTally, error) {
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current,
			"SELECT vote FROM video_votes WHERE user_id = ? AND video_id = ? FOR UPDATE",
			userID, videoID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				"INSERT INTO video_votes (user_id, video_id, vote) VALUES (?, ?, ?)",
				userID, videoID, string(vote))
		case err != nil:
			return fmt.Errorf("read current vote: %w", err)
		case Vote(current) == vote:
			_, err = tx.ExecContext(ctx,
				"DELETE FROM video_votes WHERE user_id = ? AND video_id = ?",
				userID, videoID)
		default:
			_, err = tx.ExecContext(ctx,
				"UPDATE video_votes SET vote = ? WHERE user_id = ? AND video_id = ?",
				string(vote), userID, videoID)
		}
		if err != nil {
			return fmt.Errorf("apply vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return VoteTally{}, err
	}
	return r.Tally(ctx, videoID)
}

// Tally returns the current vote counts for a video.
func (r *DBVoteRepository) Tally(ctx context.Context, videoID int64) (VoteTally, error) {
	var tally VoteTally
	err := r.db.GetContext(ctx, &tally,
		"SELECT COALESCE(SUM(vote = 'up'), 0) AS up, COALESCE(SUM(vote = 'down'), 0) AS down "+
			"FROM video_votes WHERE video_id = ?",
		videoID)
	if err != nil {
		return VoteTally{}, fmt.Errorf("tally votes: %w", err)
	}
	return tally, nil
}
