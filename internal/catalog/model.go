// Package catalog holds the video catalog and the per-user records layered
// on it: notes, watch history, and votes.
package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Video is a catalog item. The *Key fields are opaque media-store
// references, not filesystem paths.
type Video struct {
	ID           int64          `db:"id"`
	Title        string         `db:"title"`
	VideoKey     string         `db:"video_key"`
	SubtitleKey  string         `db:"subtitle_key"`
	ThumbnailKey sql.NullString `db:"thumbnail_key"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Note is a user's note on a video, optionally anchored to a timestamp in
// seconds.
type Note struct {
	ID        int64           `db:"id"`
	UserID    string          `db:"user_id"`
	VideoID   int64           `db:"video_id"`
	Content   string          `db:"content"`
	Timestamp sql.NullFloat64 `db:"timestamp"`
	CreatedAt time.Time       `db:"created_at"`
}

// FormattedTimestamp renders the anchor as M:SS, or "" when the note has no
// timestamp.
func (n Note) FormattedTimestamp() string {
	if !n.Timestamp.Valid {
		return ""
	}
	total := int(n.Timestamp.Float64)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// WatchHistory tracks the last playback position per user and video.
type WatchHistory struct {
	UserID       string    `db:"user_id"`
	VideoID      int64     `db:"video_id"`
	LastPosition float64   `db:"last_position"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Vote is a user's up/down vote on a video.
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// ParseVote validates a vote type from the request path.
func ParseVote(s string) (Vote, error) {
	switch Vote(s) {
	case VoteUp, VoteDown:
		return Vote(s), nil
	}
	return "", fmt.Errorf("invalid vote type: %q", s)
}

// VoteTally is the current vote counts for a video.
type VoteTally struct {
	Up   int64 `db:"up" json:"up"`
	Down int64 `db:"down" json:"down"`
}
