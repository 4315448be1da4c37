package catalog

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "mysql"), mock
}

func videoColumns() []string {
	return []string{"id", "title", "video_key", "subtitle_key", "thumbnail_key", "created_at"}
}

func TestDBVideoRepository_List(t *testing.T) {
	now := time.Now()

	t.Run("no filter", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM videos ORDER BY created_at DESC, id DESC")).
			WillReturnRows(sqlmock.NewRows(videoColumns()).
				AddRow(2, "Ocean Life", "v/ocean.mp4", "s/ocean.srt", nil, now).
				AddRow(1, "City Walks", "v/city.mp4", "s/city.srt", "t/city.jpg", now))

		videos, err := NewDBVideoRepository(db).List(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, videos, 2)
		assert.Equal(t, "Ocean Life", videos[0].Title)
		assert.False(t, videos[0].ThumbnailKey.Valid)
		assert.Equal(t, "t/city.jpg", videos[1].ThumbnailKey.String)
	})

	t.Run("title filter", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM videos WHERE title LIKE ? ORDER BY created_at DESC, id DESC")).
			WithArgs("%ocean%").
			WillReturnRows(sqlmock.NewRows(videoColumns()).
				AddRow(2, "Ocean Life", "v/ocean.mp4", "s/ocean.srt", nil, now))

		videos, err := NewDBVideoRepository(db).List(context.Background(), "ocean")
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, int64(2), videos[0].ID)
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM videos")).
			WillReturnError(errors.New("db down"))

		_, err := NewDBVideoRepository(db).List(context.Background(), "")
		assert.ErrorContains(t, err, "list videos")
	})
}

func TestDBVideoRepository_Find(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM videos WHERE id = ?")).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(videoColumns()).
				AddRow(5, "Ocean Life", "v/ocean.mp4", "s/ocean.srt", nil, time.Now()))

		video, err := NewDBVideoRepository(db).Find(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, "Ocean Life", video.Title)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM videos WHERE id = ?")).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		_, err := NewDBVideoRepository(db).Find(context.Background(), 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDBVideoRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO videos (title, video_key, subtitle_key, thumbnail_key) VALUES (?, ?, ?, ?)")).
		WithArgs("Ocean Life", "v/ocean.mp4", "s/ocean.srt", sql.NullString{String: "t/ocean.jpg", Valid: true}).
		WillReturnResult(sqlmock.NewResult(7, 1))

	video := Video{
		Title:        "Ocean Life",
		VideoKey:     "v/ocean.mp4",
		SubtitleKey:  "s/ocean.srt",
		ThumbnailKey: sql.NullString{String: "t/ocean.jpg", Valid: true},
	}
	require.NoError(t, NewDBVideoRepository(db).Create(context.Background(), &video))
	assert.Equal(t, int64(7), video.ID)
}

func TestDBNoteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO video_notes (user_id, video_id, content, timestamp) VALUES (?, ?, ?, ?)")).
		WithArgs("alice", int64(5), "great phrase", sql.NullFloat64{Float64: 12.5, Valid: true}).
		WillReturnResult(sqlmock.NewResult(3, 1))

	note := Note{
		UserID:    "alice",
		VideoID:   5,
		Content:   "great phrase",
		Timestamp: sql.NullFloat64{Float64: 12.5, Valid: true},
	}
	require.NoError(t, NewDBNoteRepository(db).Create(context.Background(), &note))
	assert.Equal(t, int64(3), note.ID)
}

func TestDBNoteRepository_ListByUserVideo(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM video_notes WHERE user_id = ? AND video_id = ? ORDER BY created_at DESC, id DESC")).
		WithArgs("alice", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "video_id", "content", "timestamp", "created_at"}).
			AddRow(3, "alice", 5, "great phrase", 12.5, time.Now()).
			AddRow(2, "alice", 5, "start here", nil, time.Now()))

	notes, err := NewDBNoteRepository(db).ListByUserVideo(context.Background(), "alice", 5)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "great phrase", notes[0].Content)
	assert.False(t, notes[1].Timestamp.Valid)
}

func TestDBNoteRepository_Delete(t *testing.T) {
	t.Run("owned", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM video_notes WHERE id = ? AND user_id = ?")).
			WithArgs(int64(3), "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewDBNoteRepository(db).Delete(context.Background(), 3, "alice"))
	})

	t.Run("not owned", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM video_notes WHERE id = ? AND user_id = ?")).
			WithArgs(int64(3), "mallory").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewDBNoteRepository(db).Delete(context.Background(), 3, "mallory")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDBHistoryRepository(t *testing.T) {
	t.Run("upsert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO watch_histories (user_id, video_id, last_position) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE last_position = VALUES(last_position)")).
			WithArgs("alice", int64(5), 42.5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewDBHistoryRepository(db).Upsert(context.Background(), "alice", 5, 42.5))
	})

	t.Run("find hit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM watch_histories WHERE user_id = ? AND video_id = ?")).
			WithArgs("alice", int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "video_id", "last_position", "updated_at"}).
				AddRow("alice", 5, 42.5, time.Now()))

		history, err := NewDBHistoryRepository(db).Find(context.Background(), "alice", 5)
		require.NoError(t, err)
		assert.Equal(t, 42.5, history.LastPosition)
	})

	t.Run("find miss returns nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM watch_histories WHERE user_id = ? AND video_id = ?")).
			WithArgs("bob", int64(5)).
			WillReturnError(sql.ErrNoRows)

		history, err := NewDBHistoryRepository(db).Find(context.Background(), "bob", 5)
		require.NoError(t, err)
		assert.Nil(t, history)
	})
}

func TestDBVoteRepository_Toggle(t *testing.T) {
	selectVote := regexp.QuoteMeta("SELECT vote FROM video_votes WHERE user_id = ? AND video_id = ? FOR UPDATE")
	tallyQuery := regexp.QuoteMeta("SELECT COALESCE(SUM(vote = 'up'), 0) AS up, COALESCE(SUM(vote = 'down'), 0) AS down FROM video_votes WHERE video_id = ?")
	tallyRows := func(up, down int64) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"up", "down"}).AddRow(up, down)
	}

	t.Run("first vote inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectVote).WithArgs("alice", int64(5)).WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO video_votes (user_id, video_id, vote) VALUES (?, ?, ?)")).
			WithArgs("alice", int64(5), "up").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(tallyQuery).WithArgs(int64(5)).WillReturnRows(tallyRows(1, 0))

		tally, err := NewDBVoteRepository(db).Toggle(context.Background(), "alice", 5, VoteUp)
		require.NoError(t, err)
		assert.Equal(t, VoteTally{Up: 1, Down: 0}, tally)
	})

	t.Run("same vote removes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectVote).WithArgs("alice", int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"vote"}).AddRow("up"))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM video_votes WHERE user_id = ? AND video_id = ?")).
			WithArgs("alice", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(tallyQuery).WithArgs(int64(5)).WillReturnRows(tallyRows(0, 0))

		tally, err := NewDBVoteRepository(db).Toggle(context.Background(), "alice", 5, VoteUp)
		require.NoError(t, err)
		assert.Equal(t, VoteTally{}, tally)
	})

	t.Run("opposite vote switches", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectVote).WithArgs("alice", int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"vote"}).AddRow("up"))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE video_votes SET vote = ? WHERE user_id = ? AND video_id = ?")).
			WithArgs("down", "alice", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(tallyQuery).WithArgs(int64(5)).WillReturnRows(tallyRows(0, 1))

		tally, err := NewDBVoteRepository(db).Toggle(context.Background(), "alice", 5, VoteDown)
		require.NoError(t, err)
		assert.Equal(t, VoteTally{Up: 0, Down: 1}, tally)
	})

	t.Run("read error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectVote).WithArgs("alice", int64(5)).
			WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		_, err := NewDBVoteRepository(db).Toggle(context.Background(), "alice", 5, VoteUp)
		assert.ErrorContains(t, err, "read current vote")
	})
}
