// Package server exposes word resolution and the video catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoverlearn/hoverlearn/internal/catalog"
	"github.com/hoverlearn/hoverlearn/internal/dictionary"
	"github.com/hoverlearn/hoverlearn/internal/identity"
	"github.com/hoverlearn/hoverlearn/internal/media"
	"github.com/hoverlearn/hoverlearn/internal/subtitle"
)

// WordResolver is the resolution engine surface the handlers need.
type WordResolver interface {
	Resolve(ctx context.Context, raw string) dictionary.Result
}

// Handler contains all HTTP handlers.
type Handler struct {
	resolver   WordResolver
	savedWords dictionary.SavedWordRepository
	videos     catalog.VideoRepository
	notes      catalog.NoteRepository
	history    catalog.HistoryRepository
	votes      catalog.VoteRepository
	media      media.Store
	logger     *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(
	resolver WordResolver,
	savedWords dictionary.SavedWordRepository,
	videos catalog.VideoRepository,
	notes catalog.NoteRepository,
	history catalog.HistoryRepository,
	votes catalog.VoteRepository,
	mediaStore media.Store,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		resolver:   resolver,
		savedWords: savedWords,
		videos:     videos,
		notes:      notes,
		history:    history,
		votes:      votes,
		media:      mediaStore,
		logger:     logger,
	}
}

// DefinitionCard is the payload for word lookups.
type DefinitionCard struct {
	Word        string   `json:"word"`
	Definition  string   `json:"definition"`
	Translation string   `json:"translation,omitempty"`
	Synonyms    []string `json:"synonyms"`
	Found       bool     `json:"found"`
}

// SavedWordResponse is one saved vocabulary item.
type SavedWordResponse struct {
	Word        string    `json:"word"`
	Meaning     string    `json:"meaning"`
	Translation string    `json:"translation,omitempty"`
	Synonyms    []string  `json:"synonyms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoteResponse is one video note.
type NoteResponse struct {
	ID                 int64     `json:"id"`
	VideoID            int64     `json:"video_id"`
	Content            string    `json:"content"`
	Timestamp          *float64  `json:"timestamp,omitempty"`
	FormattedTimestamp string    `json:"formatted_timestamp"`
	CreatedAt          time.Time `json:"created_at"`
}

// VideoResponse is one catalog item.
type VideoResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CueResponse is one subtitle cue with its text pre-split for hover lookups.
type CueResponse struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Text  string   `json:"text"`
	Words []string `json:"words"`
}

// WatchResponse is everything the player page needs.
type WatchResponse struct {
	Video        VideoResponse  `json:"video"`
	PlaybackURL  string         `json:"playback_url"`
	Cues         []CueResponse  `json:"cues"`
	Notes        []NoteResponse `json:"notes"`
	LastPosition float64        `json:"last_position"`
	JumpTo       *float64       `json:"jump_to,omitempty"`
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetDefinition handles GET /get-def/{word}. Resolution never fails at the
// HTTP level; a total miss still renders a not-found card.
func (h *Handler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	result := h.resolver.Resolve(r.Context(), word)
	writeJSON(w, http.StatusOK, newDefinitionCard(word, result))
}

// SaveWord handles POST /save-word/{word}: resolve, then persist the bundle
// under the raw-case word.
func (h *Handler) SaveWord(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	result := h.resolver.Resolve(r.Context(), word)

	saved := dictionary.NewSavedWord(word, result)
	if err := h.savedWords.Upsert(r.Context(), &saved); err != nil {
		h.logger.Error("save word", slog.String("word", word), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to save word")
		return
	}
	writeJSON(w, http.StatusOK, newSavedWordResponse(saved))
}

// DeleteSavedWord handles DELETE /words/{word}.
func (h *Handler) DeleteSavedWord(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	err := h.savedWords.Delete(r.Context(), word)
	if errors.Is(err, dictionary.ErrNotFound) {
		writeError(w, http.StatusNotFound, "word not saved")
		return
	}
	if err != nil {
		h.logger.Error("delete saved word", slog.String("word", word), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to delete word")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": word})
}

// MyList handles GET /my-list: saved words plus the caller's notes.
func (h *Handler) MyList(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.FromContext(r.Context())

	words, err := h.savedWords.FindAll(r.Context())
	if err != nil {
		h.logger.Error("list saved words", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list saved words")
		return
	}
	notes, err := h.notes.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list notes", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	wordResponses := make([]SavedWordResponse, 0, len(words))
	for _, word := range words {
		wordResponses = append(wordResponses, newSavedWordResponse(word))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"words": wordResponses,
		"notes": newNoteResponses(notes),
	})
}

// ListVideos handles GET /videos with an optional ?q= title filter.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list videos", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	responses := make([]VideoResponse, 0, len(videos))
	for _, video := range videos {
		responses = append(responses, newVideoResponse(video))
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": responses})
}

// Watch handles GET /videos/{id}/watch: metadata, a presigned playback URL,
// parsed cues, the caller's notes, and the resume position. An optional ?t=
// requests a jump; a non-numeric value is ignored.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	userID, _ := identity.FromContext(r.Context())

	video, err := h.videos.Find(r.Context(), videoID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		h.logger.Error("find video", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	playbackURL, err := h.media.PlaybackURL(r.Context(), video.VideoKey)
	if err != nil {
		h.logger.Error("presign playback", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to prepare playback")
		return
	}

	cues := h.loadCues(r.Context(), video.SubtitleKey)

	notes, err := h.notes.ListByUserVideo(r.Context(), userID, videoID)
	if err != nil {
		h.logger.Error("list video notes", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	var lastPosition float64
	if history, err := h.history.Find(r.Context(), userID, videoID); err != nil {
		h.logger.Warn("load watch history", slog.Int64("video_id", videoID), slog.Any("error", err))
	} else if history != nil {
		lastPosition = history.LastPosition
	}

	response := WatchResponse{
		Video:        newVideoResponse(*video),
		PlaybackURL:  playbackURL,
		Cues:         cues,
		Notes:        newNoteResponses(notes),
		LastPosition: lastPosition,
	}
	if t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64); err == nil && t >= 0 {
		response.JumpTo = &t
	}
	writeJSON(w, http.StatusOK, response)
}

// loadCues fetches and parses the subtitle object. Failures degrade to an
// empty cue list so playback still works.
func (h *Handler) loadCues(ctx context.Context, subtitleKey string) []CueResponse {
	body, err := h.media.Open(ctx, subtitleKey)
	if err != nil {
		h.logger.Warn("open subtitles", slog.String("key", subtitleKey), slog.Any("error", err))
		return []CueResponse{}
	}
	defer body.Close()

	cues, err := subtitle.Parse(body)
	if err != nil {
		h.logger.Warn("parse subtitles", slog.String("key", subtitleKey), slog.Any("error", err))
		return []CueResponse{}
	}

	responses := make([]CueResponse, 0, len(cues))
	for _, cue := range cues {
		responses = append(responses, CueResponse{
			Start: cue.Start,
			End:   cue.End,
			Text:  cue.Text,
			Words: strings.Fields(cue.Text),
		})
	}
	return responses
}

type createNoteRequest struct {
	Content   string          `json:"content"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// CreateNote handles POST /videos/{id}/notes and returns the refreshed note
// list for the video.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	userID, _ := identity.FromContext(r.Context())

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "note content is required")
		return
	}

	if _, err := h.videos.Find(r.Context(), videoID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.Error("find video", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	note := catalog.Note{
		UserID:  userID,
		VideoID: videoID,
		Content: req.Content,
	}
	// A non-numeric timestamp is treated as absent rather than an error.
	var timestamp float64
	if err := json.Unmarshal(req.Timestamp, &timestamp); err == nil {
		note.Timestamp.Float64 = timestamp
		note.Timestamp.Valid = true
	}

	if err := h.notes.Create(r.Context(), &note); err != nil {
		h.logger.Error("create note", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	notes, err := h.notes.ListByUserVideo(r.Context(), userID, videoID)
	if err != nil {
		h.logger.Error("list video notes", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"notes": newNoteResponses(notes)})
}

// DeleteNote handles DELETE /notes/{id}. Only the owner may delete a note.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	userID, _ := identity.FromContext(r.Context())

	err = h.notes.Delete(r.Context(), noteID, userID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		h.logger.Error("delete note", slog.Int64("note_id", noteID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": noteID})
}

type updateHistoryRequest struct {
	VideoID  int64   `json:"video_id"`
	Position float64 `json:"position"`
}

// UpdateHistory handles POST /update-history.
func (h *Handler) UpdateHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.FromContext(r.Context())

	var req updateHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID <= 0 || req.Position < 0 {
		writeError(w, http.StatusBadRequest, "invalid video id or position")
		return
	}

	if _, err := h.videos.Find(r.Context(), req.VideoID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		h.logger.Error("find video", slog.Int64("video_id", req.VideoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if err := h.history.Upsert(r.Context(), userID, req.VideoID, req.Position); err != nil {
		h.logger.Error("update history", slog.Int64("video_id", req.VideoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to update history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VoteVideo handles POST /videos/{id}/vote/{type} and returns the tallies
// after the toggle.
func (h *Handler) VoteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}
	vote, err := catalog.ParseVote(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vote type")
		return
	}
	userID, _ := identity.FromContext(r.Context())

	tally, err := h.votes.Toggle(r.Context(), userID, videoID, vote)
	if err != nil {
		h.logger.Error("toggle vote", slog.Int64("video_id", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to record vote")
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func newDefinitionCard(word string, result dictionary.Result) DefinitionCard {
	return DefinitionCard{
		Word:        word,
		Definition:  result.Definition,
		Translation: result.Translation,
		Synonyms:    result.Synonyms,
		Found:       result.Found,
	}
}

func newSavedWordResponse(word dictionary.SavedWord) SavedWordResponse {
	return SavedWordResponse{
		Word:        word.Word,
		Meaning:     word.Meaning,
		Translation: word.Translation.String,
		Synonyms:    word.SynonymList(),
		CreatedAt:   word.CreatedAt,
	}
}

func newNoteResponses(notes []catalog.Note) []NoteResponse {
	responses := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		response := NoteResponse{
			ID:                 note.ID,
			VideoID:            note.VideoID,
			Content:            note.Content,
			FormattedTimestamp: note.FormattedTimestamp(),
			CreatedAt:          note.CreatedAt,
		}
		if note.Timestamp.Valid {
			timestamp := note.Timestamp.Float64
			response.Timestamp = &timestamp
		}
		responses = append(responses, response)
	}
	return responses
}

func newVideoResponse(video catalog.Video) VideoResponse {
	return VideoResponse{
		ID:        video.ID,
		Title:     video.Title,
		Thumbnail: video.ThumbnailKey.String,
		CreatedAt: video.CreatedAt,
	}
}
