package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/storage"
)

// SessionView is a session entry with its participant list resolved.
type SessionView struct {
	models.SessionRecord
	Participants []models.Participant `json:"participants"`
}

// participants resolves character IDs to their session projection. Dangling
// references (deleted characters) are silently dropped.
func participants(doc *models.Document, ids []string) []models.Participant {
	out := []models.Participant{}
	for _, id := range ids {
		ch := doc.FindCharacter(id)
		if ch == nil {
			continue
		}
		out = append(out, models.Participant{
			ID:       ch.ID,
			Name:     ch.Name,
			ImageURL: storage.ImageURL(ch),
		})
	}
	return out
}

func sessionViews(doc *models.Document, list []models.SessionRecord) []SessionView {
	out := make([]SessionView, 0, len(list))
	for _, s := range list {
		out = append(out, SessionView{SessionRecord: s, Participants: participants(doc, s.CharacterIDs)})
	}
	return out
}

// sessionList picks one of the two session collections off the document.
func sessionList(doc *models.Document, upcoming bool) *[]models.SessionRecord {
	if upcoming {
		return &doc.UpcomingSessions
	}
	return &doc.Sessions
}

// CreateSessionRequest is the payload for a new session log entry.
type CreateSessionRequest struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	CharacterIDs []string `json:"characterIds"`
}

// UpdateSessionRequest edits a session entry. Absent fields keep their
// previous values; pointer fields distinguish absent from empty.
type UpdateSessionRequest struct {
	ID           string   `path:"id" json:"-"`
	Title        *string  `json:"title"`
	Date         *string  `json:"date"`
	Description  *string  `json:"description"`
	CharacterIDs []string `json:"characterIds"`
}

func (h *Handler) listSessions(ctx context.Context, upcoming bool) (*[]SessionView, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}
	views := sessionViews(doc, *sessionList(doc, upcoming))
	return &views, nil
}

func (h *Handler) createSession(ctx context.Context, req CreateSessionRequest, upcoming bool) (*SessionView, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apierrors.MissingField("title")
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	date := req.Date
	if date == "" && !upcoming {
		// Played sessions default to today; planned ones stay undated.
		date = time.Now().Format("2006-01-02")
	}
	ids := req.CharacterIDs
	if ids == nil {
		ids = []string{}
	}

	s := models.SessionRecord{
		ID:           uuid.NewString(),
		Title:        title,
		Date:         date,
		Description:  strings.TrimSpace(req.Description),
		CharacterIDs: ids,
	}

	list := sessionList(doc, upcoming)
	*list = append(*list, s)
	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}
	return &SessionView{SessionRecord: s, Participants: participants(doc, s.CharacterIDs)}, nil
}

func (h *Handler) updateSession(ctx context.Context, req UpdateSessionRequest, upcoming bool) (*SessionView, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	list := sessionList(doc, upcoming)
	var s *models.SessionRecord
	for i := range *list {
		if (*list)[i].ID == req.ID {
			s = &(*list)[i]
			break
		}
	}
	if s == nil {
		return nil, apierrors.NotFound("session")
	}

	if req.Title != nil {
		s.Title = strings.TrimSpace(*req.Title)
	}
	if req.Date != nil {
		s.Date = *req.Date
	}
	if req.Description != nil {
		s.Description = strings.TrimSpace(*req.Description)
	}
	if req.CharacterIDs != nil {
		s.CharacterIDs = req.CharacterIDs
	}
	if s.Title == "" {
		return nil, apierrors.MissingField("title")
	}

	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}
	return &SessionView{SessionRecord: *s, Participants: participants(doc, s.CharacterIDs)}, nil
}

func (h *Handler) deleteSession(ctx context.Context, id string, upcoming bool) (*OkResponse, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	list := sessionList(doc, upcoming)
	found := false
	kept := (*list)[:0]
	for i := range *list {
		if (*list)[i].ID == id {
			found = true
			continue
		}
		kept = append(kept, (*list)[i])
	}
	if !found {
		return nil, apierrors.NotFound("session")
	}
	*list = kept

	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}
	return &OkResponse{OK: true}, nil
}

// ListSessionsRequest is empty; listing takes no parameters.
type ListSessionsRequest struct{}

// ListSessions returns the played session log with participants resolved.
func (h *Handler) ListSessions(ctx context.Context, _ ListSessionsRequest) (*[]SessionView, error) {
	return h.listSessions(ctx, false)
}

// CreateSession adds an entry to the played session log.
func (h *Handler) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	return h.createSession(ctx, req, false)
}

// UpdateSession edits a played session entry.
func (h *Handler) UpdateSession(ctx context.Context, req UpdateSessionRequest) (*SessionView, error) {
	return h.updateSession(ctx, req, false)
}

// DeleteSessionRequest identifies the session to remove.
type DeleteSessionRequest struct {
	ID string `path:"id"`
}

// DeleteSession removes a played session entry.
func (h *Handler) DeleteSession(ctx context.Context, req DeleteSessionRequest) (*OkResponse, error) {
	return h.deleteSession(ctx, req.ID, false)
}

// ListUpcomingSessions returns the planned sessions with participants resolved.
func (h *Handler) ListUpcomingSessions(ctx context.Context, _ ListSessionsRequest) (*[]SessionView, error) {
	return h.listSessions(ctx, true)
}

// CreateUpcomingSession adds a planned session.
func (h *Handler) CreateUpcomingSession(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	return h.createSession(ctx, req, true)
}

// UpdateUpcomingSession edits a planned session.
func (h *Handler) UpdateUpcomingSession(ctx context.Context, req UpdateSessionRequest) (*SessionView, error) {
	return h.updateSession(ctx, req, true)
}

// DeleteUpcomingSession removes a planned session.
func (h *Handler) DeleteUpcomingSession(ctx context.Context, req DeleteSessionRequest) (*OkResponse, error) {
	return h.deleteSession(ctx, req.ID, true)
}
