package handlers

import (
	"context"
	"regexp"
	"testing"

	"github.com/rosterd/rosterd/internal/models"
)

func strptr(s string) *string { return &s }

func TestCreateSessionDefaultsDate(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	s, err := h.CreateSession(adminCtx(), CreateSessionRequest{Title: " The Raid "})
	if err != nil {
		t.Fatal(err)
	}
	if s.Title != "The Raid" {
		t.Errorf("title = %q", s.Title)
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`).MatchString(s.Date) {
		t.Errorf("date = %q, want yyyy-mm-dd default", s.Date)
	}
	if s.CharacterIDs == nil || s.Participants == nil {
		t.Errorf("lists not allocated: %+v", s)
	}

	// Planned sessions stay undated when no date is given.
	up, err := h.CreateUpcomingSession(adminCtx(), CreateSessionRequest{Title: "Next time"})
	if err != nil {
		t.Fatal(err)
	}
	if up.Date != "" {
		t.Errorf("upcoming date = %q, want empty", up.Date)
	}
}

func TestCreateSessionRequiresTitle(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	if _, err := h.CreateSession(adminCtx(), CreateSessionRequest{Title: "   "}); statusOf(err) != 400 {
		t.Errorf("err = %v, want 400", err)
	}
}

func TestSessionParticipants(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)
	seedUser(t, h, "u1", "alice", "pw", models.RoleUser)
	seedCharacter(t, h, models.Character{ID: "c1", UserID: "u1", Name: "Borin", ImageURL: "/uploads/characters/c1.jpg"})

	// The dangling reference c9 must be filtered from participants but kept
	// in characterIds.
	s, err := h.CreateSession(adminCtx(), CreateSessionRequest{
		Title:        "The Raid",
		CharacterIDs: []string{"c1", "c9"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.CharacterIDs) != 2 {
		t.Errorf("characterIds = %v", s.CharacterIDs)
	}
	if len(s.Participants) != 1 {
		t.Fatalf("participants = %+v", s.Participants)
	}
	p := s.Participants[0]
	if p.ID != "c1" || p.Name != "Borin" || p.ImageURL != "/uploads/characters/c1.jpg" {
		t.Errorf("participant = %+v", p)
	}

	list, err := h.ListSessions(ctxAs("u1", "alice", models.RoleUser), ListSessionsRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(*list) != 1 || len((*list)[0].Participants) != 1 {
		t.Errorf("list = %+v", *list)
	}
}

func TestUpdateSession(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	s, err := h.CreateSession(adminCtx(), CreateSessionRequest{Title: "The Raid", Date: "2026-08-01", Description: "went well"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := h.UpdateSession(adminCtx(), UpdateSessionRequest{
		ID:    s.ID,
		Title: strptr("The Raid, part 2"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "The Raid, part 2" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Date != "2026-08-01" || updated.Description != "went well" {
		t.Errorf("absent fields changed: %+v", updated.SessionRecord)
	}

	if _, err := h.UpdateSession(adminCtx(), UpdateSessionRequest{ID: s.ID, Title: strptr("  ")}); statusOf(err) != 400 {
		t.Errorf("blank title: err = %v, want 400", err)
	}
	if _, err := h.UpdateSession(adminCtx(), UpdateSessionRequest{ID: "nope", Title: strptr("X")}); statusOf(err) != 404 {
		t.Errorf("missing session: err = %v, want 404", err)
	}
}

func TestDeleteSession(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	s, err := h.CreateUpcomingSession(adminCtx(), CreateSessionRequest{Title: "Next"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.DeleteUpcomingSession(adminCtx(), DeleteSessionRequest{ID: s.ID}); err != nil {
		t.Fatal(err)
	}

	doc, err := h.db.ReadDatabase(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.UpcomingSessions) != 0 {
		t.Errorf("upcoming sessions = %+v", doc.UpcomingSessions)
	}

	// The two session lists are independent; deleting from one never touches
	// the other.
	if _, err := h.DeleteSession(adminCtx(), DeleteSessionRequest{ID: s.ID}); statusOf(err) != 404 {
		t.Errorf("cross-list delete: err = %v, want 404", err)
	}
}
