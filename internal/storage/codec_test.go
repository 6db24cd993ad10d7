package storage

import (
	"strings"
	"testing"

	"github.com/rosterd/rosterd/internal/models"
)

func TestDecodeDocumentEmpty(t *testing.T) {
	for _, strict := range []bool{true, false} {
		doc, err := DecodeDocument([]byte("  \n"), strict)
		if err != nil {
			t.Fatalf("strict=%v: %v", strict, err)
		}
		if doc.Users == nil || doc.Characters == nil || doc.Sessions == nil || doc.UpcomingSessions == nil {
			t.Errorf("strict=%v: collections not allocated: %+v", strict, doc)
		}
	}
}

func TestDecodeDocumentCorruptLenient(t *testing.T) {
	doc, err := DecodeDocument([]byte("{not json"), false)
	if err != nil {
		t.Fatalf("lenient decode should self-heal: %v", err)
	}
	if len(doc.Users) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestDecodeDocumentCorruptStrict(t *testing.T) {
	_, err := DecodeDocument([]byte("{not json"), true)
	if err == nil {
		t.Fatal("strict decode of corrupt input should fail")
	}
}

func TestDecodeDocumentBackfillsCollections(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"users":[{"id":"1","login":"admin","passwordHash":"h","role":"admin"}]}`), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Users) != 1 {
		t.Fatalf("users = %d, want 1", len(doc.Users))
	}
	if doc.Characters == nil || doc.Sessions == nil || doc.UpcomingSessions == nil {
		t.Errorf("missing collections not backfilled: %+v", doc)
	}
}

func TestDecodeDocumentUpcomingSessionsNotAList(t *testing.T) {
	// Old documents carry upcomingSessions as null or even an object; both
	// must degrade to an empty list, not a parse failure.
	for _, input := range []string{
		`{"users":[],"upcomingSessions":null}`,
		`{"users":[],"upcomingSessions":{"bogus":true}}`,
		`{"users":[]}`,
	} {
		doc, err := DecodeDocument([]byte(input), true)
		if err != nil {
			t.Fatalf("input %s: %v", input, err)
		}
		if doc.UpcomingSessions == nil || len(doc.UpcomingSessions) != 0 {
			t.Errorf("input %s: upcomingSessions = %+v, want []", input, doc.UpcomingSessions)
		}
	}
}

func TestEncodeDocumentFormat(t *testing.T) {
	doc := models.NewDocument()
	doc.Users = append(doc.Users, models.User{ID: "1", Login: "admin", PasswordHash: "h", Role: models.RoleAdmin})

	data, err := EncodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.HasSuffix(s, "\n") {
		t.Error("encoded document should end with a newline")
	}
	if !strings.Contains(s, "\n  \"users\"") {
		t.Errorf("expected two-space indentation, got:\n%s", s)
	}

	roundTrip, err := DecodeDocument(data, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(roundTrip.Users) != 1 || roundTrip.Users[0].Login != "admin" {
		t.Errorf("round trip lost data: %+v", roundTrip)
	}
}
