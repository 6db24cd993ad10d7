package handlers

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/storage"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := storage.NewDatabase(&storage.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return New(db, []byte("test-secret"))
}

// seedUser writes an account straight into the document.
func seedUser(t *testing.T, h *Handler, id, login, password string, role models.UserRole) {
	t.Helper()
	ctx := context.Background()
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	doc.Users = append(doc.Users, models.User{ID: id, Login: login, PasswordHash: string(hash), Role: role})
	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		t.Fatal(err)
	}
}

func seedCharacter(t *testing.T, h *Handler, ch models.Character) {
	t.Helper()
	ctx := context.Background()
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	doc.Characters = append(doc.Characters, ch)
	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		t.Fatal(err)
	}
}

func ctxAs(id, login string, role models.UserRole) context.Context {
	user := &models.User{ID: id, Login: login, Role: role}
	return context.WithValue(context.Background(), models.UserKey, user)
}

func adminCtx() context.Context {
	return ctxAs("1", "admin", models.RoleAdmin)
}
