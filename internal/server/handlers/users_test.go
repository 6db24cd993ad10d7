package handlers

import (
	"context"
	"testing"

	"github.com/rosterd/rosterd/internal/models"
)

func TestListUsersHidesAdmin(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)
	seedUser(t, h, "u1", "alice", "pw", models.RoleUser)
	seedUser(t, h, "u2", "bob", "pw", models.RoleUser)

	list, err := h.ListUsers(adminCtx(), ListUsersRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(*list) != 2 {
		t.Fatalf("got %d users, want 2: %+v", len(*list), *list)
	}
	for _, u := range *list {
		if u.Role == models.RoleAdmin {
			t.Errorf("admin leaked into listing: %+v", u)
		}
	}
}

func TestCreateUser(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	pub, err := h.CreateUser(adminCtx(), CreateUserRequest{Login: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatal(err)
	}
	if pub.Login != "alice" || pub.Role != models.RoleUser || pub.ID == "" {
		t.Errorf("created user = %+v", pub)
	}

	// The new account can log in.
	if _, err := h.Login(context.Background(), LoginRequest{Login: "alice", Password: "hunter2"}); err != nil {
		t.Errorf("new account cannot log in: %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)
	seedUser(t, h, "u1", "alice", "pw", models.RoleUser)

	if _, err := h.CreateUser(adminCtx(), CreateUserRequest{Password: "x"}); statusOf(err) != 400 {
		t.Errorf("missing login: err = %v, want 400", err)
	}
	if _, err := h.CreateUser(adminCtx(), CreateUserRequest{Login: "x"}); statusOf(err) != 400 {
		t.Errorf("missing password: err = %v, want 400", err)
	}
	if _, err := h.CreateUser(adminCtx(), CreateUserRequest{Login: "alice", Password: "x"}); statusOf(err) != 409 {
		t.Errorf("duplicate login: err = %v, want 409", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)
	seedUser(t, h, "u1", "alice", "pw", models.RoleUser)
	seedCharacter(t, h, models.Character{ID: "c1", UserID: "u1", Name: "Borin"})
	seedCharacter(t, h, models.Character{ID: "c2", UserID: "1", Name: "Keeper"})

	resp, err := h.DeleteUser(adminCtx(), DeleteUserRequest{ID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK {
		t.Error("expected ok response")
	}

	doc, err := h.db.ReadDatabase(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.FindUser("u1") != nil {
		t.Error("user still present")
	}
	if doc.FindCharacter("c1") != nil {
		t.Error("owned character not cascaded")
	}
	if doc.FindCharacter("c2") == nil {
		t.Error("unrelated character removed")
	}
}

func TestDeleteUserGuards(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "1", "admin", "pw", models.RoleAdmin)

	if _, err := h.DeleteUser(adminCtx(), DeleteUserRequest{ID: "nope"}); statusOf(err) != 404 {
		t.Errorf("missing user: err = %v, want 404", err)
	}
	if _, err := h.DeleteUser(adminCtx(), DeleteUserRequest{ID: "1"}); statusOf(err) != 403 {
		t.Errorf("admin delete: err = %v, want 403", err)
	}
}
