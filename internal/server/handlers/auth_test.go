package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
)

// statusOf extracts the HTTP status carried by a handler error, or 0.
func statusOf(err error) int {
	var ews apierrors.ErrorWithStatus
	if errors.As(err, &ews) {
		return ews.StatusCode()
	}
	return 0
}

func TestLogin(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "u1", "alice", "hunter2", models.RoleUser)

	resp, err := h.Login(context.Background(), LoginRequest{Login: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.User.ID != "u1" || resp.User.Role != models.RoleUser {
		t.Errorf("user = %+v", resp.User)
	}

	token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "u1" || claims["login"] != "alice" || claims["role"] != "user" {
		t.Errorf("claims = %+v", claims)
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("token has no expiry")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "u1", "alice", "hunter2", models.RoleUser)

	for _, req := range []LoginRequest{
		{Login: "alice", Password: "wrong"},
		{Login: "nobody", Password: "hunter2"},
	} {
		_, err := h.Login(context.Background(), req)
		if statusOf(err) != 401 {
			t.Errorf("Login(%+v) err = %v, want 401", req, err)
		}
	}
}

func TestMe(t *testing.T) {
	h := newTestHandler(t)
	seedUser(t, h, "u1", "alice", "hunter2", models.RoleUser)

	pub, err := h.Me(ctxAs("u1", "alice", models.RoleUser), MeRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if pub.ID != "u1" || pub.Login != "alice" {
		t.Errorf("me = %+v", pub)
	}
}

func TestMeDeletedUser(t *testing.T) {
	h := newTestHandler(t)

	// Valid token for an account that no longer exists.
	_, err := h.Me(ctxAs("ghost", "ghost", models.RoleUser), MeRequest{})
	if statusOf(err) != 404 {
		t.Errorf("err = %v, want 404", err)
	}
}
