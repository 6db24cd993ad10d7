package handlers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
)

// tokenTTL is how long issued tokens stay valid.
const tokenTTL = 7 * 24 * time.Hour

// LoginRequest is the login credentials payload.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the account it belongs to.
type LoginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Login verifies credentials and issues a JWT.
func (h *Handler) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	user := doc.FindUserByLogin(req.Login)
	if user == nil {
		return nil, apierrors.Unauthorized("Invalid login or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apierrors.Unauthorized("Invalid login or password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"login": user.Login,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return nil, apierrors.InternalWithError("Failed to sign token", err)
	}

	return &LoginResponse{Token: signed, User: user.Public()}, nil
}

// MeRequest is empty; the identity comes from the token.
type MeRequest struct{}

// Me returns the account behind the presented token. The account is re-read
// from storage so a deleted user stops resolving even with a live token.
func (h *Handler) Me(ctx context.Context, _ MeRequest) (*models.PublicUser, error) {
	current, ok := models.UserFromContext(ctx)
	if !ok {
		return nil, apierrors.Unauthorized("Unauthorized")
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}
	user := doc.FindUser(current.ID)
	if user == nil {
		return nil, apierrors.NotFound("user")
	}
	pub := user.Public()
	return &pub, nil
}
