package handlers

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
)

// ListUsersRequest is empty; listing takes no parameters.
type ListUsersRequest struct{}

// ListUsers returns all regular accounts. The admin account is managed out of
// band and never listed.
func (h *Handler) ListUsers(ctx context.Context, _ ListUsersRequest) (*[]models.PublicUser, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	list := []models.PublicUser{}
	for i := range doc.Users {
		if doc.Users[i].Role == models.RoleAdmin {
			continue
		}
		list = append(list, doc.Users[i].Public())
	}
	return &list, nil
}

// CreateUserRequest is the new account payload.
type CreateUserRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// CreateUser adds a regular account.
func (h *Handler) CreateUser(ctx context.Context, req CreateUserRequest) (*models.PublicUser, error) {
	if req.Login == "" {
		return nil, apierrors.MissingField("login")
	}
	if req.Password == "" {
		return nil, apierrors.MissingField("password")
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}
	if doc.FindUserByLogin(req.Login) != nil {
		return nil, apierrors.Conflict("login already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierrors.InternalWithError("Failed to hash password", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Login:        req.Login,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	doc.Users = append(doc.Users, user)
	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}

	pub := user.Public()
	return &pub, nil
}

// DeleteUserRequest identifies the account to remove.
type DeleteUserRequest struct {
	ID string `path:"id"`
}

// DeleteUser removes an account together with every character it owns,
// including any stored images. The admin account cannot be deleted.
func (h *Handler) DeleteUser(ctx context.Context, req DeleteUserRequest) (*OkResponse, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	user := doc.FindUser(req.ID)
	if user == nil {
		return nil, apierrors.NotFound("user")
	}
	if user.Role == models.RoleAdmin {
		return nil, apierrors.Forbidden("cannot delete the admin account")
	}

	users := doc.Users[:0]
	for i := range doc.Users {
		if doc.Users[i].ID != req.ID {
			users = append(users, doc.Users[i])
		}
	}
	doc.Users = users

	characters := []models.Character{}
	for i := range doc.Characters {
		ch := &doc.Characters[i]
		if ch.UserID == req.ID {
			h.db.RemoveCharacterImage(ctx, ch)
			continue
		}
		characters = append(characters, *ch)
	}
	doc.Characters = characters

	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}
	return &OkResponse{OK: true}, nil
}
