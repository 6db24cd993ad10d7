package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/storage"
)

// maxUploadSize caps character image uploads at 5 MB.
const maxUploadSize = 5 << 20

// ListCharactersRequest is empty; the scope comes from the caller's role.
type ListCharactersRequest struct{}

// ListCharacters returns every character for admins and only owned characters
// for regular users. Image bytes never appear in the response.
func (h *Handler) ListCharacters(ctx context.Context, _ ListCharactersRequest) (*[]models.Character, error) {
	current, ok := models.UserFromContext(ctx)
	if !ok {
		return nil, apierrors.Unauthorized("Unauthorized")
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	list := []models.Character{}
	for i := range doc.Characters {
		ch := &doc.Characters[i]
		if current.Role != models.RoleAdmin && ch.UserID != current.ID {
			continue
		}
		list = append(list, storage.PublicView(ch))
	}
	return &list, nil
}

// CharactersByUserRequest identifies whose characters to list.
type CharactersByUserRequest struct {
	UserID string `path:"userId"`
}

// CharactersByUser returns the characters owned by one user.
func (h *Handler) CharactersByUser(ctx context.Context, req CharactersByUserRequest) (*[]models.Character, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}

	list := []models.Character{}
	for i := range doc.Characters {
		ch := &doc.Characters[i]
		if ch.UserID == req.UserID {
			list = append(list, storage.PublicView(ch))
		}
	}
	return &list, nil
}

// parseIntOr parses a decimal form value, keeping fallback when the field is
// absent or not a number.
func parseIntOr(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

// parseAbilities decodes a JSON-encoded ability list from a form field.
// Entries with no content are dropped; a missing or malformed field keeps
// fallback.
func parseAbilities(v string, fallback []models.Ability) []models.Ability {
	if v == "" {
		return filterAbilities(fallback)
	}
	var list []models.Ability
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		return filterAbilities(fallback)
	}
	return filterAbilities(list)
}

func filterAbilities(list []models.Ability) []models.Ability {
	out := []models.Ability{}
	for _, a := range list {
		if !a.Empty() {
			out = append(out, a)
		}
	}
	return out
}

// readImageFile pulls the optional image part out of a multipart request.
// Returns (nil, "", nil) when no file was sent.
func readImageFile(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", nil
		}
		return nil, "", apierrors.BadRequest("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apierrors.BadRequest("failed to read image upload")
	}
	return data, header.Filename, nil
}

// CreateCharacter handles the multipart character creation form. It cannot go
// through the generic JSON wrapper because of the file part.
func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, r, apierrors.BadRequest("invalid multipart form"))
		return
	}

	userID := strings.TrimSpace(r.FormValue("userId"))
	name := strings.TrimSpace(r.FormValue("name"))
	if userID == "" || name == "" {
		respondError(w, r, apierrors.BadRequest("userId and name are required"))
		return
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	if doc.FindUser(userID) == nil {
		respondError(w, r, apierrors.BadRequest("user not found"))
		return
	}

	ch := models.Character{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             name,
		Bio:              strings.TrimSpace(r.FormValue("bio")),
		Weapon:           strings.TrimSpace(r.FormValue("weapon")),
		HP:               parseIntOr(r.FormValue("hp"), 0),
		MaxHP:            parseIntOr(r.FormValue("maxHp"), 0),
		ArmorClass:       parseIntOr(r.FormValue("armorClass"), 10),
		Initiative:       parseIntOr(r.FormValue("initiative"), 0),
		Strength:         parseIntOr(r.FormValue("strength"), 0),
		Dexterity:        parseIntOr(r.FormValue("dexterity"), 0),
		Constitution:     parseIntOr(r.FormValue("constitution"), 0),
		Intelligence:     parseIntOr(r.FormValue("intelligence"), 0),
		Wisdom:           parseIntOr(r.FormValue("wisdom"), 0),
		Charisma:         parseIntOr(r.FormValue("charisma"), 0),
		Emeralds:         parseIntOr(r.FormValue("emeralds"), 0),
		RerollTokens:     parseIntOr(r.FormValue("rerollTokens"), 0),
		PassiveAbilities: parseAbilities(r.FormValue("passiveAbilities"), nil),
		ActiveAbilities:  parseAbilities(r.FormValue("activeAbilities"), nil),
		Items:            parseAbilities(r.FormValue("items"), nil),
	}

	imageData, filename, err := readImageFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if imageData != nil {
		if err := h.db.SaveCharacterImage(ctx, &ch, filename, imageData); err != nil {
			respondError(w, r, apierrors.StorageError(err))
			return
		}
	}

	doc.Characters = append(doc.Characters, ch)
	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	respondJSON(w, http.StatusCreated, storage.PublicView(&ch))
}

// UpdateCharacter handles the multipart character edit form. Absent fields
// keep their previous values.
func (h *Handler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, r, apierrors.BadRequest("invalid multipart form"))
		return
	}

	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	ch := doc.FindCharacter(r.PathValue("id"))
	if ch == nil {
		respondError(w, r, apierrors.NotFound("character"))
		return
	}

	userID := strings.TrimSpace(r.FormValue("userId"))
	if userID == "" {
		userID = ch.UserID
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = ch.Name
	}
	if userID == "" || name == "" {
		respondError(w, r, apierrors.BadRequest("userId and name are required"))
		return
	}
	if doc.FindUser(userID) == nil {
		respondError(w, r, apierrors.BadRequest("user not found"))
		return
	}

	ch.UserID = userID
	ch.Name = name
	if v, ok := formValue(r, "bio"); ok {
		ch.Bio = strings.TrimSpace(v)
	}
	if v, ok := formValue(r, "weapon"); ok {
		ch.Weapon = strings.TrimSpace(v)
	}
	ch.HP = parseIntOr(r.FormValue("hp"), ch.HP)
	ch.MaxHP = parseIntOr(r.FormValue("maxHp"), ch.MaxHP)
	ch.ArmorClass = parseIntOr(r.FormValue("armorClass"), ch.ArmorClass)
	ch.Initiative = parseIntOr(r.FormValue("initiative"), ch.Initiative)
	ch.Strength = parseIntOr(r.FormValue("strength"), ch.Strength)
	ch.Dexterity = parseIntOr(r.FormValue("dexterity"), ch.Dexterity)
	ch.Constitution = parseIntOr(r.FormValue("constitution"), ch.Constitution)
	ch.Intelligence = parseIntOr(r.FormValue("intelligence"), ch.Intelligence)
	ch.Wisdom = parseIntOr(r.FormValue("wisdom"), ch.Wisdom)
	ch.Charisma = parseIntOr(r.FormValue("charisma"), ch.Charisma)
	ch.Emeralds = parseIntOr(r.FormValue("emeralds"), ch.Emeralds)
	ch.RerollTokens = parseIntOr(r.FormValue("rerollTokens"), ch.RerollTokens)
	ch.PassiveAbilities = parseAbilities(r.FormValue("passiveAbilities"), ch.PassiveAbilities)
	ch.ActiveAbilities = parseAbilities(r.FormValue("activeAbilities"), ch.ActiveAbilities)
	ch.Items = parseAbilities(r.FormValue("items"), ch.Items)

	imageData, filename, err := readImageFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if imageData != nil {
		if err := h.db.SaveCharacterImage(ctx, ch, filename, imageData); err != nil {
			respondError(w, r, apierrors.StorageError(err))
			return
		}
	}

	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	respondJSON(w, http.StatusOK, storage.PublicView(ch))
}

// formValue distinguishes an empty field from an absent one.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			return vs[0], true
		}
		return "", false
	}
	vs, ok := r.Form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// DeleteCharacterRequest identifies the character to remove.
type DeleteCharacterRequest struct {
	ID string `path:"id"`
}

// DeleteCharacter removes a character, scrubs it from every session's
// participant list, and discards its stored image.
func (h *Handler) DeleteCharacter(ctx context.Context, req DeleteCharacterRequest) (*OkResponse, error) {
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		return nil, apierrors.StorageError(err)
	}
	ch := doc.FindCharacter(req.ID)
	if ch == nil {
		return nil, apierrors.NotFound("character")
	}
	h.db.RemoveCharacterImage(ctx, ch)

	characters := doc.Characters[:0]
	for i := range doc.Characters {
		if doc.Characters[i].ID != req.ID {
			characters = append(characters, doc.Characters[i])
		}
	}
	doc.Characters = characters

	for i := range doc.Sessions {
		doc.Sessions[i].CharacterIDs = removeID(doc.Sessions[i].CharacterIDs, req.ID)
	}
	for i := range doc.UpcomingSessions {
		doc.UpcomingSessions[i].CharacterIDs = removeID(doc.UpcomingSessions[i].CharacterIDs, req.ID)
	}

	if err := h.db.WriteDatabase(ctx, doc); err != nil {
		return nil, apierrors.StorageError(err)
	}
	return &OkResponse{OK: true}, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Portrait serves the raw image bytes for a character whose image lives in
// storage (inline payload or sidecar). Characters with only an external URL,
// or no image, 404 here; clients use imageUrl directly for those.
func (h *Handler) Portrait(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.db.ReadDatabase(ctx)
	if err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	ch := doc.FindCharacter(r.PathValue("id"))
	if ch == nil {
		respondError(w, r, apierrors.NotFound("character"))
		return
	}

	data, mime, err := h.db.Portrait(ctx, ch)
	if err != nil {
		respondError(w, r, apierrors.StorageError(err))
		return
	}
	if data == nil {
		respondError(w, r, apierrors.NotFound("portrait"))
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
