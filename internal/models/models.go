// Package models defines the core data structures used throughout the application.
package models

import "context"

// UserRole defines the permissions for a user.
type UserRole string

const (
	// RoleAdmin manages users, characters and sessions.
	RoleAdmin UserRole = "admin"
	// RoleUser can view their own characters and the session log.
	RoleUser UserRole = "user"
)

// User represents an account in the roster.
type User struct {
	ID           string   `json:"id"`
	Login        string   `json:"login"`
	PasswordHash string   `json:"passwordHash"`
	Role         UserRole `json:"role"`
}

// PublicUser is the wire shape of a user without credentials.
type PublicUser struct {
	ID    string   `json:"id"`
	Login string   `json:"login"`
	Role  UserRole `json:"role"`
}

// Public returns the user without the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Login: u.Login, Role: u.Role}
}

// Ability is a named entry on a character sheet. It covers passive abilities,
// active abilities (which track uses) and inventory items.
type Ability struct {
	Name        string `json:"name"`
	Uses        string `json:"uses,omitempty"`
	Description string `json:"description"`
}

// Empty reports whether the entry carries no content and should be dropped.
func (a Ability) Empty() bool {
	return a.Name == "" && a.Description == ""
}

// Character is a character sheet owned by a user.
//
// The three image fields are mutually exclusive in persisted form: an external
// URL, an inline base64 payload, or a sidecar marker. Image() classifies them;
// the storage facade normalizes them on write and projects them on read.
type Character struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	ImageMime   string `json:"imageMime,omitempty"`
	HasPortrait bool   `json:"hasPortrait,omitempty"`

	Bio    string `json:"bio"`
	Weapon string `json:"weapon"`

	HP           int `json:"hp"`
	MaxHP        int `json:"maxHp"`
	ArmorClass   int `json:"armorClass"`
	Initiative   int `json:"initiative"`
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
	Emeralds     int `json:"emeralds"`
	RerollTokens int `json:"rerollTokens"`

	PassiveAbilities []Ability `json:"passiveAbilities"`
	ActiveAbilities  []Ability `json:"activeAbilities"`
	Items            []Ability `json:"items"`
}

// ImageForm identifies which of the mutually exclusive image representations a
// character carries.
type ImageForm int

const (
	// ImageNone means the character has no image.
	ImageNone ImageForm = iota
	// ImageExternal means imageUrl points at an uploaded or external file.
	ImageExternal
	// ImageInline means the payload is carried in the document as base64.
	ImageInline
	// ImageSidecar means the payload lives in a portrait sidecar blob.
	ImageSidecar
)

// Image classifies the character's image representation. An inline payload
// takes precedence over the sidecar marker, which takes precedence over a
// stored URL, mirroring the order write-normalization resolves them in.
func (c *Character) Image() ImageForm {
	switch {
	case c.ImageBase64 != "":
		return ImageInline
	case c.HasPortrait:
		return ImageSidecar
	case c.ImageURL != "":
		return ImageExternal
	}
	return ImageNone
}

// SessionRecord is one entry in the session log, past or planned.
// CharacterIDs may reference characters that no longer exist; dangling
// references are filtered when building participant lists, not on write.
type SessionRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	CharacterIDs []string `json:"characterIds"`
}

// Participant is the projection of a character embedded in session responses.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Document is the root aggregate: the whole database persisted as one JSON file.
type Document struct {
	Users            []User          `json:"users"`
	Characters       []Character     `json:"characters"`
	Sessions         []SessionRecord `json:"sessions"`
	UpcomingSessions []SessionRecord `json:"upcomingSessions"`
}

// NewDocument returns an empty document with all collections allocated.
func NewDocument() *Document {
	return &Document{
		Users:            []User{},
		Characters:       []Character{},
		Sessions:         []SessionRecord{},
		UpcomingSessions: []SessionRecord{},
	}
}

// Normalize backfills nil collections so callers can rely on all four being
// present. Reading a document that omits them yields the same result every time.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Characters == nil {
		d.Characters = []Character{}
	}
	if d.Sessions == nil {
		d.Sessions = []SessionRecord{}
	}
	if d.UpcomingSessions == nil {
		d.UpcomingSessions = []SessionRecord{}
	}
}

// FindUser returns the user with the given ID, or nil.
func (d *Document) FindUser(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// FindUserByLogin returns the user with the given login, or nil. Logins are
// case-sensitive.
func (d *Document) FindUserByLogin(login string) *User {
	for i := range d.Users {
		if d.Users[i].Login == login {
			return &d.Users[i]
		}
	}
	return nil
}

// FindCharacter returns the character with the given ID, or nil.
func (d *Document) FindCharacter(id string) *Character {
	for i := range d.Characters {
		if d.Characters[i].ID == id {
			return &d.Characters[i]
		}
	}
	return nil
}

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey ContextKey = "user"
)

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserKey).(*User)
	return user, ok
}
