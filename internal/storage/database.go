// Package storage implements persistence for the roster document: a single
// JSON file on the local filesystem, or the same file mirrored to a GitHub
// repository with portraits split into sidecar blobs.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rosterd/rosterd/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// remoteDocumentPath is where the document lives in the remote repository.
const remoteDocumentPath = "data/db.json"

// localDocumentPath is the document file inside the local data directory.
const localDocumentPath = "db.json"

// Database is the single entry point for reading and writing the roster
// document. It holds the blob store chosen at startup and never re-inspects
// which medium is behind it; medium-specific behavior hangs off the optional
// collaborators and the strict flag set at construction.
//
// There is no locking and no write serialization: two concurrent writes are a
// lost-update race where the last Put wins (or, on the remote medium, the
// loser's stale revision token gets the write rejected). Accepted for the
// target deployment of a handful of trusted users.
type Database struct {
	store     BlobStore
	portraits *PortraitService // remote medium only
	uploads   *UploadStore     // local medium only
	strict    bool
	docPath   string
}

// NewDatabase selects the medium from the configuration: remote when a token
// and an owner/repo identifier are present, local otherwise. The choice is
// fixed for the lifetime of the process.
func NewDatabase(cfg *Config) (*Database, error) {
	if cfg.UseRemote() {
		owner, repo := cfg.SplitRepo()
		store := NewGitHubStore(owner, repo, cfg.GitHubToken)
		return &Database{
			store:     store,
			portraits: NewPortraitService(store),
			strict:    true,
			docPath:   remoteDocumentPath,
		}, nil
	}

	store, err := NewLocalStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	uploads, err := NewUploadStore(filepath.Join(cfg.DataDir, "uploads"))
	if err != nil {
		return nil, err
	}
	return &Database{
		store:   store,
		uploads: uploads,
		docPath: localDocumentPath,
	}, nil
}

// Remote reports whether the database is backed by the remote medium.
func (db *Database) Remote() bool {
	return db.portraits != nil
}

// Uploads returns the local upload store, or nil on the remote medium.
func (db *Database) Uploads() *UploadStore {
	return db.uploads
}

// ReadDatabase loads the whole document. A missing document is the expected
// bootstrap state and yields an empty default, never an error.
func (db *Database) ReadDatabase(ctx context.Context) (*models.Document, error) {
	data, err := db.store.Get(ctx, db.docPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.NewDocument(), nil
		}
		return nil, err
	}
	return DecodeDocument(data, db.strict)
}

// WriteDatabase persists the document.
//
// On the remote medium it refuses to write a document with no users: that
// state is far more likely the fallout of a failed read than a legitimate
// roster, and overwriting the remote copy would destroy it. The local medium
// carries no such guard; the asymmetry is inherited behavior, kept as is
// (see DESIGN.md).
func (db *Database) WriteDatabase(ctx context.Context, doc *models.Document) error {
	if db.strict && len(doc.Users) == 0 {
		return fmt.Errorf("refusing to write database with no users")
	}

	if db.portraits != nil {
		stripped, err := db.portraits.ExtractAll(ctx, doc)
		if err != nil {
			return err
		}
		doc = stripped
	} else {
		doc = stripSidecarMarkers(doc)
	}

	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	return db.store.Put(ctx, db.docPath, data, "Update db.json")
}

// stripSidecarMarkers normalizes characters for a local-medium write. A
// sidecar marker without a remote store behind it points at nothing, so it
// is dropped; the other image forms persist unchanged.
func stripSidecarMarkers(doc *models.Document) *models.Document {
	out := *doc
	out.Characters = make([]models.Character, len(doc.Characters))
	copy(out.Characters, doc.Characters)
	for i := range out.Characters {
		ch := &out.Characters[i]
		switch ch.Image() {
		case models.ImageSidecar:
			ch.HasPortrait = false
		case models.ImageNone, models.ImageExternal, models.ImageInline:
		}
	}
	return &out
}

// ImageURL computes the public URL for a character's image. Byte-backed
// forms (inline payload, sidecar) are served through the portrait endpoint;
// an external URL is returned as stored; no image yields "".
func ImageURL(ch *models.Character) string {
	switch ch.Image() {
	case models.ImageInline, models.ImageSidecar:
		return "/api/characters/" + ch.ID + "/portrait"
	case models.ImageExternal:
		return ch.ImageURL
	case models.ImageNone:
	}
	return ""
}

// PublicView returns a copy of the character that never exposes inline image
// bytes or storage markers, with imageUrl pointing at the retrieval endpoint
// when an image exists in any form.
func PublicView(ch *models.Character) models.Character {
	out := *ch
	out.ImageBase64 = ""
	out.ImageMime = ""
	out.HasPortrait = false
	out.ImageURL = ImageURL(ch)
	return out
}

// Portrait resolves the raw image bytes and mime type for a character,
// from the inline payload or the sidecar depending on where the document
// keeps it. A character without a byte-backed image yields (nil, "", nil).
func (db *Database) Portrait(ctx context.Context, ch *models.Character) ([]byte, string, error) {
	switch ch.Image() {
	case models.ImageInline:
		data, err := base64.StdEncoding.DecodeString(ch.ImageBase64)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode inline portrait %s: %w", ch.ID, err)
		}
		mime := ch.ImageMime
		if mime == "" {
			mime = "image/jpeg"
		}
		return data, mime, nil
	case models.ImageSidecar:
		if db.portraits == nil {
			return nil, "", nil
		}
		sc, err := db.portraits.Fetch(ctx, ch.ID)
		if err != nil || sc == nil {
			return nil, "", err
		}
		data, err := base64.StdEncoding.DecodeString(sc.Base64)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode portrait sidecar %s: %w", ch.ID, err)
		}
		return data, sc.Mime, nil
	case models.ImageNone, models.ImageExternal:
	}
	return nil, "", nil
}

// SaveCharacterImage attaches uploaded image bytes to the character. On the
// remote medium the payload goes inline and is split into a sidecar on the
// next WriteDatabase; locally the bytes land in the uploads directory and
// the character keeps a URL reference, replacing any previous upload.
func (db *Database) SaveCharacterImage(ctx context.Context, ch *models.Character, filename string, data []byte) error {
	if db.uploads == nil {
		ch.ImageURL = ""
		ch.HasPortrait = false
		ch.ImageBase64 = base64.StdEncoding.EncodeToString(data)
		ch.ImageMime = MimeForFilename(filename)
		return nil
	}

	if ch.Image() == models.ImageExternal {
		db.uploads.Remove(ctx, ch.ImageURL)
	}
	url, err := db.uploads.Save(ch.ID, filename, data)
	if err != nil {
		return err
	}
	ch.ImageURL = url
	ch.ImageBase64 = ""
	ch.ImageMime = ""
	ch.HasPortrait = false
	return nil
}

// RemoveCharacterImage discards whatever storage backs the character's image:
// the sidecar blob on the remote medium, the uploaded file locally. Both
// paths are best-effort; a roster delete must not fail over an orphaned
// image.
func (db *Database) RemoveCharacterImage(ctx context.Context, ch *models.Character) {
	switch ch.Image() {
	case models.ImageSidecar:
		if db.portraits != nil {
			db.portraits.Remove(ctx, ch.ID)
		}
	case models.ImageExternal:
		if db.uploads != nil {
			db.uploads.Remove(ctx, ch.ImageURL)
		}
	case models.ImageInline, models.ImageNone:
		// Nothing stored outside the document.
	}
}

// EnsureAdmin seeds the admin account on first run, or re-hashes its
// password when the configured one no longer matches. Called once at
// startup.
func (db *Database) EnsureAdmin(ctx context.Context, password string) error {
	doc, err := db.ReadDatabase(ctx)
	if err != nil {
		return err
	}

	var admin *models.User
	for i := range doc.Users {
		if doc.Users[i].Role == models.RoleAdmin {
			admin = &doc.Users[i]
			break
		}
	}

	if admin == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		doc.Users = append(doc.Users, models.User{
			ID:           "1",
			Login:        "admin",
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		})
		return db.WriteDatabase(ctx, doc)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin.PasswordHash = string(hash)
		return db.WriteDatabase(ctx, doc)
	}
	return nil
}
