package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/rosterd/rosterd/internal/models"
)

// portraitsDir is where portrait sidecars live in the remote repository.
const portraitsDir = "data/portraits"

// Sidecar is the stored portrait payload, addressed by character ID. It is
// never listed or enumerated, only fetched and deleted by key.
type Sidecar struct {
	Base64 string `json:"base64"`
	Mime   string `json:"mime"`
}

// PortraitService keeps character portraits out of the main document on the
// remote medium: inline base64 payloads inflate every diff of the
// version-controlled db.json and push requests toward the API size limits.
// The local medium stores images as ordinary uploaded files instead and does
// not construct this service.
type PortraitService struct {
	store BlobStore
}

// NewPortraitService creates a portrait service backed by the given store.
func NewPortraitService(store BlobStore) *PortraitService {
	return &PortraitService{store: store}
}

func sidecarPath(characterID string) string {
	return path.Join(portraitsDir, characterID+".json")
}

// ExtractAll writes a sidecar for every character carrying an inline image
// payload and returns a copy of the document with the payloads replaced by
// hasPortrait markers. It runs before the main document write. A sidecar
// write failure aborts the whole database write: portraits saved without the
// document update is an acceptable inconsistency, the reverse is not.
func (p *PortraitService) ExtractAll(ctx context.Context, doc *models.Document) (*models.Document, error) {
	out := *doc
	out.Characters = make([]models.Character, len(doc.Characters))
	copy(out.Characters, doc.Characters)

	for i := range out.Characters {
		ch := &out.Characters[i]
		if ch.Image() != models.ImageInline {
			continue
		}
		sc := Sidecar{Base64: ch.ImageBase64, Mime: ch.ImageMime}
		if sc.Mime == "" {
			sc.Mime = "image/jpeg"
		}
		data, err := json.Marshal(sc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode portrait %s: %w", ch.ID, err)
		}
		if err := p.store.Put(ctx, sidecarPath(ch.ID), data, "Portrait "+ch.ID); err != nil {
			return nil, fmt.Errorf("failed to write portrait %s: %w", ch.ID, err)
		}
		ch.ImageBase64 = ""
		ch.ImageMime = ""
		ch.HasPortrait = true
	}
	return &out, nil
}

// Fetch reads the sidecar for a character. A missing or malformed sidecar
// means "no portrait", not an error; only transport failures are surfaced.
func (p *PortraitService) Fetch(ctx context.Context, characterID string) (*Sidecar, error) {
	data, err := p.store.Get(ctx, sidecarPath(characterID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sc := &Sidecar{}
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, nil
	}
	if sc.Base64 == "" {
		return nil, nil
	}
	return sc, nil
}

// Remove deletes the sidecar for a character. Failures are logged and
// discarded on purpose: an orphaned sidecar is acceptable, failing the
// user-facing delete over one is not.
func (p *PortraitService) Remove(ctx context.Context, characterID string) {
	if err := p.store.Delete(ctx, sidecarPath(characterID), "Delete portrait "+characterID); err != nil {
		slog.WarnContext(ctx, "Failed to delete portrait sidecar", "character", characterID, "err", err)
	}
}
