package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rosterd/rosterd/internal/models"
)

// documentWire mirrors models.Document but keeps upcomingSessions raw so a
// missing or malformed field degrades to an empty list instead of failing
// the whole parse. The field was added after the first deployments, so old
// documents legitimately omit it.
type documentWire struct {
	Users            []models.User          `json:"users"`
	Characters       []models.Character     `json:"characters"`
	Sessions         []models.SessionRecord `json:"sessions"`
	UpcomingSessions json.RawMessage        `json:"upcomingSessions"`
}

// DecodeDocument parses the persisted JSON document. Empty input yields a
// default document on both mediums. A parse failure is handled per medium:
// strict (remote) refuses to proceed, so a corrupted read can never lead to
// the valid remote copy being overwritten with an empty reconstruction;
// lenient (local) self-heals to an empty document, since the local file is
// owned exclusively by this process.
func DecodeDocument(data []byte, strict bool) (*models.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return models.NewDocument(), nil
	}

	wire := documentWire{}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		if strict {
			return nil, fmt.Errorf("failed to parse database document: %w", err)
		}
		return models.NewDocument(), nil
	}

	doc := &models.Document{
		Users:      wire.Users,
		Characters: wire.Characters,
		Sessions:   wire.Sessions,
	}
	if len(wire.UpcomingSessions) > 0 {
		// Ignore a non-list value; it backfills to [] below.
		_ = json.Unmarshal(wire.UpcomingSessions, &doc.UpcomingSessions)
	}
	doc.Normalize()
	return doc, nil
}

// EncodeDocument serializes the document with stable key order and two-space
// indentation. The remote medium stores this as a version-controlled text
// file, so clean diffs are part of the operational workflow.
func EncodeDocument(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode database document: %w", err)
	}
	return append(data, '\n'), nil
}
