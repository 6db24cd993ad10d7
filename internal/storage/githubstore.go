package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GitHubStore persists blobs through the GitHub contents API, treating the
// repository as a key-value blob store. Updates and deletes are optimistic-
// concurrency-controlled: the API requires the blob's current sha (revision
// token), so every write is preceded by a read to discover it. A write that
// loses a race gets its stale sha rejected by the API, and that rejection is
// surfaced as an error rather than retried.
type GitHubStore struct {
	owner      string
	repo       string
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewGitHubStore creates a store for the given repository, authenticated with
// a bearer token.
func NewGitHubStore(owner, repo, token string) *GitHubStore {
	return &GitHubStore{
		owner:      owner,
		repo:       repo,
		token:      token,
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// contentEnvelope is the response of the contents API GET: the blob body as
// base64 (wrapped with newlines) plus its revision token.
type contentEnvelope struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (s *GitHubStore) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, s.owner, s.repo, path)
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// Get retrieves the blob at path. A 404 maps to ErrNotFound; any other
// non-success status is an error.
func (s *GitHubStore) Get(ctx context.Context, path string) ([]byte, error) {
	envelope, err := s.fetchEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	// The API wraps the base64 body at 60 columns; strip the embedded
	// newlines before decoding.
	b64 := strings.ReplaceAll(envelope.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return data, nil
}

func (s *GitHubStore) fetchEnvelope(ctx context.Context, path string) (*contentEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL(path), http.NoBody)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error %d: %s", resp.StatusCode, string(body))
	}

	envelope := &contentEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(envelope); err != nil {
		return nil, fmt.Errorf("failed to decode envelope for %s: %w", path, err)
	}
	return envelope, nil
}

// revisionToken returns the current sha for path, or "" when the blob does
// not exist or the lookup fails. Lookup failures are deliberately tolerated:
// an absent token means "new file" on Put and "nothing to delete" on Delete.
func (s *GitHubStore) revisionToken(ctx context.Context, path string) string {
	envelope, err := s.fetchEnvelope(ctx, path)
	if err != nil {
		return ""
	}
	return envelope.SHA
}

// Put upserts the blob at path with the given change message. The current
// revision token is discovered first; a stale one makes the API reject the
// write, which propagates as an error.
func (s *GitHubStore) Put(ctx context.Context, path string, data []byte, message string) error {
	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(data),
	}
	if sha := s.revisionToken(ctx, path); sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API PUT %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Delete removes the blob at path. Without a discoverable revision token
// there is nothing to delete and the call is a no-op; a 404 on the delete
// itself means the blob is already gone and is also tolerated.
func (s *GitHubStore) Delete(ctx context.Context, path string, message string) error {
	sha := s.revisionToken(ctx, path)
	if sha == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"message": message,
		"sha":     sha,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API DELETE %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
