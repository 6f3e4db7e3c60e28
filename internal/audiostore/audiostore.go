// Package audiostore is the content store for call recordings. Binaries are
// addressed by a sanitized, timestamp-salted key with a JSON sidecar
// carrying provenance metadata; callers expose recordings through the
// playback path, never through the physical location.
package audiostore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("audiostore: not found")

// Metadata is the provenance sidecar written next to each recording.
type Metadata struct {
	ConversationID string    `json:"conversation_id"`
	CallID         string    `json:"call_id"`
	OrgID          string    `json:"org_id"`
	SizeBytes      int64     `json:"size_bytes"`
	ContentType    string    `json:"content_type,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Store persists recordings on the local filesystem under a single
// directory. Keys are flat; SanitizeKey guarantees they contain no path
// separators.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("audiostore: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audiostore: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SanitizeKey strips every character outside [A-Za-z0-9_.-]. The input is
// vendor-supplied (a conversation id) and must never be trusted as a
// filesystem path component; this is a path-traversal defense.
func SanitizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildKey derives the storage key for a conversation recording:
// sanitize(conversationID) + "_" + acquisition unix timestamp + ".mp3".
// The timestamp salt keeps re-fetched recordings from overwriting each
// other.
func BuildKey(conversationID string, at time.Time) string {
	return fmt.Sprintf("%s_%d.mp3", SanitizeKey(conversationID), at.UTC().Unix())
}

// PlaybackPath derives the stable public reference for a stored key. The
// UI/API layer serves this path; physical storage stays decoupled from it.
func PlaybackPath(key string) string {
	return "/audio/" + SanitizeKey(key)
}

// Save writes the recording bytes and the JSON sidecar. The sidecar write
// happens after the binary so a crash never leaves metadata pointing at a
// missing file.
func (s *Store) Save(key string, data []byte, meta Metadata) error {
	key = SanitizeKey(key)
	if key == "" {
		return errors.New("audiostore: empty key after sanitization")
	}
	meta.SizeBytes = int64(len(data))
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now().UTC()
	}

	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("audiostore: write %s: %w", key, err)
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("audiostore: marshal sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, key+".json"), raw, 0o644); err != nil {
		return fmt.Errorf("audiostore: write sidecar %s: %w", key, err)
	}
	return nil
}

// Open returns a reader over the stored recording for streaming.
func (s *Store) Open(key string) (io.ReadSeekCloser, error) {
	key = SanitizeKey(key)
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ReadMetadata loads the sidecar for a stored key.
func (s *Store) ReadMetadata(key string) (Metadata, error) {
	key = SanitizeKey(key)
	raw, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("audiostore: decode sidecar %s: %w", key, err)
	}
	return m, nil
}

// Delete removes a recording and its sidecar. Best-effort: missing files
// are not errors, because AudioAsset cleanup is not transactional with the
// CallLog rows that reference it.
func (s *Store) Delete(key string) error {
	key = SanitizeKey(key)
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key+".json")); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
