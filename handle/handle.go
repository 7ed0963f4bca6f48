package handle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"
)

// Default limits.
const (
	// DefaultWindowCeiling is the hard per-call cap on ReadWindow sizes.
	DefaultWindowCeiling = 256

	// PreviewLen is the number of characters of a stored text carried in
	// a Handle's preview.
	PreviewLen = 80
)

// ErrUnknownHandle is returned when a key does not exist in the store.
// It is always an explicit error, never a silent empty result.
var ErrUnknownHandle = errors.New("unknown handle")

// Handle is the opaque small-metadata reference returned by Put.
// It is immutable once created.
type Handle struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// Stats is the bounded metadata view of a stored text.
type Stats struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	Size      int    `json:"size"`
	LineCount int    `json:"line_count"`
	Preview   string `json:"preview"`
}

// Window is a bounded slice of a stored text.
type Window struct {
	Key          string `json:"key"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	ReturnedSize int    `json:"returned_size"`
	Clamped      bool   `json:"clamped"`
	Text         string `json:"text"`
}

// Store is the blob store contract.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; entries
//   are append-only and never mutated in place.
// - Errors: Stats and ReadWindow return ErrUnknownHandle for absent keys.
// - Ownership: returned values are caller-owned copies.
type Store interface {
	// Put stores text verbatim under a content-addressed key and returns
	// its Handle. Put always succeeds apart from backend I/O failures and
	// is idempotent for identical text.
	Put(text, kind string) (Handle, error)

	// Stats returns bounded metadata for a stored text.
	Stats(key string) (Stats, error)

	// ReadWindow returns the slice [start, start+size) of a stored text,
	// with size clamped to the store's window ceiling and start clamped
	// into range. Window.Clamped reports whether the requested size
	// exceeded the ceiling.
	ReadWindow(key string, start, size int) (Window, error)
}

// KeyFor returns the content-addressed key for a text.
func KeyFor(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "h:" + hex.EncodeToString(sum[:6])
}

// preview returns the first PreviewLen characters of text, trimmed to a
// rune boundary.
func preview(text string) string {
	return truncateRunes(text, PreviewLen)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// clampWindow applies the window bounds shared by all Store
// implementations.
func clampWindow(key, text string, start, size, ceiling int) Window {
	if ceiling <= 0 {
		ceiling = DefaultWindowCeiling
	}
	clamped := size > ceiling
	if size > ceiling {
		size = ceiling
	}
	if size < 0 {
		size = 0
	}
	if start < 0 {
		start = 0
	}
	if start > len(text) {
		start = len(text)
	}
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	return Window{
		Key:          key,
		Start:        start,
		End:          end,
		ReturnedSize: end - start,
		Clamped:      clamped,
		Text:         text[start:end],
	}
}
