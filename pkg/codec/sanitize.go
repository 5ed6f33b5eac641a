package codec

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxItemIDSize bounds item identifiers, in bytes.
	DefaultMaxItemIDSize = 128
	// EnvMaxItemIDSize is the environment variable to override the default.
	EnvMaxItemIDSize = "COLDCHAIN_MAX_ITEM_ID"
)

var (
	ErrItemIDTooLarge = errors.New("item id exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("item id contains invalid UTF-8 sequences")
)

// SanitizeItemID cleans an item identifier read by a station.
// It trims surrounding whitespace, enforces the size limit, validates UTF-8
// and strips control characters (ANSI escapes, NUL, newlines), which would
// otherwise end up in logs and on dashboards.
// The result may be empty; callers decide whether that is an error.
func SanitizeItemID(id string) (string, error) {
	// Reject rather than truncate: two long tags sharing a prefix must not merge.
	limit := maxItemIDSize()
	if len(id) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrItemIDTooLarge, len(id), limit)
	}

	if !utf8.ValidString(id) {
		return "", ErrInvalidUTF8
	}

	id = strings.TrimSpace(id)

	// Fast path: if no control chars, return as is.
	if strings.IndexFunc(id, unicode.IsControl) < 0 {
		return id, nil
	}

	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func maxItemIDSize() int {
	if val := os.Getenv(EnvMaxItemIDSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxItemIDSize
}
