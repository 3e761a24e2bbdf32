package slots

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// DefaultPrefix is the file name prefix written by the game client.
	DefaultPrefix = "gw"
	// digitCount is the number of ASCII digits embedded in a tracked name.
	digitCount = 3
	// MaxCapacity is the largest slot space a three digit name can address.
	MaxCapacity = 999
)

// DefaultExtensions lists the image extensions the game client writes.
var DefaultExtensions = []string{"bmp", "jpg"}

// Classifier recognises tracked file names of the form
// <prefix><3 digits>.<ext>. Matching is ASCII case-insensitive; names with
// any non-ASCII byte never match.
type Classifier struct {
	prefix     string
	extensions map[string]struct{}
	capacity   int
}

// NewClassifier builds a classifier for the given prefix, extension set and
// slot capacity. Extensions are given without the leading dot.
func NewClassifier(prefix string, extensions []string, capacity int) (*Classifier, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("classifier prefix is required")
	}
	if !isASCII(prefix) {
		return nil, fmt.Errorf("classifier prefix %q must be ASCII", prefix)
	}
	if capacity < 1 || capacity > MaxCapacity {
		return nil, fmt.Errorf("classifier capacity must be between 1 and %d, got %d", MaxCapacity, capacity)
	}
	if len(extensions) == 0 {
		return nil, fmt.Errorf("classifier needs at least one extension")
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = fold(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			return nil, fmt.Errorf("classifier extension must not be empty")
		}
		if !isASCII(ext) {
			return nil, fmt.Errorf("classifier extension %q must be ASCII", ext)
		}
		exts[ext] = struct{}{}
	}

	return &Classifier{
		prefix:     fold(prefix),
		extensions: exts,
		capacity:   capacity,
	}, nil
}

// DefaultClassifier returns the classifier for gw###.bmp / gw###.jpg names over
// the full 999 slot space.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultPrefix, DefaultExtensions, MaxCapacity)
	if err != nil {
		panic(err)
	}
	return c
}

// Capacity reports the number of slots the classifier maps names onto.
func (c *Classifier) Capacity() int {
	return c.capacity
}

// Classify returns the zero-based slot index embedded in name. The second
// result is false when the name does not match the tracked pattern or embeds a
// number outside 1..capacity (gw000.bmp is such a name).
func (c *Classifier) Classify(name string) (int, bool) {
	number, ok := c.parse(name)
	if !ok {
		return -1, false
	}
	index := number - 1
	if index < 0 || index >= c.capacity {
		return -1, false
	}
	return index, true
}

// Matches reports whether name has the tracked syntax, regardless of whether
// the embedded number addresses a valid slot. Rotation moves every matching
// file, including out-of-range ones.
func (c *Classifier) Matches(name string) bool {
	_, ok := c.parse(name)
	return ok
}

func (c *Classifier) parse(name string) (int, bool) {
	if name == "" || !isASCII(name) || strings.ContainsAny(name, `/\`) {
		return 0, false
	}
	folded := fold(name)
	if !strings.HasPrefix(folded, c.prefix) {
		return 0, false
	}
	rest := folded[len(c.prefix):]
	if len(rest) < digitCount+2 {
		return 0, false
	}

	number := 0
	for i := 0; i < digitCount; i++ {
		ch := rest[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		number = number*10 + int(ch-'0')
	}
	if rest[digitCount] != '.' {
		return 0, false
	}
	if _, ok := c.extensions[rest[digitCount+1:]]; !ok {
		return 0, false
	}
	return number, true
}

// fold lower-cases value. Callers only pass ASCII, so folding never maps a
// letter onto a different one or changes the byte length. A Caser is
// stateful, so each call gets a fresh one.
func fold(value string) string {
	return cases.Fold().String(value)
}

func isASCII(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
