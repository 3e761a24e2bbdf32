package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteScreens creates each named file in dir with a few bytes of content.
func WriteScreens(t testing.TB, dir string, names ...string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// SlotNames returns "<prefix><nnn>.<ext>" for slots first..last inclusive.
func SlotNames(prefix, ext string, first, last int) []string {
	if last < first {
		return nil
	}
	names := make([]string, 0, last-first+1)
	for n := first; n <= last; n++ {
		names = append(names, fmt.Sprintf("%s%03d.%s", prefix, n, ext))
	}
	return names
}
