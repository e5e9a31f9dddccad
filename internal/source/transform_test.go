package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write descriptor: %v", err)
	}
}

// TestBuildFileName tests the derived filename pattern
func TestBuildFileName(t *testing.T) {
	cases := []struct {
		source, position, champion string
		index                      int
		want                       string
	}{
		{"op", "", "Ahri", 1, "[OP] Ahri-1"},
		{"op", "", "Ahri", 2, "[OP] Ahri-2"},
		{"op", "mid", "Ahri", 1, "[OP] mid - Ahri-1"},
		{"u.gg", "top", "Aatrox", 3, "[U.GG] top - Aatrox-3"},
	}
	for _, c := range cases {
		if got := BuildFileName(c.source, c.position, c.champion, c.index); got != c.want {
			t.Errorf("BuildFileName(%q, %q, %q, %d): expected %q, got %q",
				c.source, c.position, c.champion, c.index, c.want, got)
		}
	}
}

// TestBuildFileName_Uniqueness tests that distinct tuples never collide
func TestBuildFileName_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for _, champ := range []string{"Ahri", "Yone"} {
		for _, pos := range []string{"", "mid", "top"} {
			for index := 1; index <= 3; index++ {
				name := BuildFileName("op", pos, champ, index)
				if seen[name] {
					t.Errorf("Duplicate filename: %q", name)
				}
				seen[name] = true
			}
		}
	}
}

// TestParse tests descriptor transformation into normalized builds
func TestParse(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "Ahri.json", `{
		"champion": "Ahri",
		"itemBuilds": [
			{"title": "Burst", "blocks": [{"type": "Starter", "items": [{"id": "1056", "count": 1}]}]},
			{"blocks": []}
		],
		"runes": [{"name": "Electrocute", "primaryStyleId": 8100, "subStyleId": 8000, "selectedPerkIds": [8112]}]
	}`)
	writeDescriptor(t, dir, "Yone.json", `{
		"champion": "Yone",
		"position": "mid",
		"itemBuilds": [{"title": "Standard", "blocks": []}]
	}`)

	res, err := Parse(dir, "op", zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected parse to succeed, got: %v", err)
	}

	if len(res.Builds) != 3 {
		t.Fatalf("Expected 3 builds, got %d", len(res.Builds))
	}

	names := make(map[string]bool)
	for _, b := range res.Builds {
		names[b.FileName] = true
	}
	for _, want := range []string{"[OP] Ahri-1", "[OP] Ahri-2", "[OP] mid - Yone-1"} {
		if !names[want] {
			t.Errorf("Expected build %q, got: %v", want, names)
		}
	}

	if len(res.Runes["Ahri"]) != 1 || res.Runes["Ahri"][0].Name != "Electrocute" {
		t.Errorf("Expected Ahri rune suggestions, got: %v", res.Runes)
	}
}

// TestParse_UntitledBuildGetsFileName tests the title fallback
func TestParse_UntitledBuildGetsFileName(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "Ahri.json", `{"champion": "Ahri", "itemBuilds": [{"blocks": []}]}`)

	res, err := Parse(dir, "op", zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected parse to succeed, got: %v", err)
	}
	if res.Builds[0].Set.Title != "[OP] Ahri-1" {
		t.Errorf("Expected fallback title, got: %q", res.Builds[0].Set.Title)
	}
}

// TestParse_SkipsMalformed tests that a bad descriptor does not abort the
// rest of the package.
func TestParse_SkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "broken.json", `{{{`)
	writeDescriptor(t, dir, "empty.json", `{"itemBuilds": []}`)
	writeDescriptor(t, dir, "package.json", `{"name": "@champ-r/op"}`)
	writeDescriptor(t, dir, "Ahri.json", `{"champion": "Ahri", "itemBuilds": [{"title": "x", "blocks": []}]}`)

	res, err := Parse(dir, "op", zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected parse to succeed, got: %v", err)
	}
	if len(res.Builds) != 1 {
		t.Errorf("Expected 1 build from the valid descriptor, got %d", len(res.Builds))
	}
	if res.Skipped != 2 {
		t.Errorf("Expected 2 skipped files, got %d", res.Skipped)
	}
}
