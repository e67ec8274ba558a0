package matrix

import (
	"testing"
)

func TestExpandOnePerVersion(t *testing.T) {
	versions := []string{"2.7", "3.5", "3.6", "3.7"}
	entries, err := Expand("python", versions)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(entries) != len(versions) {
		t.Fatalf("expected %d entries, got %d", len(versions), len(entries))
	}
	seen := make(map[string]bool)
	for i, entry := range entries {
		if entry.Version != versions[i] {
			t.Fatalf("entry %d: expected version %q, got %q", i, versions[i], entry.Version)
		}
		if seen[entry.Version] {
			t.Fatalf("duplicate entry for %q", entry.Version)
		}
		seen[entry.Version] = true
		if want := "python" + versions[i]; entry.Interpreter != want {
			t.Fatalf("entry %d: expected interpreter %q, got %q", i, want, entry.Interpreter)
		}
	}
}

func TestExpandRejectsDuplicates(t *testing.T) {
	if _, err := Expand("python", []string{"3.6", "3.6"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestExpandRejectsEmpty(t *testing.T) {
	if _, err := Expand("python", nil); err == nil {
		t.Fatalf("expected empty matrix error")
	}
	if _, err := Expand("python", []string{" "}); err == nil {
		t.Fatalf("expected blank version error")
	}
}

func TestFilterEntries(t *testing.T) {
	entries, err := Expand("python", []string{"2.7", "3.6", "3.7"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	patterns, err := Compile([]string{"3.6"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	filtered := FilterEntries(entries, patterns)
	if len(filtered) != 1 || filtered[0].Version != "3.6" {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}

	regex, err := Compile([]string{`/^3\./`})
	if err != nil {
		t.Fatalf("Compile regex: %v", err)
	}
	filtered = FilterEntries(entries, regex)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 regex matches, got %+v", filtered)
	}

	if got := FilterEntries(entries, nil); len(got) != 3 {
		t.Fatalf("nil patterns must keep all entries, got %+v", got)
	}
}

func TestCompileBadRegex(t *testing.T) {
	if _, err := Compile([]string{"/[/"}); err == nil {
		t.Fatalf("expected regex compile error")
	}
}
