package gitinfo

import "testing"

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveExplicitWinsOverEnv(t *testing.T) {
	lookup := fakeEnv(map[string]string{
		"TRAVIS_TAG":    "v0.9",
		"TRAVIS_BRANCH": "develop",
	})
	build := Resolve(t.TempDir(), "v1.0", "main", lookup)
	if build.Tag != "v1.0" || build.Branch != "main" {
		t.Fatalf("Resolve = %+v, want explicit values", build)
	}
}

func TestResolveFallsBackToEnv(t *testing.T) {
	lookup := fakeEnv(map[string]string{
		"TRAVIS_TAG":    "v0.9",
		"TRAVIS_BRANCH": "develop",
	})
	build := Resolve(t.TempDir(), "", "", lookup)
	if build.Tag != "v0.9" || build.Branch != "develop" {
		t.Fatalf("Resolve = %+v, want env values", build)
	}
}

func TestResolveOutsideRepository(t *testing.T) {
	// A plain directory has no git metadata; both probes are best-effort.
	build := Resolve(t.TempDir(), "", "", fakeEnv(nil))
	if build.Tag != "" || build.Branch != "" {
		t.Fatalf("Resolve = %+v, want empty metadata", build)
	}
}

func TestResolveNilLookup(t *testing.T) {
	build := Resolve(t.TempDir(), "v2.0", "", nil)
	if build.Tag != "v2.0" {
		t.Fatalf("Resolve = %+v, want explicit tag", build)
	}
}
