package manifest

import (
	"strings"
	"testing"
)

const sampleManifest = `
dist: xenial
git:
  depth: false
language: python
python:
  - 2.7
  - 3.5
  - 3.6
  - 3.7
cache: pip
install:
  - travis_retry pip install .
  - travis_retry pip install .[tests]
script:
  - pytest --cov=deepcell_tracking --pep8
after_success:
  - coveralls
jobs:
  include:
    - stage: deploy
      if: tag IS present
      deploy:
        provider: pypi
        user: $PYPI_USERNAME
        password: $PYPI_PASSWORD
        on:
          tags: true
`

func TestDecodeSampleManifest(t *testing.T) {
	m, err := Decode(strings.NewReader(sampleManifest), ".travis.yml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if m.Language != "python" || m.Dist != "xenial" {
		t.Fatalf("unexpected language/dist: %q/%q", m.Language, m.Dist)
	}
	if !m.Git.DepthSet || !m.Git.FullDepth {
		t.Fatalf("expected full-depth git config, got %+v", m.Git)
	}

	want := []string{"2.7", "3.5", "3.6", "3.7"}
	if len(m.Versions) != len(want) {
		t.Fatalf("expected %d versions, got %v", len(want), m.Versions)
	}
	for i, v := range want {
		if m.Versions[i] != v {
			t.Fatalf("version %d: expected %q, got %q", i, v, m.Versions[i])
		}
	}

	if m.Cache.Key != "pip" {
		t.Fatalf("expected pip cache, got %+v", m.Cache)
	}

	if len(m.Install) != 2 {
		t.Fatalf("expected 2 install steps, got %+v", m.Install)
	}
	for _, step := range m.Install {
		if !step.Retry {
			t.Fatalf("expected install step %q to be retryable", step.Run)
		}
		if strings.Contains(step.Run, "travis_retry") {
			t.Fatalf("retry wrapper not stripped from %q", step.Run)
		}
	}

	if len(m.Script) != 1 || m.Script[0].Run != "pytest --cov=deepcell_tracking --pep8" {
		t.Fatalf("unexpected script steps: %+v", m.Script)
	}
	if m.Script[0].Retry {
		t.Fatalf("script steps must never be retryable")
	}
	if len(m.AfterSuccess) != 1 || m.AfterSuccess[0].Run != "coveralls" {
		t.Fatalf("unexpected after_success steps: %+v", m.AfterSuccess)
	}

	if m.Deploy == nil {
		t.Fatalf("expected a deploy stage")
	}
	if m.Deploy.Provider != "pypi" || m.Deploy.User != "$PYPI_USERNAME" || m.Deploy.Password != "$PYPI_PASSWORD" {
		t.Fatalf("unexpected deploy: %+v", m.Deploy)
	}
	if !m.Deploy.OnTags || m.Deploy.Condition != "tag IS present" {
		t.Fatalf("unexpected deploy gate: %+v", m.Deploy)
	}
	if m.Deploy.GateCondition() != "tag IS present" {
		t.Fatalf("unexpected gate condition %q", m.Deploy.GateCondition())
	}
}

func TestDecodeScalarFields(t *testing.T) {
	doc := `
language: python
python: 3.10
install: pip install .
script: pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Versions) != 1 || m.Versions[0] != "3.10" {
		t.Fatalf("scalar python version mangled: %v", m.Versions)
	}
	if len(m.Install) != 1 || len(m.Script) != 1 {
		t.Fatalf("scalar steps not promoted to lists: %+v %+v", m.Install, m.Script)
	}
}

func TestDecodeDuplicateVersions(t *testing.T) {
	doc := `
language: python
python: ["3.6", "3.6"]
script: pytest
`
	if _, err := Decode(strings.NewReader(doc), "inline"); err == nil {
		t.Fatalf("expected duplicate version error")
	} else if !strings.Contains(err.Error(), "duplicate runtime version") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeDefaultsVersionWithWarning(t *testing.T) {
	doc := `
language: python
script: pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Versions) != 1 || m.Versions[0] != "2.7" {
		t.Fatalf("expected default version 2.7, got %v", m.Versions)
	}
	if len(m.Warnings) == 0 {
		t.Fatalf("expected a warning about the defaulted version")
	}
}

func TestDecodeRetryOnScriptDowngraded(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
script: travis_retry pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Script[0].Retry {
		t.Fatalf("script retry must be downgraded")
	}
	found := false
	for _, w := range m.Warnings {
		if strings.Contains(w.Message, "never retried") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning about ignored script retry, got %+v", m.Warnings)
	}
}

func TestDecodeEnvGlobal(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
env:
  global:
    - COVERAGE=1
    - NAME="quoted value"
script: pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Env["COVERAGE"] != "1" {
		t.Fatalf("expected COVERAGE=1, got %+v", m.Env)
	}
	if m.Env["NAME"] != "quoted value" {
		t.Fatalf("expected quotes stripped, got %q", m.Env["NAME"])
	}
}

func TestDecodeCacheMapping(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
cache:
  pip: true
  directories:
    - node_modules
script: pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Cache.Key != "pip" || len(m.Cache.Directories) != 1 {
		t.Fatalf("unexpected cache: %+v", m.Cache)
	}
}

func TestDecodeUnsupportedSectionsWarn(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
services:
  - docker
notifications:
  email: false
script: pytest
`
	m, err := Decode(strings.NewReader(doc), "inline")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fields := make(map[string]bool)
	for _, w := range m.Warnings {
		fields[w.Field] = true
	}
	if !fields["services"] || !fields["notifications"] {
		t.Fatalf("expected warnings for services and notifications, got %+v", m.Warnings)
	}
}

func TestDecodeDeployMissingProvider(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
script: pytest
deploy:
  user: $U
  password: $P
`
	if _, err := Decode(strings.NewReader(doc), "inline"); err == nil {
		t.Fatalf("expected missing provider error")
	}
}

func TestDecodeBadDeployCondition(t *testing.T) {
	doc := `
language: python
python: ["3.6"]
script: pytest
jobs:
  include:
    - stage: deploy
      if: commit IS present
      deploy:
        provider: pypi
`
	if _, err := Decode(strings.NewReader(doc), "inline"); err == nil {
		t.Fatalf("expected condition parse error for unknown attribute")
	}
}
