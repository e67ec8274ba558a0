package manifest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// travis_retry re-runs flaky commands; the wrapper is stripped during
// parsing and the step marked retryable instead.
const retryWrapper = "travis_retry"

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("open manifest %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses manifest YAML from r. displayPath is used in messages only.
func Decode(r io.Reader, displayPath string) (Manifest, error) {
	var doc manifestDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %q: %w", displayPath, err)
	}

	m := Manifest{
		Path:     displayPath,
		Language: doc.Language,
		Dist:     doc.Dist,
	}

	if err := decodeGit(doc.Git, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %q: %w", displayPath, err)
	}
	if err := decodeCache(doc.Cache, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %q: %w", displayPath, err)
	}
	if err := decodeEnv(doc.Env, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %q: %w", displayPath, err)
	}

	m.Versions = append([]string{}, doc.Python...)
	if err := rejectDuplicateVersions(m.Versions); err != nil {
		return Manifest{}, fmt.Errorf("manifest %q: %w", displayPath, err)
	}
	if len(m.Versions) == 0 {
		m.Versions = []string{"2.7"}
		m.warn("python", "no runtime versions declared; defaulting to 2.7")
	}

	m.Install = parseSteps(doc.Install)
	m.Script = parseSteps(doc.Script)
	m.AfterSuccess = parseSteps(doc.AfterSuccess)
	for i, step := range m.Script {
		if step.Retry {
			// The retry wrapper is honored for install-class commands only.
			m.Script[i].Retry = false
			m.warn("script", fmt.Sprintf("travis_retry on script command %q is ignored; tests are never retried", step.Run))
		}
	}
	for i, step := range m.AfterSuccess {
		if step.Retry {
			m.AfterSuccess[i].Retry = false
			m.warn("after_success", fmt.Sprintf("travis_retry on after_success command %q is ignored", step.Run))
		}
	}

	if err := decodeDeploy(doc, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %q: %w", displayPath, err)
	}

	for _, unsupported := range []struct {
		name string
		node yaml.Node
	}{
		{"services", doc.Services},
		{"matrix", doc.Matrix},
		{"branches", doc.Branches},
		{"notifications", doc.Notifications},
		{"addons", doc.Addons},
	} {
		if !unsupported.node.IsZero() {
			m.warn(unsupported.name, fmt.Sprintf("%s is not supported and was ignored", unsupported.name))
		}
	}

	return m, nil
}

func (m *Manifest) warn(field, message string) {
	m.Warnings = append(m.Warnings, Warning{Field: field, Message: message})
}

func rejectDuplicateVersions(versions []string) error {
	seen := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("duplicate runtime version %q in matrix", v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func parseSteps(commands []string) []Step {
	if len(commands) == 0 {
		return nil
	}
	steps := make([]Step, 0, len(commands))
	for _, raw := range commands {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		step := Step{Run: raw}
		if rest, ok := strings.CutPrefix(raw, retryWrapper+" "); ok {
			step.Run = strings.TrimSpace(rest)
			step.Retry = true
		}
		steps = append(steps, step)
	}
	return steps
}

func decodeGit(node yaml.Node, m *Manifest) error {
	if node.IsZero() {
		return nil
	}
	var git struct {
		Depth yaml.Node `yaml:"depth"`
	}
	if err := node.Decode(&git); err != nil {
		return fmt.Errorf("parse git: %w", err)
	}
	if git.Depth.IsZero() {
		return nil
	}
	m.Git.DepthSet = true
	var full bool
	if err := git.Depth.Decode(&full); err == nil {
		// `depth: false` asks for full history.
		m.Git.FullDepth = !full
		return nil
	}
	var depth int
	if err := git.Depth.Decode(&depth); err != nil {
		return fmt.Errorf("parse git.depth: expected bool or integer")
	}
	m.Git.Depth = depth
	return nil
}

func decodeCache(node yaml.Node, m *Manifest) error {
	if node.IsZero() {
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		var key string
		if err := node.Decode(&key); err != nil {
			return fmt.Errorf("parse cache: %w", err)
		}
		m.Cache.Key = key
		return nil
	case yaml.MappingNode:
		var cacheDoc struct {
			Pip         bool     `yaml:"pip"`
			Directories []string `yaml:"directories"`
		}
		if err := node.Decode(&cacheDoc); err != nil {
			return fmt.Errorf("parse cache: %w", err)
		}
		if cacheDoc.Pip {
			m.Cache.Key = "pip"
		}
		if len(cacheDoc.Directories) > 0 {
			if m.Cache.Key == "" {
				m.Cache.Key = "directories"
			}
			m.Cache.Directories = append([]string{}, cacheDoc.Directories...)
		}
		return nil
	default:
		return fmt.Errorf("parse cache: expected scalar or mapping")
	}
}

func decodeEnv(node yaml.Node, m *Manifest) error {
	if node.IsZero() {
		return nil
	}

	var assignments []string
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&assignments); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
	case yaml.MappingNode:
		var envDoc struct {
			Global []string  `yaml:"global"`
			Matrix yaml.Node `yaml:"matrix"`
		}
		if err := node.Decode(&envDoc); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
		assignments = envDoc.Global
		if !envDoc.Matrix.IsZero() {
			m.warn("env", "env.matrix is not supported and was ignored")
		}
	default:
		return fmt.Errorf("parse env: expected sequence or mapping")
	}

	for _, kv := range assignments {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			m.warn("env", fmt.Sprintf("ignoring malformed assignment %q", kv))
			continue
		}
		if m.Env == nil {
			m.Env = make(map[string]string)
		}
		m.Env[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return nil
}

func decodeDeploy(doc manifestDocument, m *Manifest) error {
	var deploys []Deploy

	if doc.Deploy != nil {
		deploys = append(deploys, Deploy{
			Provider: doc.Deploy.Provider,
			User:     doc.Deploy.User,
			Password: doc.Deploy.Password,
			Script:   doc.Deploy.Script,
			OnTags:   doc.Deploy.On.Tags,
		})
	}

	for _, include := range doc.Jobs.Include {
		if include.Deploy == nil {
			if include.Stage != "" {
				m.warn("jobs", fmt.Sprintf("job stage %q without a deploy section is not supported", include.Stage))
			}
			continue
		}
		deploys = append(deploys, Deploy{
			Stage:     include.Stage,
			Condition: include.If,
			Provider:  include.Deploy.Provider,
			User:      include.Deploy.User,
			Password:  include.Deploy.Password,
			Script:    include.Deploy.Script,
			OnTags:    include.Deploy.On.Tags,
		})
	}

	if len(deploys) == 0 {
		return nil
	}
	if len(deploys) > 1 {
		m.warn("deploy", fmt.Sprintf("%d deploy stages declared; only the first is executed", len(deploys)))
	}

	deploy := deploys[0]
	if deploy.Provider == "" {
		return fmt.Errorf("deploy stage is missing a provider")
	}
	if deploy.Condition != "" {
		if _, err := ParseCondition(deploy.Condition); err != nil {
			return fmt.Errorf("deploy condition: %w", err)
		}
	}
	m.Deploy = &deploy
	return nil
}

type manifestDocument struct {
	Language string     `yaml:"language"`
	Dist     string     `yaml:"dist"`
	Git      yaml.Node  `yaml:"git"`
	Python   stringList `yaml:"python"`
	Cache    yaml.Node  `yaml:"cache"`
	Env      yaml.Node  `yaml:"env"`

	Install      stringList `yaml:"install"`
	Script       stringList `yaml:"script"`
	AfterSuccess stringList `yaml:"after_success"`

	Deploy *deployDocument `yaml:"deploy"`
	Jobs   struct {
		Include []includeDocument `yaml:"include"`
	} `yaml:"jobs"`

	Services      yaml.Node `yaml:"services"`
	Matrix        yaml.Node `yaml:"matrix"`
	Branches      yaml.Node `yaml:"branches"`
	Notifications yaml.Node `yaml:"notifications"`
	Addons        yaml.Node `yaml:"addons"`
}

type includeDocument struct {
	Stage  string          `yaml:"stage"`
	If     string          `yaml:"if"`
	Deploy *deployDocument `yaml:"deploy"`
}

type deployDocument struct {
	Provider string `yaml:"provider"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Script   string `yaml:"script"`
	On       struct {
		Tags bool `yaml:"tags"`
	} `yaml:"on"`
}

// stringList accepts either a single scalar or a sequence of scalars, the
// way Travis treats install/script/python and friends.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	// Raw scalar values are kept verbatim: YAML reads 3.10 as a float and
	// float conversion would corrupt version strings.
	switch node.Kind {
	case yaml.ScalarNode:
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		many := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind != yaml.ScalarNode {
				return fmt.Errorf("expected string at line %d", child.Line)
			}
			many = append(many, child.Value)
		}
		*s = stringList(many)
		return nil
	default:
		return fmt.Errorf("expected string or list of strings at line %d", node.Line)
	}
}
