package manifest

// Manifest is the parsed form of a .travis.yml pipeline declaration.
type Manifest struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Dist     string    `json:"dist,omitempty"`
	Git      GitConfig `json:"git"`

	// Versions is the runtime matrix axis (the `python` key).
	Versions []string `json:"versions"`

	Cache Cache             `json:"cache"`
	Env   map[string]string `json:"env,omitempty"`

	Install      []Step `json:"install,omitempty"`
	Script       []Step `json:"script,omitempty"`
	AfterSuccess []Step `json:"after_success,omitempty"`

	Deploy *Deploy `json:"deploy,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// GitConfig mirrors the manifest's git section. Depth false means full
// history; locally the checkout already exists, so it is informational.
type GitConfig struct {
	DepthSet  bool `json:"depth_set,omitempty"`
	FullDepth bool `json:"full_depth,omitempty"`
	Depth     int  `json:"depth,omitempty"`
}

// Cache names the dependency cache and the directories it covers.
type Cache struct {
	Key         string   `json:"key,omitempty"`
	Directories []string `json:"directories,omitempty"`
}

// Enabled reports whether the manifest declared a cache at all.
func (c Cache) Enabled() bool {
	return c.Key != ""
}

// Step is one shell command in a phase. Retry marks commands that were
// wrapped in travis_retry and may be re-attempted on failure.
type Step struct {
	Run   string `json:"run"`
	Retry bool   `json:"retry,omitempty"`
}

// Deploy describes the gated release stage.
type Deploy struct {
	Stage     string `json:"stage,omitempty"`
	Condition string `json:"condition,omitempty"`
	Provider  string `json:"provider"`
	// User and Password are environment variable references ($NAME form)
	// or literals, resolved at deploy time.
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	// Script is the publish command for the script provider.
	Script string `json:"script,omitempty"`
	OnTags bool   `json:"on_tags,omitempty"`
}

// GateCondition returns the predicate guarding the deploy stage. An explicit
// `if` expression wins; `on.tags: true` is shorthand for tag presence.
func (d *Deploy) GateCondition() string {
	if d.Condition != "" {
		return d.Condition
	}
	if d.OnTags {
		return "tag IS present"
	}
	return ""
}

// Warning captures non-fatal issues found while parsing the manifest.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
