package domain

// BatchMode selects how an ExploitSession partitions its attacks into
// batches (§4.3 step 5).
type BatchMode int

const (
	// BatchNone runs every attack concurrently with a single aggregate
	// deadline — the default when Batches is nil.
	BatchNone BatchMode = iota
	// BatchByCount partitions attacks into a fixed number of near-equal
	// batches, distributing the remainder into the first few.
	BatchByCount
	// BatchBySize partitions attacks into fixed-size, consecutive batches.
	BatchBySize
)

// BatchConfig is the optional `batches` section of an ExploitDefinition.
// Exactly one of Count/Size should be set; Count takes precedence if both
// are present.
type BatchConfig struct {
	Count int     `yaml:"count,omitempty"`
	Size  int     `yaml:"size,omitempty"`
	Wait  float64 `yaml:"wait"`
}

// Mode reports which batching discipline this config selects.
func (b *BatchConfig) Mode() BatchMode {
	if b == nil {
		return BatchNone
	}
	if b.Count > 0 {
		return BatchByCount
	}
	if b.Size > 0 {
		return BatchBySize
	}
	return BatchNone
}

// AutoTargets is the sentinel targets entry meaning "resolve from the teams
// directory at launch time" (§4.3 step 1).
const AutoTargets = "auto"

// ExploitDefinition is one entry of the client's `exploits:` YAML list
// (§3, §6). It is immutable once loaded for a given content hash; the
// definitions cache reloads a new value only when the file's bytes change.
type ExploitDefinition struct {
	Name     string            `yaml:"name"`
	Targets  []string          `yaml:"targets"`
	Module   string            `yaml:"module,omitempty"`
	Run      string            `yaml:"run,omitempty"`
	Prepare  string            `yaml:"prepare,omitempty"`
	Cleanup  string            `yaml:"cleanup,omitempty"`
	Timeout  int               `yaml:"timeout,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	Delay    float64           `yaml:"delay,omitempty"`
	Batches  *BatchConfig      `yaml:"batches,omitempty"`
}

// DefaultTimeoutSeconds is applied when an ExploitDefinition omits timeout.
const DefaultTimeoutSeconds = 30

// EffectiveTimeout returns the configured timeout or the default.
func (e ExploitDefinition) EffectiveTimeout() int {
	if e.Timeout <= 0 {
		return DefaultTimeoutSeconds
	}
	return e.Timeout
}

// UsesAutoTargets reports whether Targets is exactly the literal "auto".
func (e ExploitDefinition) UsesAutoTargets() bool {
	return len(e.Targets) == 1 && e.Targets[0] == AutoTargets
}
