package config

import (
	"fmt"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// StringList decodes a YAML scalar or sequence into a []string, for
// `game.team_ip: string or list` (§6).
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("team_ip must be a string or a list of strings")
	}
}

// GameConfig is the `game` section of server.yaml (§6).
type GameConfig struct {
	TickDuration float64    `yaml:"tick_duration" json:"tick_duration"`
	FlagFormat   string     `yaml:"flag_format" json:"flag_format"`
	TeamIP       StringList `yaml:"team_ip" json:"team_ip"`
	Start        string     `yaml:"start,omitempty" json:"start,omitempty"`
	TeamsJSONURL string     `yaml:"teams_json_url,omitempty" json:"teams_json_url,omitempty"`
}

// StartTime parses the optional "YYYY-MM-DD HH:MM[:SS]" start instant.
func (g GameConfig) StartTime() (time.Time, bool, error) {
	if g.Start == "" {
		return time.Time{}, false, nil
	}
	layouts := []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, g.Start, time.Local); err == nil {
			return t, true, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, false, fmt.Errorf("game.start %q: %w", g.Start, lastErr)
}

// SubmitterConfig is the `submitter` section: exactly one of delay/interval.
type SubmitterConfig struct {
	Delay    float64 `yaml:"delay,omitempty" json:"delay,omitempty"`
	Interval float64 `yaml:"interval,omitempty" json:"interval,omitempty"`
	Module   string  `yaml:"module" json:"-"`
}

// IsDelayMode reports whether delay-mode scheduling (§4.8) is selected.
func (s SubmitterConfig) IsDelayMode() bool { return s.Delay > 0 }

// ServerHTTPConfig is the `server` section.
type ServerHTTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password,omitempty"`
}

// DatabaseConfig is the `database` section: just a DSN/path for the gorm
// sqlite driver, a single-file DB.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ServerConfig is the full server.yaml schema.
type ServerConfig struct {
	Game      GameConfig       `yaml:"game"`
	Submitter SubmitterConfig  `yaml:"submitter"`
	Server    ServerHTTPConfig `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
}

// LoadServer parses and validates a server.yaml file.
func LoadServer(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := decodeStrict(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// Validate enforces §6's server.yaml constraints.
func (c *ServerConfig) Validate() error {
	if c.Game.TickDuration <= 0 {
		return fmt.Errorf("game.tick_duration must be > 0, got %v", c.Game.TickDuration)
	}
	if err := (domain.DefaultValidator{}).FlagFormat(c.Game.FlagFormat); err != nil {
		return fmt.Errorf("game.flag_format: %w", err)
	}
	if _, _, err := c.Game.StartTime(); err != nil {
		return err
	}

	hasDelay := c.Submitter.Delay > 0
	hasInterval := c.Submitter.Interval > 0
	if hasDelay == hasInterval {
		return fmt.Errorf("submitter: exactly one of delay or interval must be set")
	}
	if hasDelay && c.Submitter.Delay >= c.Game.TickDuration {
		return fmt.Errorf("submitter.delay (%v) must be < game.tick_duration (%v)", c.Submitter.Delay, c.Game.TickDuration)
	}
	if hasInterval {
		ticks := c.Game.TickDuration
		rem := int64(ticks*1000) % int64(c.Submitter.Interval*1000)
		if rem != 0 {
			return fmt.Errorf("game.tick_duration (%v) must be a multiple of submitter.interval (%v)", ticks, c.Submitter.Interval)
		}
	}
	if c.Submitter.Module == "" {
		return fmt.Errorf("submitter.module is required")
	}

	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Addr builds the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
