package config

import (
	"fmt"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// ConnectConfig is the `connect` section of fast.yaml (§6).
type ConnectConfig struct {
	Protocol string `yaml:"protocol"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Player   string `yaml:"player"`
	Password string `yaml:"password,omitempty"`
}

// ListenerConfig is the `listener` section: the local command socket (§6).
type ListenerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ClientConfig is the full fast.yaml schema.
type ClientConfig struct {
	Connect  ConnectConfig               `yaml:"connect"`
	Listener ListenerConfig              `yaml:"listener"`
	Exploits []domain.ExploitDefinition  `yaml:"exploits"`
}

// LoadClient parses and validates a fast.yaml file.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := decodeStrict(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// Validate enforces §6's strict schema constraints.
func (c *ClientConfig) Validate() error {
	switch c.Connect.Protocol {
	case "http", "https":
	default:
		return fmt.Errorf("connect.protocol must be http or https, got %q", c.Connect.Protocol)
	}
	if c.Connect.Host == "" {
		return fmt.Errorf("connect.host is required")
	}
	if c.Connect.Port < 1 || c.Connect.Port > 65535 {
		return fmt.Errorf("connect.port must be in [1,65535], got %d", c.Connect.Port)
	}
	if err := (domain.DefaultValidator{}).PlayerName(c.Connect.Player); err != nil {
		return fmt.Errorf("connect.player: %w", err)
	}
	if c.Listener.Port != 0 && (c.Listener.Port < 1 || c.Listener.Port > 65535) {
		return fmt.Errorf("listener.port must be in [1,65535], got %d", c.Listener.Port)
	}

	seen := make(map[string]bool, len(c.Exploits))
	for i, e := range c.Exploits {
		if e.Name == "" {
			return fmt.Errorf("exploits[%d]: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("exploits[%d]: duplicate exploit name %q", i, e.Name)
		}
		seen[e.Name] = true
		if e.Module == "" && e.Run == "" {
			return fmt.Errorf("exploit %q: one of module or run is required", e.Name)
		}
		if e.Module != "" && e.Run != "" {
			return fmt.Errorf("exploit %q: module and run are mutually exclusive", e.Name)
		}
		if len(e.Targets) == 0 {
			return fmt.Errorf("exploit %q: targets is required", e.Name)
		}
	}
	return nil
}

// BaseURL builds the server's base URL from the connect block.
func (c *ClientConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Connect.Protocol, c.Connect.Host, c.Connect.Port)
}

// ListenerAddr builds the local command socket listen address.
func (c *ClientConfig) ListenerAddr() string {
	host := c.Listener.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Listener.Port
	if port == 0 {
		port = 9090
	}
	return fmt.Sprintf("%s:%d", host, port)
}
