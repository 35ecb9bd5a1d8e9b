// Package config provides YAML configuration parsing for TaskPulse.
//
// This package enables running TaskPulse as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	title: Team Tasks
//	data_file: tasks.db
//
//	peers:
//	  - tasks-b.internal:8080
//	  - ${TASKS_PEER_C:-}
//	peer_timeout: 30s
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/taskpulse"
)

// Config is the root configuration structure for TaskPulse.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the web UI title. Defaults to "TaskPulse" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// DataFile is the path of the sqlite snapshot database. Empty disables
	// persistence. Supports environment variable substitution:
	// ${VAR} or ${VAR:-default}
	DataFile string `yaml:"data_file"`

	// Peers are addresses of other TaskPulse instances for share/merge
	// reconciliation. Accepts host:port or full http(s) URLs. Values
	// support environment variable substitution.
	Peers []string `yaml:"peers"`

	// PeerTimeout bounds each outbound share/merge call.
	// Accepts duration strings like "10s", "1m", "500ms".
	// Defaults to 30s.
	PeerTimeout Duration `yaml:"peer_timeout"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in DataFile and Peers values.
// Defaults are applied for Port (8080) and PeerTimeout (30s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.PeerTimeout == 0 {
		cfg.PeerTimeout = Duration(taskpulse.DefaultPeerTimeout)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PeerTimeout.Duration() < taskpulse.MinPeerTimeout {
		return fmt.Errorf("peer_timeout must be at least %s, got %s", taskpulse.MinPeerTimeout, c.PeerTimeout.Duration())
	}

	if c.DataFile != "" {
		expanded, err := expandEnvVars(c.DataFile)
		if err != nil {
			return fmt.Errorf("data_file: %w", err)
		}
		c.DataFile = expanded
	}

	seen := make(map[string]struct{}, len(c.Peers))
	// expand first, then drop entries that resolve to empty: this allows
	// ${VAR:-} placeholders for peers that only exist in some environments
	peers := c.Peers[:0]
	for i, addr := range c.Peers {
		expanded, err := expandEnvVars(addr)
		if err != nil {
			return fmt.Errorf("peers[%d]: %w", i, err)
		}
		expanded = strings.TrimSpace(expanded)
		if expanded == "" {
			continue
		}

		if err := validatePeerAddr(expanded); err != nil {
			return fmt.Errorf("peers[%d]: %w", i, err)
		}
		if _, exists := seen[expanded]; exists {
			return fmt.Errorf("peers[%d]: duplicate address %q", i, expanded)
		}
		seen[expanded] = struct{}{}
		peers = append(peers, expanded)
	}
	c.Peers = peers

	return nil
}

// validatePeerAddr checks that a peer address is either host:port or a full
// http(s) URL. Bare addresses get their scheme defaulted by the peer client.
func validatePeerAddr(addr string) error {
	if !strings.Contains(addr, "://") {
		return nil
	}

	parsed, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("address scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("address %q has no host", addr)
	}
	return nil
}
