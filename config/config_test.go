package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(``))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.PeerTimeout.Duration() != 30*time.Second {
		t.Errorf("PeerTimeout = %v, want 30s", cfg.PeerTimeout.Duration())
	}
	if cfg.Title != "" {
		t.Errorf("Title = %q, want empty string", cfg.Title)
	}
	if cfg.DataFile != "" {
		t.Errorf("DataFile = %q, want empty string", cfg.DataFile)
	}
	if len(cfg.Peers) != 0 {
		t.Errorf("len(Peers) = %d, want 0", len(cfg.Peers))
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Team Tasks
port: 9090
data_file: /var/lib/taskpulse/tasks.db
peers:
  - tasks-b.internal:8080
  - https://tasks-c.example.com
peer_timeout: 10s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Team Tasks" {
		t.Errorf("Title = %q, want %q", cfg.Title, "Team Tasks")
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.DataFile != "/var/lib/taskpulse/tasks.db" {
		t.Errorf("DataFile = %q, want %q", cfg.DataFile, "/var/lib/taskpulse/tasks.db")
	}
	if len(cfg.Peers) != 2 {
		t.Fatalf("len(Peers) = %d, want 2", len(cfg.Peers))
	}
	if cfg.Peers[0] != "tasks-b.internal:8080" {
		t.Errorf("Peers[0] = %q, want %q", cfg.Peers[0], "tasks-b.internal:8080")
	}
	if cfg.Peers[1] != "https://tasks-c.example.com" {
		t.Errorf("Peers[1] = %q, want %q", cfg.Peers[1], "https://tasks-c.example.com")
	}
	if cfg.PeerTimeout.Duration() != 10*time.Second {
		t.Errorf("PeerTimeout = %v, want 10s", cfg.PeerTimeout.Duration())
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test (Go 1.17+)
	t.Setenv("TEST_PEER_HOST", "tasks-b.test.com")
	t.Setenv("TEST_DATA_DIR", "/tmp/taskpulse")

	yaml := `
data_file: ${TEST_DATA_DIR}/tasks.db
peers:
  - ${TEST_PEER_HOST}:8080
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.DataFile != "/tmp/taskpulse/tasks.db" {
		t.Errorf("DataFile = %q, want /tmp/taskpulse/tasks.db", cfg.DataFile)
	}
	if len(cfg.Peers) != 1 || cfg.Peers[0] != "tasks-b.test.com:8080" {
		t.Errorf("Peers = %v, want [tasks-b.test.com:8080]", cfg.Peers)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
peers:
  - ${UNSET_VAR:-fallback.example.com:8080}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Peers) != 1 || cfg.Peers[0] != "fallback.example.com:8080" {
		t.Errorf("Peers = %v, want [fallback.example.com:8080]", cfg.Peers)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	yaml := `
peers:
  - ${MISSING_VAR}:8080
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should mention MISSING_VAR: %v", err)
	}
}

func TestParse_EmptyPeerPlaceholderDropped(t *testing.T) {
	yaml := `
peers:
  - tasks-b.internal:8080
  - ${UNSET_PEER:-}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// a placeholder resolving to empty is dropped, not an error
	if len(cfg.Peers) != 1 {
		t.Fatalf("len(Peers) = %d, want 1", len(cfg.Peers))
	}
	if cfg.Peers[0] != "tasks-b.internal:8080" {
		t.Errorf("Peers[0] = %q, want tasks-b.internal:8080", cfg.Peers[0])
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "port too large",
			yaml:        `port: 70000`,
			wantErrLike: "port must be between 1 and 65535",
		},
		{
			name:        "port negative",
			yaml:        `port: -1`,
			wantErrLike: "port must be between 1 and 65535",
		},
		{
			name: "duplicate peers",
			yaml: `
peers:
  - tasks-b.internal:8080
  - tasks-b.internal:8080
`,
			wantErrLike: `duplicate address "tasks-b.internal:8080"`,
		},
		{
			name: "peer with bad scheme",
			yaml: `
peers:
  - ftp://tasks-b.internal
`,
			wantErrLike: "address scheme must be http or https",
		},
		{
			name: "peer with scheme but no host",
			yaml: `
peers:
  - "http://"
`,
			wantErrLike: "has no host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_PeerTimeoutMinimum(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "negative duration",
			yaml:    `peer_timeout: -5s`,
			wantErr: "peer_timeout must be at least 1s",
		},
		{
			name:    "too short 100ms",
			yaml:    `peer_timeout: 100ms`,
			wantErr: "peer_timeout must be at least 1s",
		},
		{
			name:    "too short 999ms",
			yaml:    `peer_timeout: 999ms`,
			wantErr: "peer_timeout must be at least 1s",
		},
		{
			name:    "minimum 1s",
			yaml:    `peer_timeout: 1s`,
			wantErr: "",
		},
		{
			name:    "typical 30s",
			yaml:    `peer_timeout: 30s`,
			wantErr: "",
		},
		{
			name:    "zero gets default",
			yaml:    `port: 8080`,
			wantErr: "", // 0 becomes 30s via default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_PeerAddressForms(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr string
	}{
		{
			name:    "bare host and port",
			addr:    "example.com:8080",
			wantErr: "",
		},
		{
			name:    "http url",
			addr:    "http://example.com:8080",
			wantErr: "",
		},
		{
			name:    "https url",
			addr:    "https://example.com",
			wantErr: "",
		},
		{
			name:    "ftp scheme rejected",
			addr:    "ftp://example.com",
			wantErr: "address scheme must be http or https",
		},
		{
			name:    "file scheme rejected",
			addr:    "file:///etc/passwd",
			wantErr: "address scheme must be http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
peers:
  - "` + tt.addr + `"
`
			_, err := Parse([]byte(yaml))

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	yaml := `
this is not: valid: yaml: at all
  - broken
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `peer_timeout: not-a-duration`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %q, want to contain 'invalid duration'", err.Error())
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"hours", "1h", 1 * time.Hour, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// peer_timeout exercises Duration parsing (values must be >= 1s
			// due to the minimum timeout validation)
			yaml := `peer_timeout: ` + tt.input

			cfg, err := Parse([]byte(yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.PeerTimeout.Duration() != tt.want {
				t.Errorf("PeerTimeout = %v, want %v", cfg.PeerTimeout.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		// set-but-empty env var should substitute empty string
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Title(t *testing.T) {
	yaml := `title: Household Chores`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Household Chores" {
		t.Errorf("Title = %q, want %q", cfg.Title, "Household Chores")
	}
}

func TestParse_DataFileEnvExpansion(t *testing.T) {
	t.Setenv("TEST_STATE_DIR", "/var/lib/taskpulse")

	yaml := `data_file: ${TEST_STATE_DIR}/tasks.db`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.DataFile != "/var/lib/taskpulse/tasks.db" {
		t.Errorf("DataFile = %q, want /var/lib/taskpulse/tasks.db", cfg.DataFile)
	}
}
