package config

import (
	"log/slog"

	"github.com/jpalmerr/taskpulse"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options are ready to pass to [taskpulse.New], which performs
// its own validation; Parse has already applied defaults and rejected
// malformed values, so the two layers agree. A nil logger leaves the SDK's
// default in place.
func BuildOptions(cfg *Config, logger *slog.Logger) []taskpulse.Option {
	opts := []taskpulse.Option{
		taskpulse.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, taskpulse.WithTitle(cfg.Title))
	}

	if cfg.DataFile != "" {
		opts = append(opts, taskpulse.WithDataPath(cfg.DataFile))
	}

	if len(cfg.Peers) > 0 {
		opts = append(opts, taskpulse.WithPeers(cfg.Peers...))
	}

	if cfg.PeerTimeout != 0 {
		opts = append(opts, taskpulse.WithPeerTimeout(cfg.PeerTimeout.Duration()))
	}

	if logger != nil {
		opts = append(opts, taskpulse.WithLogger(logger))
	}

	return opts
}
