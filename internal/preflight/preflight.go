package preflight

import (
	"context"
	"path/filepath"

	"restream/internal/config"
	"restream/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The destination check is skipped when destination is empty.
func RunAll(ctx context.Context, cfg *config.Config, destination string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path)))
	}

	if destination != "" {
		results = append(results, CheckDestination(destination))
	}

	return results
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the relay controller and the CLI check command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := deps.RelayRequirements(
		cfg.Sink.FFmpegBinary,
		cfg.Source.YTDLPBinary,
		cfg.Source.Extractor == config.ExtractorDirect,
	)
	return deps.CheckBinaries(ctx, requirements)
}
