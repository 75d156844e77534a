package preflight

import (
	"context"

	"billmailer/internal/config"
)

// Names of the input file checks.
const (
	CheckRoster  = "Roster"
	CheckArchive = "Archive"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Inputs names the files a batch is about to read. Empty paths are not checked.
type Inputs struct {
	RosterPath  string
	ArchivePath string
}

// Options selects which checks RunAll performs.
type Options struct {
	Inputs Inputs
	// SkipNetwork leaves out the relay dial, e.g. for dry runs.
	SkipNetwork bool
	// SkipCredentials leaves out the credential check, e.g. for dry runs.
	SkipCredentials bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked; holds the batch lock)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if opts.Inputs.RosterPath != "" {
		results = append(results, CheckInputFile(CheckRoster, opts.Inputs.RosterPath, ".xlsx", ".xlsm", ".csv"))
	}
	if opts.Inputs.ArchivePath != "" {
		results = append(results, CheckInputFile(CheckArchive, opts.Inputs.ArchivePath, ".zip"))
	}

	if !opts.SkipCredentials {
		results = append(results, CheckCredentials(cfg))
	}
	if !opts.SkipNetwork {
		results = append(results, CheckSMTPRelay(ctx, cfg.SMTP.Host, cfg.SMTP.Port))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
