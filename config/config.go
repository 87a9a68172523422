// Package config loads collector settings from
// environment variables with an optional config.json
// overlay. Command line flags take precedence over
// both; the cmd wires that by using the loaded values
// as flag defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
)

// Defaults applied before environment and file
// overlays.
const (
	DefaultGitLabURL   = "https://gitlab.com"
	DefaultMaxProjects = 500
	DefaultTimeout     = 30
	DefaultMaxRetries  = 3
	DefaultConcurrency = 5
	DefaultOutputDir   = "results"
)

// Config holds every externally supplied setting of a
// run.
type Config struct {
	// Source selects the backend: "gitlab" (default)
	// or "github".
	Source string `json:"source"`

	// GitLabURL is the GitLab instance base URL.
	GitLabURL string `json:"gitlab_url"`
	// GitLabToken is the GitLab access token.
	GitLabToken string `json:"gitlab_token"`
	// GroupPath is the root group path (GitLab) or
	// organisation name (GitHub).
	GroupPath string `json:"group_path"`

	// GitHubToken is the GitHub access token.
	GitHubToken string `json:"github_token"`
	// GitHubHost is an optional GitHub Enterprise
	// hostname.
	GitHubHost string `json:"github_host"`

	// Ref overrides the ref files are read at; empty
	// means each project's default branch.
	Ref string `json:"ref"`
	// MaxProjects caps traversal; 0 means no cap.
	MaxProjects int `json:"max_projects"`
	// TimeoutSeconds bounds one HTTP request.
	TimeoutSeconds int `json:"timeout"`
	// MaxRetries is the transient-failure retry
	// budget.
	MaxRetries int `json:"max_retries"`
	// Concurrency bounds parallel project workers.
	Concurrency int `json:"concurrency"`
	// OutputDir receives the exported files.
	OutputDir string `json:"output_dir"`
}

// Load builds a Config from defaults, environment
// variables, and an optional JSON file. An empty path
// checks for "config.json" in the working directory
// and skips it silently when absent; an explicit path
// that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	const errCtx = "loading config"

	cfg := fromEnv()

	explicit := path != ""
	if !explicit {
		path = "config.json"
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		if explicit {
			return Config{}, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return cfg, nil
	}

	// Unmarshal over the env-initialised struct so
	// absent keys keep their values.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf(
			"%s: parsing %s: %w", errCtx, path, err,
		)
	}

	return cfg, nil
}

func fromEnv() Config {
	return Config{
		Source: envStr("CATALOG_SOURCE", "gitlab"),

		GitLabURL: envStr(
			"GITLAB_URL", DefaultGitLabURL,
		),
		GitLabToken: envStr(
			"GITLAB_PRIVATE_TOKEN", "",
		),
		GroupPath: envStr("GITLAB_GROUP", ""),

		GitHubToken: envStr("GITHUB_TOKEN", ""),
		GitHubHost:  envStr("GITHUB_HOST", ""),

		Ref: envStr("CATALOG_REF", ""),
		MaxProjects: envInt(
			"MAX_PROJECTS", DefaultMaxProjects,
		),
		TimeoutSeconds: envInt(
			"REQUEST_TIMEOUT", DefaultTimeout,
		),
		MaxRetries: envInt(
			"MAX_RETRIES", DefaultMaxRetries,
		),
		Concurrency: envInt(
			"CONCURRENCY", DefaultConcurrency,
		),
		OutputDir: envStr(
			"OUTPUT_DIR", DefaultOutputDir,
		),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}
