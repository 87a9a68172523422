// Command collect_services inventories container image
// references across every repository of a source
// control group and exports the resulting service
// catalog as JSON, indented text, and CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/byte4ever/service_catalog/collector"
	"github.com/byte4ever/service_catalog/config"
	"github.com/byte4ever/service_catalog/export"
	"github.com/byte4ever/service_catalog/source"
	"github.com/byte4ever/service_catalog/source/github"
	"github.com/byte4ever/service_catalog/source/gitlab"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running collect_services"

	// Registered so flag.Parse accepts it; the value
	// is consumed early by preloadConfig.
	flag.String(
		"config", "",
		"Path to a JSON config file "+
			"(default: config.json if present)",
	)

	// Load -config first so the remaining flags can
	// default to the loaded values.
	cfg, err := preloadConfig(os.Args[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Source flags.
	sourceKind := flag.String(
		"source", cfg.Source,
		"Source control backend: gitlab or github",
	)
	gitlabURL := flag.String(
		"gitlab_url", cfg.GitLabURL,
		"GitLab instance base URL",
	)
	gitlabToken := flag.String(
		"gitlab_token", cfg.GitLabToken,
		"GitLab access token",
	)
	githubToken := flag.String(
		"github_token", cfg.GitHubToken,
		"GitHub access token",
	)
	githubHost := flag.String(
		"github_host", cfg.GitHubHost,
		"GitHub Enterprise hostname (empty for "+
			"github.com)",
	)

	// Traversal flags.
	group := flag.String(
		"group", cfg.GroupPath,
		"Root group path or organisation name",
	)
	ref := flag.String(
		"ref", cfg.Ref,
		"Ref to read files at (empty: default "+
			"branch per project)",
	)
	maxProjects := flag.Int(
		"max_projects", cfg.MaxProjects,
		"Cap on discovered projects (0: no cap)",
	)
	concurrency := flag.Int(
		"concurrency", cfg.Concurrency,
		"Number of concurrent project workers",
	)

	// Client flags.
	maxRetries := flag.Int(
		"max_retries", cfg.MaxRetries,
		"Retries on transient (429/5xx) responses",
	)
	timeout := flag.Int(
		"timeout", cfg.TimeoutSeconds,
		"Per-request timeout in seconds",
	)

	// Output flags.
	outputDir := flag.String(
		"output_dir", cfg.OutputDir,
		"Directory for exported files",
	)
	format := flag.String(
		"format", string(export.FormatAll),
		"Export format: all, json, text, or csv",
	)
	namePattern := flag.String(
		"name_pattern", export.DefaultNamePattern,
		"Output file name pattern "+
			"({format}, {timestamp}, {group})",
	)

	flag.Parse()

	exportFormat, err := export.ParseFormat(*format)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *group == "" {
		return fmt.Errorf(
			"%s: group must be set", errCtx,
		)
	}

	provider, err := newSourceProvider(sourceFlags{
		kind:        *sourceKind,
		gitlabURL:   *gitlabURL,
		gitlabToken: *gitlabToken,
		githubToken: *githubToken,
		githubHost:  *githubHost,
		maxRetries:  *maxRetries,
		timeout: time.Duration(*timeout) *
			time.Second,
	})
	if err != nil {
		return fmt.Errorf(
			"%s: create provider: %w", errCtx, err,
		)
	}

	// Interrupt abandons in-flight work; the partial
	// catalog is still exported below.
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cat, rep, err := collector.Run(
		ctx, collector.Config{
			Provider:    provider,
			RootGroup:   *group,
			Ref:         *ref,
			Concurrency: *concurrency,
			MaxProjects: *maxProjects,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	rep.Log()

	if len(cat.Projects) == 0 {
		slog.Warn("no services collected")

		return nil
	}

	meta := export.Metadata{
		CollectedAt: time.Now().Format(
			"2006-01-02 15:04:05",
		),
		Group:      *group,
		Statistics: rep.Stats(),
	}

	if _, err := export.Save(
		*outputDir,
		*namePattern,
		exportFormat,
		cat,
		meta,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// preloadConfig scans args for -config before the full
// flag set is parsed, then loads the layered config.
func preloadConfig(args []string) (config.Config, error) {
	path := ""

	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				path = args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			path = strings.TrimPrefix(
				arg, "-config=",
			)
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(
				arg, "--config=",
			)
		}
	}

	return config.Load(path)
}

// sourceFlags bundles provider settings to keep
// newSourceProvider's signature small.
type sourceFlags struct {
	kind        string
	gitlabURL   string
	gitlabToken string
	githubToken string
	githubHost  string
	maxRetries  int
	timeout     time.Duration
}

// newSourceProvider creates a source.Provider based on
// the backend name. Pattern: Factory -- selects the
// platform implementation at runtime.
func newSourceProvider(
	sf sourceFlags,
) (source.Provider, error) {
	const errCtx = "creating source provider"

	switch sf.kind {
	case "gitlab":
		c, err := gitlab.New(gitlab.Config{
			Host:        sf.gitlabURL,
			AccessToken: sf.gitlabToken,
			MaxRetries:  sf.maxRetries,
			Timeout:     sf.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return c, nil

	case "github":
		c, err := github.New(github.Config{
			AccessToken:    sf.githubToken,
			EnterpriseHost: sf.githubHost,
			MaxRetries:     sf.maxRetries,
			Timeout:        sf.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return c, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown backend %q",
			errCtx, sf.kind,
		)
	}
}
