package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/byte4ever/service_catalog/catalog"
	"github.com/byte4ever/service_catalog/extract"
	"github.com/byte4ever/service_catalog/source"
)

const defaultConcurrency = 5

// Config holds all settings for one catalog run.
type Config struct {
	// Provider reads groups, projects, and files from
	// the source control host.
	Provider source.Provider

	// RootGroup is the identifier or full path of the
	// group to traverse.
	RootGroup string

	// Ref overrides the ref files are read at. Empty
	// means each project's default branch.
	Ref string

	// Concurrency bounds the number of projects
	// processed in parallel. Zero or negative selects
	// the default of 5.
	Concurrency int

	// MaxProjects caps the number of projects
	// discovered by traversal. Zero means no cap.
	MaxProjects int
}

// Run executes a full catalog run: connectivity check,
// group traversal, per-project file location and
// extraction on a bounded worker pool, and sequential
// aggregation in discovery order. The returned Report
// carries statistics and every recorded skip. A
// cancelled context yields the partial catalog
// collected so far. Only a failing connectivity check
// returns an error.
func Run(
	ctx context.Context,
	cfg Config,
) (*catalog.Catalog, *Report, error) {
	const errCtx = "running catalog collection"

	if cfg.Provider == nil {
		return nil, nil, fmt.Errorf(
			"%s: provider must be set", errCtx,
		)
	}

	if cfg.RootGroup == "" {
		return nil, nil, fmt.Errorf(
			"%s: root group must be set", errCtx,
		)
	}

	rep := NewReport()

	// No partial catalog is meaningful without any
	// connectivity: abort the whole run.
	if err := cfg.Provider.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf(
			"%s: connectivity check: %w",
			errCtx, err,
		)
	}

	projects := Traverse(
		ctx,
		cfg.Provider,
		cfg.RootGroup,
		cfg.MaxProjects,
		rep,
	)

	rep.TotalProjects = len(projects)

	slog.Info(
		"traversal complete",
		"group", cfg.RootGroup,
		"projects", len(projects),
	)

	// Bounded worker pool over independent projects.
	// Results land in a slice indexed by discovery
	// order, so aggregation below is deterministic
	// regardless of worker scheduling.
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	results := make([][]extract.Entry, len(projects))

	var wg sync.WaitGroup

	sem := make(chan struct{}, concurrency)

	for i, p := range projects {
		if ctx.Err() != nil {
			rep.Cancelled = true

			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, proj source.Project) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = processProject(
				ctx, cfg, proj, rep,
			)
		}(i, p)
	}

	wg.Wait()

	if ctx.Err() != nil {
		rep.Cancelled = true
	}

	// The builder is fed sequentially in discovery
	// order; it is not concurrency-safe and does not
	// need to be.
	builder := catalog.NewBuilder()

	for i, p := range projects {
		if len(results[i]) == 0 {
			continue
		}

		builder.Add(p.Path, results[i])

		rep.ProjectsWithServices++
	}

	return builder.Catalog(), rep, nil
}

// processProject locates candidate files of one
// project, fetches and extracts each, and returns the
// entries in file traversal order. Every per-file
// failure is recorded and skipped; the project never
// aborts the run.
func processProject(
	ctx context.Context,
	cfg Config,
	project source.Project,
	rep *Report,
) []extract.Entry {
	ref := cfg.Ref
	if ref == "" {
		ref = project.DefaultBranch
	}

	files := locateFiles(
		ctx, cfg.Provider, project, ref, rep,
	)
	if len(files) == 0 {
		return nil
	}

	slog.Debug(
		"analyzing project",
		"project", project.Path,
		"candidates", len(files),
	)

	var entries []extract.Entry

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		content, err := cfg.Provider.FileContent(
			ctx, project.ID, file.Path, ref,
		)
		if err != nil {
			rep.recordSkip(
				SkipFile,
				project.Path+"/"+file.Path,
				err,
			)

			continue
		}

		found, err := extract.Services(
			file.Path, content,
		)
		if err != nil {
			rep.recordSkip(
				SkipFile,
				project.Path+"/"+file.Path,
				err,
			)

			continue
		}

		rep.recordFile(len(found))

		entries = append(entries, found...)
	}

	return entries
}
