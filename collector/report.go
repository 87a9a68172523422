package collector

import (
	"log/slog"
	"sync"
)

// SkipKind classifies what a recorded skip refers to.
type SkipKind string

// Skip kinds.
const (
	SkipGroup   SkipKind = "group"
	SkipProject SkipKind = "project"
	SkipFile    SkipKind = "file"
)

// Skip is one recorded failure: a branch, project, or
// file that was left out of the catalog, with the
// reason.
type Skip struct {
	Kind     SkipKind
	Resource string
	Reason   string
}

// Report accumulates run-wide statistics and the skip
// summary. It is threaded explicitly through the run
// (no global state) and safe for concurrent recording.
// Read it only after the run has finished.
type Report struct {
	mu sync.Mutex

	// TotalProjects is the number of projects
	// discovered by traversal.
	TotalProjects int
	// ProjectsWithServices counts projects that
	// contributed at least one catalog entry.
	ProjectsWithServices int
	// FilesScanned counts candidate files that were
	// fetched and parsed.
	FilesScanned int
	// ServicesFound counts extracted entries before
	// catalog deduplication.
	ServicesFound int
	// Cancelled reports that the run was interrupted
	// and the catalog is partial.
	Cancelled bool
	// TruncatedAt is the project cap that stopped
	// traversal early, 0 if traversal completed.
	TruncatedAt int

	// Skips lists every skipped group branch,
	// project, and file with its failure reason.
	Skips []Skip
}

// NewReport returns an empty Report.
func NewReport() *Report {
	return &Report{}
}

func (r *Report) recordSkip(
	kind SkipKind,
	resource string,
	err error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Skips = append(r.Skips, Skip{
		Kind:     kind,
		Resource: resource,
		Reason:   err.Error(),
	})
}

func (r *Report) recordFile(services int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FilesScanned++
	r.ServicesFound += services
}

// SkipCount returns the number of recorded skips of
// the given kind.
func (r *Report) SkipCount(kind SkipKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, s := range r.Skips {
		if s.Kind == kind {
			n++
		}
	}

	return n
}

// Stats returns the counters as a map for export
// metadata.
func (r *Report) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]int{
		"total_projects":         r.TotalProjects,
		"projects_with_services": r.ProjectsWithServices,
		"files_scanned":          r.FilesScanned,
		"services_found":         r.ServicesFound,
		"skipped":                len(r.Skips),
	}
}

// Log writes the run summary and every recorded skip
// through slog, so failures are reported alongside the
// export and never silently dropped.
func (r *Report) Log() {
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Info(
		"run summary",
		"total_projects", r.TotalProjects,
		"projects_with_services", r.ProjectsWithServices,
		"files_scanned", r.FilesScanned,
		"services_found", r.ServicesFound,
		"skipped", len(r.Skips),
		"cancelled", r.Cancelled,
	)

	if r.TruncatedAt > 0 {
		slog.Warn(
			"project limit reached, traversal "+
				"truncated",
			"limit", r.TruncatedAt,
		)
	}

	for _, s := range r.Skips {
		slog.Warn(
			"skipped",
			"kind", string(s.Kind),
			"resource", s.Resource,
			"reason", s.Reason,
		)
	}
}
