package source

import (
	"context"
	"fmt"
)

// Pattern: Strategy -- swap source control host without
// changing traversal or extraction logic.

// Provider reads groups, projects, and repository files
// from a source control host.
type Provider interface {
	// Ping verifies connectivity and credentials.
	// A failing Ping aborts the whole run.
	Ping(ctx context.Context) error

	// ListSubgroups returns the direct subgroups of
	// the given group, following pagination until
	// exhausted.
	ListSubgroups(
		ctx context.Context,
		groupID string,
	) ([]Group, error)

	// ListProjects returns the direct projects of the
	// given group, following pagination until
	// exhausted.
	ListProjects(
		ctx context.Context,
		groupID string,
	) ([]Project, error)

	// ListTree returns the full recursive repository
	// tree of a project at ref (empty ref means the
	// default branch).
	ListTree(
		ctx context.Context,
		projectID string,
		ref string,
	) ([]TreeEntry, error)

	// FileContent returns the raw content of a file
	// at ref (empty ref means the default branch).
	FileContent(
		ctx context.Context,
		projectID string,
		filePath string,
		ref string,
	) ([]byte, error)
}

// Group is a hierarchical container of projects and
// nested subgroups.
type Group struct {
	// ID identifies the group for follow-up listing
	// calls.
	ID string
	// FullPath is the slash-delimited path including
	// all parent groups.
	FullPath string
	// Name is the display name.
	Name string
}

// Project is a single repository within a group.
// Discovered once per run; immutable afterwards.
type Project struct {
	// ID identifies the project for tree and file
	// calls.
	ID string
	// Path is the slash-delimited full path including
	// the subgroup path.
	Path string
	// Name is the display name.
	Name string
	// DefaultBranch is the ref used when no explicit
	// ref is configured.
	DefaultBranch string
}

// TreeEntry is one entry of a recursive repository
// tree listing.
type TreeEntry struct {
	// Path is the file path within the repository.
	Path string
	// Blob reports whether the entry is a file (as
	// opposed to a directory).
	Blob bool
}

// Error is a typed source control failure carrying the
// requested resource and the HTTP status. Status is 0
// when the request never produced a response.
type Error struct {
	// Resource names what was requested (e.g.
	// "group org/infra projects").
	Resource string
	// Status is the HTTP status code, 0 if unknown.
	Status int
	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf(
			"source: %s: status %d: %v",
			e.Resource, e.Status, e.Err,
		)
	}

	return fmt.Sprintf(
		"source: %s: %v", e.Resource, e.Err,
	)
}

// Unwrap returns the underlying client error.
func (e *Error) Unwrap() error {
	return e.Err
}
