package collector

import (
	"context"
	"fmt"

	"github.com/byte4ever/service_catalog/source"
)

// TraversalError reports a group whose children could
// not be listed. The branch is skipped; sibling
// branches continue.
type TraversalError struct {
	// Group is the group whose listing failed.
	Group string
	// Err is the underlying source error.
	Err error
}

// Error implements the error interface.
func (e *TraversalError) Error() string {
	return fmt.Sprintf(
		"traversing group %s: %v", e.Group, e.Err,
	)
}

// Unwrap returns the underlying source error.
func (e *TraversalError) Unwrap() error {
	return e.Err
}

// Traverse walks the group hierarchy breadth-first
// starting at root and returns every reachable project
// exactly once, in discovery order: a group's own
// projects come before any project of its subgroups,
// and sibling groups are visited in listing order.
// Duplicate projects and groups are guarded by
// identifier sets. A failure listing one group's
// projects or subgroups is recorded as a skip; the
// rest of the traversal continues. maxProjects > 0
// caps the number of discovered projects.
func Traverse(
	ctx context.Context,
	provider source.Provider,
	root string,
	maxProjects int,
	rep *Report,
) []source.Project {
	seenGroups := map[string]struct{}{root: {}}
	seenProjects := make(map[string]struct{})

	queue := []string{root}

	var out []source.Project

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}

		groupID := queue[0]
		queue = queue[1:]

		projects, err := provider.ListProjects(
			ctx, groupID,
		)
		if err != nil {
			rep.recordSkip(
				SkipGroup, groupID,
				&TraversalError{
					Group: groupID,
					Err:   err,
				},
			)
		}

		for _, p := range projects {
			if _, dup := seenProjects[p.ID]; dup {
				continue
			}

			seenProjects[p.ID] = struct{}{}
			out = append(out, p)

			if maxProjects > 0 &&
				len(out) >= maxProjects {
				rep.TruncatedAt = maxProjects

				return out
			}
		}

		subgroups, err := provider.ListSubgroups(
			ctx, groupID,
		)
		if err != nil {
			rep.recordSkip(
				SkipGroup, groupID,
				&TraversalError{
					Group: groupID,
					Err:   err,
				},
			)

			continue
		}

		for _, sg := range subgroups {
			if _, dup := seenGroups[sg.ID]; dup {
				continue
			}

			seenGroups[sg.ID] = struct{}{}
			queue = append(queue, sg.ID)
		}
	}

	return out
}
