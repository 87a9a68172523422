package collector

import (
	"context"
	"path"

	"github.com/byte4ever/service_catalog/source"
)

// Infrastructure files that never describe deployable
// services. Matching is an exact, case-sensitive base
// name comparison: "docker-compose.yaml" is a
// different name and is NOT excluded.
var excludedNames = map[string]struct{}{
	".gitlab-ci.yml":     {},
	"docker-compose.yml": {},
}

// locateFiles lists the recursive repository tree of a
// project and selects YAML candidates in tree-listing
// order. A project whose tree cannot be listed (empty
// or inaccessible repository) yields an empty slice
// and a recorded skip, not a fatal error.
func locateFiles(
	ctx context.Context,
	provider source.Provider,
	project source.Project,
	ref string,
	rep *Report,
) []source.TreeEntry {
	tree, err := provider.ListTree(
		ctx, project.ID, ref,
	)
	if err != nil {
		rep.recordSkip(SkipProject, project.Path, err)

		return nil
	}

	var out []source.TreeEntry

	for _, entry := range tree {
		if !entry.Blob {
			continue
		}

		if !candidateName(path.Base(entry.Path)) {
			continue
		}

		out = append(out, entry)
	}

	return out
}

// candidateName reports whether a base name is a YAML
// candidate: .yml/.yaml extension and not in the
// exclusion set.
func candidateName(name string) bool {
	ext := path.Ext(name)
	if ext != ".yml" && ext != ".yaml" {
		return false
	}

	_, excluded := excludedNames[name]

	return !excluded
}
