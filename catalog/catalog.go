// Package catalog aggregates extraction results into a
// stable, ordered project → grouping → service tree.
//
// Projects and groupings keep the order they were first
// seen in; a service re-inserted under the same
// grouping keeps its position but takes the new tag
// (last write wins). The tree is built by a Builder and
// treated as immutable once the run completes.
package catalog

import (
	"bytes"
	"path"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/service_catalog/extract"
)

// Service is one leaf of the catalog: a service name
// mapped to an image tag, with the source file kept
// for traceability.
type Service struct {
	Name   string
	Tag    string
	Source string
}

// Grouping is an ordered set of services that share a
// logical grouping key derived from the source file
// path.
type Grouping struct {
	// Name is the containing directory of the source
	// file, "root" for files at the repository root.
	Name     string
	Services []Service
}

// Project is the ordered set of groupings extracted
// from one repository.
type Project struct {
	// Path is the slash-delimited project path
	// including the subgroup path.
	Path      string
	Groupings []*Grouping
}

// Catalog is the aggregated tree for a whole group
// traversal, in project-discovery order. Exporters
// walk it read-only.
type Catalog struct {
	Projects []*Project
}

// Builder folds per-project entry streams into a
// Catalog. It is fed sequentially in discovery order
// and is not safe for concurrent use.
type Builder struct {
	cat      *Catalog
	projects map[string]*Project
	groups   map[*Project]map[string]*Grouping
	services map[*Grouping]map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		cat:      &Catalog{},
		projects: make(map[string]*Project),
		groups:   make(map[*Project]map[string]*Grouping),
		services: make(map[*Grouping]map[string]int),
	}
}

// Add inserts one project's entries, in extraction
// order, under projectPath. Entries from different
// projects never merge: collisions on service name are
// preserved separately under each project.
func (b *Builder) Add(
	projectPath string,
	entries []extract.Entry,
) {
	if len(entries) == 0 {
		return
	}

	proj := b.project(projectPath)

	for _, e := range entries {
		grp := b.grouping(proj, groupingOf(e.Source))

		idx := b.services[grp]
		if pos, ok := idx[e.Name]; ok {
			// Last file wins, position stays.
			grp.Services[pos].Tag = e.Tag
			grp.Services[pos].Source = e.Source

			continue
		}

		idx[e.Name] = len(grp.Services)
		grp.Services = append(grp.Services, Service{
			Name:   e.Name,
			Tag:    e.Tag,
			Source: e.Source,
		})
	}
}

// Catalog returns the built tree. The Builder must not
// be used afterwards.
func (b *Builder) Catalog() *Catalog {
	return b.cat
}

func (b *Builder) project(path string) *Project {
	if p, ok := b.projects[path]; ok {
		return p
	}

	p := &Project{Path: path}
	b.projects[path] = p
	b.groups[p] = make(map[string]*Grouping)
	b.cat.Projects = append(b.cat.Projects, p)

	return p
}

func (b *Builder) grouping(
	proj *Project,
	name string,
) *Grouping {
	if g, ok := b.groups[proj][name]; ok {
		return g
	}

	g := &Grouping{Name: name}
	b.groups[proj][name] = g
	b.services[g] = make(map[string]int)
	proj.Groupings = append(proj.Groupings, g)

	return g
}

// groupingOf derives the grouping key from a source
// file path: its containing directory, or "root" for
// files at the repository root.
func groupingOf(source string) string {
	dir := path.Dir(source)
	if dir == "." || dir == "/" || dir == "" {
		return "root"
	}

	return dir
}

// MarshalJSON renders the catalog as nested objects in
// insertion order. Go maps cannot guarantee order, so
// the objects are written by hand with json-escaped
// keys.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, p := range c.Projects {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeKey(&buf, p.Path); err != nil {
			return nil, err
		}

		buf.WriteByte('{')

		for j, g := range p.Groupings {
			if j > 0 {
				buf.WriteByte(',')
			}

			if err := writeKey(
				&buf, g.Name,
			); err != nil {
				return nil, err
			}

			buf.WriteByte('{')

			for k, s := range g.Services {
				if k > 0 {
					buf.WriteByte(',')
				}

				if err := writeKey(
					&buf, s.Name,
				); err != nil {
					return nil, err
				}

				val, err := json.Marshal(s.Tag)
				if err != nil {
					return nil, err
				}

				buf.Write(val)
			}

			buf.WriteByte('}')
		}

		buf.WriteByte('}')
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// writeKey writes a json-escaped object key followed
// by the separating colon.
func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}

	buf.Write(b)
	buf.WriteByte(':')

	return nil
}
