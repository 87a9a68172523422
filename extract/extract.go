package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Entry is one extracted service: a name, the image tag
// it runs, and the repository file it came from.
type Entry struct {
	// Name is the service name, unique within its
	// grouping context.
	Name string
	// Tag is the image tag ("latest" when the image
	// reference carries none).
	Tag string
	// Source is the repository file path the entry
	// was extracted from.
	Source string
}

// ParseError reports file content that is not valid
// YAML. The owning file yields zero entries; sibling
// files are unaffected.
type ParseError struct {
	// Path is the repository file path.
	Path string
	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf(
		"parsing %s: %v", e.Path, e.Err,
	)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Keys whose subtrees never define services. Descending
// into them only produces noise (compose build args,
// port lists, volume mounts).
var skipKeys = map[string]struct{}{
	"image":       {},
	"build":       {},
	"networks":    {},
	"volumes":     {},
	"ports":       {},
	"environment": {},
}

// Candidate name fields for anonymous sequence items,
// checked in order.
var nameKeys = []string{
	"name",
	"container_name",
	"service",
}

// Services parses content as multi-document YAML and
// extracts all service entries in parsed-key order.
// Content that fails to decode yields zero entries and
// a *ParseError. Duplicate service names within one
// file keep their first-seen position; the last
// occurrence wins the tag.
func Services(
	path string,
	content []byte,
) ([]Entry, error) {
	decoder := yaml.NewDecoder(
		bytes.NewReader(content),
		yaml.UseOrderedMap(),
	)

	col := &collection{
		source: path,
		index:  make(map[string]int),
	}

	for {
		var doc any

		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, &ParseError{
				Path: path,
				Err:  err,
			}
		}

		ms, ok := doc.(yaml.MapSlice)
		if !ok {
			continue
		}

		// Typed decode first for Kubernetes
		// manifests; unknown kinds fall through to
		// the generic walk.
		if isManifest(ms) && manifestServices(ms, col) {
			continue
		}

		walk(ms, col)
	}

	return col.entries, nil
}

// Tag extracts the image tag from a docker image
// reference by splitting on the last colon. References
// without a tag yield "latest". A colon followed by a
// segment containing "/" belongs to a registry port
// (registry:5000/app), not a tag. Variable wrappers
// like ${TAG} or ${{TAG}} are unwrapped to the
// variable name.
func Tag(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}

	idx := strings.LastIndex(image, ":")
	if idx < 0 {
		return "latest"
	}

	tag := image[idx+1:]
	if tag == "" || strings.Contains(tag, "/") {
		return "latest"
	}

	return unwrapVariable(tag)
}

// unwrapVariable strips ${...} and ${{...}} wrappers.
func unwrapVariable(tag string) string {
	if strings.HasPrefix(tag, "${{") &&
		strings.HasSuffix(tag, "}}") {
		return tag[3 : len(tag)-2]
	}

	if strings.HasPrefix(tag, "${") &&
		strings.HasSuffix(tag, "}") {
		return tag[2 : len(tag)-1]
	}

	return tag
}

// collection accumulates entries for one file,
// deduplicating by name: the last occurrence wins the
// tag, the first occurrence keeps the position.
type collection struct {
	source  string
	entries []Entry
	index   map[string]int
}

func (c *collection) add(name, image string) {
	tag := Tag(image)

	if pos, ok := c.index[name]; ok {
		c.entries[pos].Tag = tag

		return
	}

	c.index[name] = len(c.entries)
	c.entries = append(c.entries, Entry{
		Name:   name,
		Tag:    tag,
		Source: c.source,
	})
}

// walk recurses through an ordered mapping collecting
// service blocks. A key whose value is a mapping with
// an "image" key names a service; bare
// "key: image-ref" scalar pairs are not services and
// are ignored.
func walk(ms yaml.MapSlice, col *collection) {
	for _, item := range ms {
		key, _ := item.Key.(string)

		if _, skip := skipKeys[key]; skip {
			continue
		}

		switch val := item.Value.(type) {
		case yaml.MapSlice:
			if img, ok := stringValue(val, "image"); ok &&
				key != "" {
				col.add(key, img)
			}

			walk(val, col)

		case []any:
			walkSequence(val, col)
		}
	}
}

// walkSequence handles sequence items. Anonymous items
// carrying an "image" key are named by their
// name/container_name/service field when present.
func walkSequence(seq []any, col *collection) {
	for _, el := range seq {
		item, ok := el.(yaml.MapSlice)
		if !ok {
			continue
		}

		if img, found := stringValue(
			item, "image",
		); found {
			if name := itemName(item); name != "" {
				col.add(name, img)
			}
		}

		walk(item, col)
	}
}

// itemName returns the first present name field of a
// sequence item, empty if none.
func itemName(ms yaml.MapSlice) string {
	for _, key := range nameKeys {
		if name, ok := stringValue(ms, key); ok {
			return name
		}
	}

	return ""
}

// stringValue looks up a string-valued key in an
// ordered mapping.
func stringValue(
	ms yaml.MapSlice,
	key string,
) (string, bool) {
	for _, item := range ms {
		if k, _ := item.Key.(string); k == key {
			val, ok := item.Value.(string)

			return val, ok
		}
	}

	return "", false
}
