// Package extract parses YAML file content and extracts
// (service name, image tag) pairs using structural
// heuristics tolerant of inconsistent layouts.
//
// A mapping value containing an "image" key is a service
// block; its parent key is the service name. Sequence
// items with an "image" key take their name from a
// name/container_name/service sibling field. Documents
// carrying apiVersion and kind are first decoded as
// typed Kubernetes objects so workload pod specs yield
// one entry per container; unrecognised kinds fall back
// to the generic walk.
//
// Extraction is a pure function of file content: the
// same bytes always yield the same entries in the same
// order.
package extract
