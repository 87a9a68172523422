// Package source defines the read-only contract against a source
// control host and the data model shared by its implementations.
//
// A Provider enumerates subgroups and projects of a group, lists a
// project's repository tree, and fetches raw file contents. Each
// listing call resolves the full logical result by following
// pagination internally. Implementations exist for GitLab and
// GitHub in sub-packages. ProviderFunc-style adapters are not
// needed; tests use a plain struct fake.
//
// Transport and HTTP failures are surfaced as *Error carrying the
// requested resource and the HTTP status, never as raw transport
// errors.
package source
