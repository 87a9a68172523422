// Package github implements the source.Provider contract
// on top of the GitHub REST API. A GitHub organisation
// maps to a group; organisations are flat, so subgroup
// listings are always empty.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/byte4ever/service_catalog/source"
)

const perPage = 100

// Config holds the settings needed to create a GitHub
// source client.
type Config struct {
	// AccessToken is a personal access token used for
	// authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// MaxRetries is the number of retries applied to
	// transient (429/5xx) responses.
	MaxRetries int
	// Timeout bounds a single HTTP request. Zero
	// means no client-side timeout.
	Timeout time.Duration
}

// Client reads organisations, repositories, and
// repository files from GitHub.
//
// Pattern: Strategy -- implements source.Provider.
type Client struct {
	gh *gh.Client
}

// New validates cfg and returns a Client. go-github has
// no built-in retry, so the transport is wrapped with
// retryablehttp: transient 429/5xx responses are
// retried with exponential backoff, other 4xx
// responses fail immediately.
func New(cfg Config) (*Client, error) {
	const errCtx = "creating github source client"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = time.Second
	rc.RetryWaitMax = 30 * time.Second

	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	client := gh.NewClient(rc.StandardClient()).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Client{gh: client}, nil
}

// Ping verifies connectivity via the zen endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, resp, err := c.gh.Meta.Zen(ctx)
	if err != nil {
		return srcErr("zen", resp, err)
	}

	return nil
}

// ListSubgroups always returns an empty listing:
// GitHub organisations have no nested subgroups.
func (c *Client) ListSubgroups(
	_ context.Context,
	_ string,
) ([]source.Group, error) {
	return nil, nil
}

// ListProjects returns all repositories of the
// organisation, following pagination until exhausted.
// The project ID is the "owner/repo" full name.
func (c *Client) ListProjects(
	ctx context.Context,
	groupID string,
) ([]source.Project, error) {
	opt := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var out []source.Project

	for {
		repos, resp, err := c.gh.Repositories.ListByOrg(
			ctx, groupID, opt,
		)
		if err != nil {
			return nil, srcErr(
				"org "+groupID+" repositories",
				resp, err,
			)
		}

		for _, r := range repos {
			out = append(out, source.Project{
				ID:            r.GetFullName(),
				Path:          r.GetFullName(),
				Name:          r.GetName(),
				DefaultBranch: r.GetDefaultBranch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opt.Page = resp.NextPage
	}

	return out, nil
}

// ListTree returns the full recursive repository tree
// of a repository at ref. The git/trees endpoint
// accepts branch names as tree identifiers; an empty
// ref resolves to HEAD.
func (c *Client) ListTree(
	ctx context.Context,
	projectID string,
	ref string,
) ([]source.TreeEntry, error) {
	owner, repo, err := splitFullName(projectID)
	if err != nil {
		return nil, err
	}

	if ref == "" {
		ref = "HEAD"
	}

	tree, resp, err := c.gh.Git.GetTree(
		ctx, owner, repo, ref, true,
	)
	if err != nil {
		return nil, srcErr(
			"repository "+projectID+" tree",
			resp, err,
		)
	}

	out := make([]source.TreeEntry, 0, len(tree.Entries))

	for _, e := range tree.Entries {
		out = append(out, source.TreeEntry{
			Path: e.GetPath(),
			Blob: e.GetType() == "blob",
		})
	}

	return out, nil
}

// FileContent returns the decoded content of a file at
// ref using the contents endpoint.
func (c *Client) FileContent(
	ctx context.Context,
	projectID string,
	filePath string,
	ref string,
) ([]byte, error) {
	owner, repo, err := splitFullName(projectID)
	if err != nil {
		return nil, err
	}

	opt := &gh.RepositoryContentGetOptions{Ref: ref}

	file, _, resp, err := c.gh.Repositories.GetContents(
		ctx, owner, repo, filePath, opt,
	)
	if err != nil {
		return nil, srcErr(
			"repository "+projectID+
				" file "+filePath,
			resp, err,
		)
	}

	if file == nil {
		return nil, &source.Error{
			Resource: "repository " + projectID +
				" file " + filePath,
			Err: fmt.Errorf("path is a directory"),
		}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &source.Error{
			Resource: "repository " + projectID +
				" file " + filePath,
			Err: fmt.Errorf("decode content: %w", err),
		}
	}

	return []byte(content), nil
}

// splitFullName splits an "owner/repo" project ID.
func splitFullName(id string) (string, string, error) {
	owner, repo, ok := strings.Cut(id, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", &source.Error{
			Resource: "repository " + id,
			Err: fmt.Errorf(
				"project id must be owner/repo",
			),
		}
	}

	return owner, repo, nil
}

// srcErr wraps a client error into a typed
// *source.Error with the HTTP status when available.
func srcErr(
	resource string,
	resp *gh.Response,
	err error,
) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	return &source.Error{
		Resource: resource,
		Status:   status,
		Err:      err,
	}
}
