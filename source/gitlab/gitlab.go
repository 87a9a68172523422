// Package gitlab implements the source.Provider contract
// on top of the GitLab REST API.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/service_catalog/source"
)

const perPage = 100

// Config holds the settings needed to create a GitLab
// source client.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// AccessToken is a personal or group access token
	// used for authentication.
	AccessToken string
	// MaxRetries is the number of retries applied to
	// transient (429/5xx) responses. Zero means the
	// client default.
	MaxRetries int
	// Timeout bounds a single HTTP request. Zero
	// means no client-side timeout.
	Timeout time.Duration
}

// Client reads groups, projects, and repository files
// from GitLab.
//
// Pattern: Strategy -- implements source.Provider.
type Client struct {
	gl *gl.Client
}

// New validates cfg and returns a Client ready to
// issue authenticated, paginated requests. Transient
// 429/5xx responses are retried with exponential
// backoff by the underlying client; other 4xx
// responses fail immediately.
func New(cfg Config) (*Client, error) {
	const errCtx = "creating gitlab source client"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	opts := []gl.ClientOptionFunc{
		gl.WithBaseURL(host),
	}

	if cfg.MaxRetries > 0 {
		opts = append(opts,
			gl.WithCustomRetryMax(cfg.MaxRetries),
			gl.WithCustomRetryWaitMinMax(
				time.Second, 30*time.Second,
			),
		)
	}

	if cfg.Timeout > 0 {
		opts = append(opts, gl.WithHTTPClient(
			&http.Client{Timeout: cfg.Timeout},
		))
	}

	client, err := gl.NewClient(
		cfg.AccessToken, opts...,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Client{gl: client}, nil
}

// Ping verifies connectivity by requesting the server
// version.
func (c *Client) Ping(ctx context.Context) error {
	_, resp, err := c.gl.Version.GetVersion(
		gl.WithContext(ctx),
	)
	if err != nil {
		return srcErr("server version", resp, err)
	}

	return nil
}

// ListSubgroups returns the direct subgroups of the
// given group, following pagination until exhausted.
func (c *Client) ListSubgroups(
	ctx context.Context,
	groupID string,
) ([]source.Group, error) {
	opt := &gl.ListSubGroupsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}

	var out []source.Group

	for {
		groups, resp, err := c.gl.Groups.ListSubGroups(
			groupID, opt, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, srcErr(
				"group "+groupID+" subgroups",
				resp, err,
			)
		}

		for _, g := range groups {
			out = append(out, source.Group{
				ID:       strconv.FormatInt(g.ID, 10),
				FullPath: g.FullPath,
				Name:     g.Name,
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opt.Page = resp.NextPage
	}

	return out, nil
}

// ListProjects returns the direct projects of the
// given group, following pagination until exhausted.
// Projects of subgroups are not included; the caller
// recurses via ListSubgroups.
func (c *Client) ListProjects(
	ctx context.Context,
	groupID string,
) ([]source.Project, error) {
	opt := &gl.ListGroupProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	}

	var out []source.Project

	for {
		projects, resp, err := c.gl.Groups.ListGroupProjects(
			groupID, opt, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, srcErr(
				"group "+groupID+" projects",
				resp, err,
			)
		}

		for _, p := range projects {
			out = append(out, source.Project{
				ID:            strconv.FormatInt(p.ID, 10),
				Path:          p.PathWithNamespace,
				Name:          p.Name,
				DefaultBranch: p.DefaultBranch,
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
// of a project, following pagination until exhausted.
func (c *Client) ListTree(
	ctx context.Context,
	projectID string,
	ref string,
) ([]source.TreeEntry, error) {
	opt := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Recursive:   gl.Ptr(true),
	}

	if ref != "" {
		opt.Ref = gl.Ptr(ref)
	}

	var out []source.TreeEntry

	for {
		nodes, resp, err := c.gl.Repositories.ListTree(
			projectID, opt, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, srcErr(
				"project "+projectID+" tree",
				resp, err,
			)
		}

		for _, n := range nodes {
			out = append(out, source.TreeEntry{
				Path: n.Path,
				Blob: n.Type == "blob",
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opt.Page = resp.NextPage
	}

	return out, nil
}

// FileContent returns the raw content of a file at
// ref. An empty ref resolves to the project's default
// branch server-side.
func (c *Client) FileContent(
	ctx context.Context,
	projectID string,
	filePath string,
	ref string,
) ([]byte, error) {
	opt := &gl.GetRawFileOptions{}
	if ref != "" {
		opt.Ref = gl.Ptr(ref)
	}

	content, resp, err := c.gl.RepositoryFiles.GetRawFile(
		projectID, filePath, opt,
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, srcErr(
			"project "+projectID+" file "+filePath,
			resp, err,
		)
	}

	return content, nil
}

// srcErr wraps a client error into a typed
// *source.Error with the HTTP status when available.
func srcErr(
	resource string,
	resp *gl.Response,
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
