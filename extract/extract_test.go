package extract_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/service_catalog/extract"
)

func TestServices_compose_style(t *testing.T) {
	t.Parallel()

	content := `services:
  auth-service:
    image: "registry/auth:v2.1.0"
  payment-api:
    image: repo/payment:1.4.2
`

	entries, err := extract.Services(
		"deploy/svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "auth-service", entries[0].Name)
	assert.Equal(t, "v2.1.0", entries[0].Tag)
	assert.Equal(t, "deploy/svc.yml", entries[0].Source)

	assert.Equal(t, "payment-api", entries[1].Name)
	assert.Equal(t, "1.4.2", entries[1].Tag)
}

func TestServices_missing_tag_is_latest(t *testing.T) {
	t.Parallel()

	content := `worker:
  image: "registry/image-processor"
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "worker", entries[0].Name)
	assert.Equal(t, "latest", entries[0].Tag)
}

func TestServices_bare_pairs_ignored(t *testing.T) {
	t.Parallel()

	// A scalar value is not a service block even if it
	// looks like an image reference.
	content := `app: registry/app:v1
other: just-a-string
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServices_block_without_image_skipped(
	t *testing.T,
) {
	t.Parallel()

	content := `app:
  replicas: 3
  command: run
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServices_nested_blocks(t *testing.T) {
	t.Parallel()

	content := `stages:
  production:
    frontend:
      image: registry/frontend:2.0
    backend:
      image: registry/backend:3.1
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "frontend", entries[0].Name)
	assert.Equal(t, "2.0", entries[0].Tag)
	assert.Equal(t, "backend", entries[1].Name)
	assert.Equal(t, "3.1", entries[1].Tag)
}

func TestServices_sequence_items_use_name_field(
	t *testing.T,
) {
	t.Parallel()

	content := `deployables:
  - name: api
    image: registry/api:v5
  - container_name: cache
    image: registry/redis:7
  - image: registry/anonymous:v1
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "api", entries[0].Name)
	assert.Equal(t, "v5", entries[0].Tag)
	assert.Equal(t, "cache", entries[1].Name)
	assert.Equal(t, "7", entries[1].Tag)
}

func TestServices_skip_keys_not_descended(
	t *testing.T,
) {
	t.Parallel()

	content := `environment:
  nested:
    image: registry/should-not-appear:v1
build:
  ctx:
    image: registry/also-not:v1
app:
  image: registry/app:v1
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "app", entries[0].Name)
}

func TestServices_duplicate_last_wins(t *testing.T) {
	t.Parallel()

	content := `app:
  image: registry/app:v1
other:
  image: registry/other:v2
app:
  image: registry/app:v3
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 2)

	// First-seen position, last-seen tag.
	assert.Equal(t, "app", entries[0].Name)
	assert.Equal(t, "v3", entries[0].Tag)
	assert.Equal(t, "other", entries[1].Name)
}

func TestServices_malformed_yaml(t *testing.T) {
	t.Parallel()

	content := "app:\n  image: [unclosed\n"

	entries, err := extract.Services(
		"bad.yml", []byte(content),
	)

	assert.Empty(t, entries)
	require.Error(t, err)

	var parseErr *extract.ParseError

	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "bad.yml", parseErr.Path)
}

func TestServices_empty_content(t *testing.T) {
	t.Parallel()

	entries, err := extract.Services(
		"empty.yml", nil,
	)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServices_multi_document(t *testing.T) {
	t.Parallel()

	content := `app:
  image: registry/app:v1
---
worker:
  image: registry/worker:v2
`

	entries, err := extract.Services(
		"svc.yml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "app", entries[0].Name)
	assert.Equal(t, "worker", entries[1].Name)
}

func TestServices_kubernetes_deployment(t *testing.T) {
	t.Parallel()

	content := `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      initContainers:
        - name: migrate
          image: registry/migrate:v1.2
      containers:
        - name: web
          image: registry/web:v3.4
        - name: sidecar
          image: registry/sidecar
`

	entries, err := extract.Services(
		"k8s/web.yaml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "migrate", entries[0].Name)
	assert.Equal(t, "v1.2", entries[0].Tag)
	assert.Equal(t, "web", entries[1].Name)
	assert.Equal(t, "v3.4", entries[1].Tag)
	assert.Equal(t, "sidecar", entries[2].Name)
	assert.Equal(t, "latest", entries[2].Tag)
}

func TestServices_kubernetes_cronjob(t *testing.T) {
	t.Parallel()

	content := `apiVersion: batch/v1
kind: CronJob
metadata:
  name: nightly
spec:
  schedule: "0 2 * * *"
  jobTemplate:
    spec:
      template:
        spec:
          restartPolicy: Never
          containers:
            - name: cleanup
              image: registry/cleanup:9.1
`

	entries, err := extract.Services(
		"k8s/cron.yaml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cleanup", entries[0].Name)
	assert.Equal(t, "9.1", entries[0].Tag)
}

func TestServices_unknown_kind_falls_back(
	t *testing.T,
) {
	t.Parallel()

	// A CRD unknown to the scheme still goes through
	// the generic walk.
	content := `apiVersion: argoproj.io/v1alpha1
kind: Workflow
metadata:
  name: wf
spec:
  runner:
    image: registry/runner:v7
`

	entries, err := extract.Services(
		"k8s/wf.yaml", []byte(content),
	)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "runner", entries[0].Name)
	assert.Equal(t, "v7", entries[0].Tag)
}

func TestServices_idempotent(t *testing.T) {
	t.Parallel()

	content := `services:
  a:
    image: r/a:1
  b:
    image: r/b
---
apiVersion: v1
kind: Pod
metadata:
  name: p
spec:
  containers:
    - name: c
      image: r/c:3
`

	first, err := extract.Services(
		"svc.yml", []byte(content),
	)
	require.NoError(t, err)

	second, err := extract.Services(
		"svc.yml", []byte(content),
	)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestServices_scalar_document(t *testing.T) {
	t.Parallel()

	entries, err := extract.Services(
		"odd.yml", []byte("just a string\n"),
	)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		image string
		want  string
	}{
		{"plain tag", "registry/auth:v2.1.0", "v2.1.0"},
		{"no tag", "registry/image-processor", "latest"},
		{"registry port no tag", "registry:5000/app", "latest"},
		{"registry port with tag", "registry:5000/app:v2", "v2"},
		{"variable", "repo/app:${APP_TAG}", "APP_TAG"},
		{"double variable", "repo/app:${{ref}}", "ref"},
		{"trailing colon", "repo/app:", "latest"},
		{"whitespace", "  repo/app:v1  ", "v1"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t, tc.want, extract.Tag(tc.image),
			)
		})
	}
}

func TestParseError_unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &extract.ParseError{
		Path: "x.yml",
		Err:  inner,
	}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "x.yml")
}
