package catalog_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/service_catalog/catalog"
	"github.com/byte4ever/service_catalog/extract"
)

func TestBuilder_grouping_from_directory(t *testing.T) {
	t.Parallel()

	b := catalog.NewBuilder()

	b.Add("org/app", []extract.Entry{
		{Name: "api", Tag: "v1", Source: "svc.yml"},
		{
			Name:   "worker",
			Tag:    "v2",
			Source: "deploy/prod/stack.yml",
		},
	})

	cat := b.Catalog()

	require.Len(t, cat.Projects, 1)
	require.Len(t, cat.Projects[0].Groupings, 2)

	assert.Equal(
		t, "root", cat.Projects[0].Groupings[0].Name,
	)
	assert.Equal(
		t, "deploy/prod",
		cat.Projects[0].Groupings[1].Name,
	)
}

func TestBuilder_insertion_order_preserved(
	t *testing.T,
) {
	t.Parallel()

	b := catalog.NewBuilder()

	b.Add("org/zeta", []extract.Entry{
		{Name: "z", Tag: "1", Source: "a.yml"},
	})
	b.Add("org/alpha", []extract.Entry{
		{Name: "a", Tag: "1", Source: "a.yml"},
	})

	cat := b.Catalog()

	require.Len(t, cat.Projects, 2)
	assert.Equal(t, "org/zeta", cat.Projects[0].Path)
	assert.Equal(t, "org/alpha", cat.Projects[1].Path)
}

func TestBuilder_last_file_wins_keeps_position(
	t *testing.T,
) {
	t.Parallel()

	b := catalog.NewBuilder()

	// Same grouping ("root"), same service name from
	// two files: later file wins the tag, the entry
	// keeps its first-seen position.
	b.Add("org/app", []extract.Entry{
		{Name: "api", Tag: "v1", Source: "a.yml"},
		{Name: "cache", Tag: "7", Source: "a.yml"},
		{Name: "api", Tag: "v2", Source: "b.yml"},
	})

	cat := b.Catalog()

	services := cat.Projects[0].Groupings[0].Services
	require.Len(t, services, 2)

	assert.Equal(t, "api", services[0].Name)
	assert.Equal(t, "v2", services[0].Tag)
	assert.Equal(t, "b.yml", services[0].Source)
	assert.Equal(t, "cache", services[1].Name)
}

func TestBuilder_no_cross_project_merging(
	t *testing.T,
) {
	t.Parallel()

	b := catalog.NewBuilder()

	b.Add("org/one", []extract.Entry{
		{Name: "api", Tag: "v1", Source: "svc.yml"},
	})
	b.Add("org/two", []extract.Entry{
		{Name: "api", Tag: "v9", Source: "svc.yml"},
	})

	cat := b.Catalog()

	require.Len(t, cat.Projects, 2)

	first := cat.Projects[0].Groupings[0].Services
	second := cat.Projects[1].Groupings[0].Services

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "v1", first[0].Tag)
	assert.Equal(t, "v9", second[0].Tag)
}

func TestBuilder_empty_entries_ignored(t *testing.T) {
	t.Parallel()

	b := catalog.NewBuilder()

	b.Add("org/empty", nil)

	assert.Empty(t, b.Catalog().Projects)
}

func TestCatalog_marshal_json_ordered(t *testing.T) {
	t.Parallel()

	b := catalog.NewBuilder()

	b.Add("grp/backend", []extract.Entry{
		{
			Name:   "auth-service",
			Tag:    "v2.1.0",
			Source: "svc.yml",
		},
		{
			Name:   "payment-api",
			Tag:    "1.4.2",
			Source: "svc.yml",
		},
	})
	b.Add("grp/worker", []extract.Entry{
		{
			Name:   "image-processor",
			Tag:    "latest",
			Source: "svc.yml",
		},
	})

	data, err := json.Marshal(b.Catalog())
	require.NoError(t, err)

	want := `{"grp/backend":{"root":{` +
		`"auth-service":"v2.1.0",` +
		`"payment-api":"1.4.2"}},` +
		`"grp/worker":{"root":{` +
		`"image-processor":"latest"}}}`

	assert.Equal(t, want, string(data))
}
