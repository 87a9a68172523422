package export_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/service_catalog/catalog"
	"github.com/byte4ever/service_catalog/export"
	"github.com/byte4ever/service_catalog/extract"
)

func sampleCatalog() *catalog.Catalog {
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
			Source: "deploy/stack.yml",
		},
	})
	b.Add("grp/worker", []extract.Entry{
		{
			Name:   "image-processor",
			Tag:    "latest",
			Source: "svc.yml",
		},
	})

	return b.Catalog()
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(
		t, export.Text(&buf, sampleCatalog()),
	)

	want := "grp/backend\n" +
		"——— root\n" +
		"—————— auth-service: v2.1.0\n" +
		"\n" +
		"——— deploy\n" +
		"—————— payment-api: 1.4.2\n" +
		"\n" +
		"grp/worker\n" +
		"——— root\n" +
		"—————— image-processor: latest\n" +
		"\n"

	assert.Equal(t, want, buf.String())
}

func TestCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(
		t, export.CSV(&buf, sampleCatalog()),
	)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(
		t,
		[]string{"Project", "Grouping", "Service", "Tag"},
		rows[0],
	)
	assert.Equal(
		t,
		[]string{
			"grp/backend", "root",
			"auth-service", "v2.1.0",
		},
		rows[1],
	)
	assert.Equal(
		t,
		[]string{
			"grp/worker", "root",
			"image-processor", "latest",
		},
		rows[3],
	)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	meta := export.Metadata{
		CollectedAt: "2026-01-02 15:04:05",
		Group:       "grp",
		Statistics: map[string]int{
			"total_projects": 2,
		},
	}

	require.NoError(
		t, export.JSON(&buf, sampleCatalog(), meta),
	)

	var doc struct {
		Metadata export.Metadata `json:"metadata"`
		Projects map[string]map[string]map[string]string `json:"projects"`
	}

	require.NoError(
		t, json.Unmarshal(buf.Bytes(), &doc),
	)

	assert.Equal(t, "grp", doc.Metadata.Group)
	assert.Equal(
		t, 2,
		doc.Metadata.Statistics["total_projects"],
	)
	assert.Equal(
		t, "v2.1.0",
		doc.Projects["grp/backend"]["root"]["auth-service"],
	)
	assert.Equal(
		t, "latest",
		doc.Projects["grp/worker"]["root"]["image-processor"],
	)

	// Insertion order survives into the rendered
	// bytes.
	text := buf.String()
	assert.Less(
		t,
		strings.Index(text, "grp/backend"),
		strings.Index(text, "grp/worker"),
	)
}

func TestSave_all_formats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	written, err := export.Save(
		dir,
		"catalog_{format}",
		export.FormatAll,
		sampleCatalog(),
		export.Metadata{Group: "grp"},
	)

	require.NoError(t, err)
	require.Len(t, written, 3)

	assert.Equal(
		t,
		filepath.Join(dir, "catalog_json.json"),
		written[0],
	)
	assert.Equal(
		t,
		filepath.Join(dir, "catalog_text.txt"),
		written[1],
	)
	assert.Equal(
		t,
		filepath.Join(dir, "catalog_csv.csv"),
		written[2],
	)

	for _, path := range written {
		data, err := os.ReadFile(path) //nolint:gosec // test temp dir
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestSave_single_format(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	written, err := export.Save(
		dir,
		"out_{format}_{group}",
		export.FormatCSV,
		sampleCatalog(),
		export.Metadata{Group: "grp"},
	)

	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(
		t,
		filepath.Join(dir, "out_csv_grp.csv"),
		written[0],
	)
}

func TestSave_creates_output_dir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")

	written, err := export.Save(
		dir,
		"c_{format}",
		export.FormatJSON,
		sampleCatalog(),
		export.Metadata{Group: "grp"},
	)

	require.NoError(t, err)
	require.Len(t, written, 1)

	_, err = os.Stat(written[0])
	assert.NoError(t, err)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{
		"all", "json", "text", "csv",
	} {
		f, err := export.ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, export.Format(valid), f)
	}

	_, err := export.ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
