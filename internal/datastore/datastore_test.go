package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/speciesnet-go/internal/detection"
)

func TestStoreSaveAndQuery(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "detections.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	results := []detection.Result{
		detection.NewResult("/data/fox.jpg", []detection.Candidate{
			{Species: "Vulpes vulpes", ScientificName: "Vulpes vulpes", CommonName: "red fox",
				Category: detection.CategoryMammal, Confidence: 0.87, Source: "classifier"},
		}),
		detection.NewResult("/data/empty.jpg", nil),
	}
	require.NoError(t, store.SaveResults("run-1", results))
	require.NoError(t, store.SaveResults("run-2", results[:1]))

	rows, err := store.RunDetections("run-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	fox := rows[0]
	assert.Equal(t, "run-1", fox.RunID)
	assert.Equal(t, "/data/fox.jpg", fox.ImagePath)
	assert.Equal(t, "fox.jpg", fox.ImageName)
	assert.Equal(t, "Vulpes vulpes", fox.Species)
	assert.Equal(t, "red fox", fox.CommonName)
	assert.Equal(t, "mammal", fox.Category)
	assert.InDelta(t, 0.87, fox.Confidence, 1e-9)
	assert.Equal(t, "classifier", fox.Source)

	empty := rows[1]
	assert.Empty(t, empty.Species)
	assert.Zero(t, empty.Confidence)

	other, err := store.RunDetections("run-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestStoreSaveEmpty(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "detections.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.SaveResults("run-1", nil))
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "detections.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriterMirrorsToDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "detections.db"))
	require.NoError(t, err)
	defer store.Close()

	csvPath := filepath.Join(dir, "results.csv")
	w := NewWriter(csvPath, "run-9", store)
	assert.Equal(t, csvPath, w.Path())

	results := []detection.Result{
		detection.NewResult("/data/fox.jpg", []detection.Candidate{
			{Species: "Vulpes vulpes", Confidence: 0.8},
		}),
	}
	require.NoError(t, w.Flush(results, true))

	assert.FileExists(t, csvPath)
	rows, err := store.RunDetections("run-9")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vulpes vulpes", rows[0].Species)
}
