package speciesnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredictions(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"predictions": [
			{
				"filepath": "/data/fox.jpg",
				"prediction": "uuid-1;mammalia;carnivora;canidae;vulpes;vulpes;red fox",
				"prediction_score": 0.87,
				"prediction_source": "classifier",
				"detections": [
					{"conf": 0.4, "bbox": [0.1, 0.1, 0.2, 0.2]},
					{"conf": 0.9, "bbox": [0.3, 0.3, 0.4, 0.4]}
				]
			},
			{
				"filepath": "/data/blank.jpg",
				"prediction": "blank",
				"prediction_score": 0.99
			},
			{
				"prediction": "orphan without filepath",
				"prediction_score": 0.5
			}
		]
	}`)

	predictions, err := parsePredictions(data)
	require.NoError(t, err)
	require.Len(t, predictions, 2, "entry without filepath is skipped")

	fox := predictions[0]
	assert.Equal(t, "/data/fox.jpg", fox.FilePath)
	assert.Equal(t, "uuid-1;mammalia;carnivora;canidae;vulpes;vulpes;red fox", fox.Label)
	assert.InDelta(t, 0.87, fox.Score, 1e-9)
	assert.Equal(t, "classifier", fox.Source)
	assert.Equal(t, []float64{0.3, 0.3, 0.4, 0.4}, fox.BBox, "highest-confidence bbox wins")

	blank := predictions[1]
	assert.Equal(t, "blank", blank.Label)
	assert.Empty(t, blank.Source)
	assert.Nil(t, blank.BBox)
}

func TestParsePredictionsMalformed(t *testing.T) {
	t.Parallel()

	_, err := parsePredictions([]byte("not json"))
	assert.Error(t, err)

	_, err = parsePredictions([]byte(`{"results": []}`))
	assert.Error(t, err, "missing predictions array is an error")
}

func TestParsePredictionsIgnoresBadBBox(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"predictions": [
			{
				"filepath": "/data/a.jpg",
				"prediction": "blank",
				"prediction_score": 0.5,
				"detections": [
					{"conf": 0.9, "bbox": [0.1, 0.2]},
					{"conf": 0.3, "bbox": [0.1, 0.2, 0.3, 0.4]}
				]
			}
		]
	}`)

	predictions, err := parsePredictions(data)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, predictions[0].BBox,
		"malformed bbox skipped in favor of a complete one")
}

func TestNewCommandRunner(t *testing.T) {
	t.Parallel()

	t.Run("empty command rejected", func(t *testing.T) {
		t.Parallel()
		settings := testSNSettings()
		settings.Command = "   "
		_, err := NewCommandRunner(settings)
		assert.Error(t, err)
	})

	t.Run("available reports missing executable", func(t *testing.T) {
		t.Parallel()
		settings := testSNSettings()
		settings.Command = "definitely-not-a-real-command-xyz --flag"
		runner, err := NewCommandRunner(settings)
		require.NoError(t, err)
		assert.Error(t, runner.Available())
	})

	t.Run("available finds shell", func(t *testing.T) {
		t.Parallel()
		settings := testSNSettings()
		settings.Command = "sh -c true"
		runner, err := NewCommandRunner(settings)
		require.NoError(t, err)
		assert.NoError(t, runner.Available())
	})
}
