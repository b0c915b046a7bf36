package speciesnet

import (
	"github.com/antonholmquist/jason"
)

// RawPrediction is one backend prediction as read from the predictions JSON.
// Predictions are keyed by filepath and may arrive in any order.
type RawPrediction struct {
	FilePath string
	Label    string    // taxonomy label: id;class;order;family;genus;species;common_name
	Score    float64   // classifier confidence
	Source   string    // e.g. "classifier" or "detector"
	BBox     []float64 // best detector bounding box, empty or 4 values
}

// parsePredictions decodes the SpeciesNet predictions JSON document. Entries
// missing a filepath are skipped; entries missing optional fields degrade to
// zero values rather than failing the whole document.
func parsePredictions(data []byte) ([]RawPrediction, error) {
	root, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return nil, err
	}

	entries, err := root.GetObjectArray("predictions")
	if err != nil {
		return nil, err
	}

	predictions := make([]RawPrediction, 0, len(entries))
	for _, entry := range entries {
		filePath, err := entry.GetString("filepath")
		if err != nil || filePath == "" {
			continue
		}

		p := RawPrediction{FilePath: filePath}
		if label, err := entry.GetString("prediction"); err == nil {
			p.Label = label
		}
		if score, err := entry.GetFloat64("prediction_score"); err == nil {
			p.Score = score
		}
		if source, err := entry.GetString("prediction_source"); err == nil {
			p.Source = source
		}
		p.BBox = bestBBox(entry)

		predictions = append(predictions, p)
	}

	return predictions, nil
}

// bestBBox extracts the bounding box of the highest-confidence detector hit.
func bestBBox(entry *jason.Object) []float64 {
	detections, err := entry.GetObjectArray("detections")
	if err != nil || len(detections) == 0 {
		return nil
	}

	bestConf := -1.0
	var best []float64
	for _, d := range detections {
		conf, err := d.GetFloat64("conf")
		if err != nil {
			continue
		}
		if conf <= bestConf {
			continue
		}
		values, err := d.GetValueArray("bbox")
		if err != nil {
			continue
		}
		bbox := make([]float64, 0, len(values))
		for _, v := range values {
			f, err := v.Float64()
			if err != nil {
				bbox = nil
				break
			}
			bbox = append(bbox, f)
		}
		if len(bbox) == 4 {
			bestConf = conf
			best = bbox
		}
	}
	return best
}
