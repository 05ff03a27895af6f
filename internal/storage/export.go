package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/replicator/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes a run's metadata and full trajectory as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, times []float64, states []dynamo.State) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       times,
		States:      make([][]float64, len(states)),
	}

	for i, s := range states {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
