package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/rkode/internal/ode"
)

type ExportData struct {
	Problem    string             `json:"problem"`
	Method     string             `json:"method"`
	StepSize   float64            `json:"step_size"`
	TInitial   float64            `json:"t_initial"`
	TFinal     float64            `json:"t_final"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	StepSizes  []float64          `json:"step_sizes"`
	StepErrors []float64          `json:"step_errors,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewExportData flattens a run into parallel arrays.
func NewExportData(meta RunMetadata, samples []ode.Sample[[]float64]) ExportData {
	data := ExportData{
		Problem:   meta.Problem,
		Method:    meta.Method,
		StepSize:  meta.StepSize,
		TInitial:  meta.TInitial,
		TFinal:    meta.TFinal,
		Steps:     max(len(samples)-1, 0),
		Times:     make([]float64, len(samples)),
		States:    make([][]float64, len(samples)),
		StepSizes: make([]float64, len(samples)),
		Params:    meta.Params,
		Metrics:   meta.Metrics,
	}
	if meta.Adaptive {
		data.StepErrors = make([]float64, len(samples))
	}

	for i, s := range samples {
		data.Times[i] = s.T
		data.States[i] = s.Y
		data.StepSizes[i] = s.StepSize
		if data.StepErrors != nil && s.Adaptive != nil {
			data.StepErrors[i] = s.Adaptive.StepError
		}
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []ode.Sample[[]float64]) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, samples))
}
