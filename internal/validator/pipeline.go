package validator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ledgerlens/internal/validator/receipt"
)

// LayerReport is the recorded outcome of one layer for a single draft.
type LayerReport struct {
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Passed   bool              `json:"passed"`
	Skipped  bool              `json:"skipped"`
	Failures []receipt.Failure `json:"failures,omitempty"`
}

// Report collects per-layer outcomes for a draft. It is ephemeral: the
// orchestrator folds it into the token's error message and discards it.
type Report struct {
	Layers []LayerReport `json:"layers"`
}

// Passed reports whether every executed layer passed.
func (r *Report) Passed() bool {
	for i := range r.Layers {
		if !r.Layers[i].Skipped && !r.Layers[i].Passed {
			return false
		}
	}
	return true
}

// FailedLayers returns the keys of every failing layer in execution order.
func (r *Report) FailedLayers() []string {
	var keys []string
	for i := range r.Layers {
		if !r.Layers[i].Skipped && !r.Layers[i].Passed {
			keys = append(keys, r.Layers[i].Key)
		}
	}
	return keys
}

// Summary renders every failure as a single human-readable line, suitable
// for the token's error message.
func (r *Report) Summary() string {
	var parts []string
	for i := range r.Layers {
		lr := &r.Layers[i]
		if lr.Skipped || lr.Passed {
			continue
		}
		for _, f := range lr.Failures {
			parts = append(parts, fmt.Sprintf("[%s] %s", lr.Key, f.Message))
		}
	}
	return strings.Join(parts, "; ")
}

// Pipeline runs the validation layers over a draft in fixed order,
// short-circuiting when a layer reports a blocking structural failure.
type Pipeline struct {
	layers []Layer
}

// NewPipeline creates the standard four-layer pipeline: semantic,
// mathematical, business-logic, data-quality.
func NewPipeline() *Pipeline {
	return &Pipeline{
		layers: []Layer{
			receipt.NewSemanticLayer(),
			receipt.NewMathLayer(),
			receipt.NewBusinessLayer(),
			receipt.NewQualityLayer(),
		},
	}
}

// NewPipelineWithLayers creates a pipeline over an explicit layer order.
func NewPipelineWithLayers(layers ...Layer) *Pipeline {
	return &Pipeline{layers: layers}
}

// Run validates a draft. On success it returns the validated analysis and a
// fully-passed report; on failure the analysis is nil and the report
// enumerates every failing layer and reason that could be gathered before a
// blocking failure stopped execution.
func (p *Pipeline) Run(ctx context.Context, d *receipt.Draft) (*receipt.Analysis, *Report) {
	report := &Report{Layers: make([]LayerReport, 0, len(p.layers))}
	blocked := false

	for _, layer := range p.layers {
		if blocked {
			report.Layers = append(report.Layers, LayerReport{
				Key: layer.Key(), Name: layer.Name(), Skipped: true,
			})
			continue
		}

		outcome := layer.Check(ctx, d)
		report.Layers = append(report.Layers, LayerReport{
			Key:      layer.Key(),
			Name:     layer.Name(),
			Passed:   outcome.Passed(),
			Failures: outcome.Failures,
		})
		if outcome.Blocking {
			blocked = true
		}
	}

	if !report.Passed() {
		log.Printf("validator.Pipeline: draft rejected by layers %v", report.FailedLayers())
		return nil, report
	}
	return d.Analysis(), report
}
