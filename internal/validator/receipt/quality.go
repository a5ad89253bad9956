package receipt

import (
	"context"
	"fmt"
	"strings"
)

// Placeholder strings the analyzer tends to emit on low-confidence
// extraction instead of leaving a field empty.
var placeholderValues = map[string]bool{
	"unknown":     true,
	"n/a":         true,
	"na":          true,
	"none":        true,
	"null":        true,
	"item":        true,
	"misc":        true,
	"placeholder": true,
	"store":       true,
	"merchant":    true,
	"receipt":     true,
	"-":           true,
	"--":          true,
	"...":         true,
}

func isPlaceholder(s string) bool {
	return placeholderValues[strings.ToLower(strings.TrimSpace(s))]
}

func isTrivial(s string) bool {
	return strings.TrimSpace(s) == "" || isPlaceholder(s)
}

// qualityLayer checks non-numeric completeness: a real merchant name and
// non-boilerplate item names.
type qualityLayer struct{}

// NewQualityLayer creates the data-quality layer.
func NewQualityLayer() *qualityLayer { return &qualityLayer{} }

func (l *qualityLayer) Key() string  { return "quality" }
func (l *qualityLayer) Name() string { return "Quality: Non-Numeric Completeness" }

func (l *qualityLayer) Check(_ context.Context, d *Draft) LayerOutcome {
	var out LayerOutcome

	if isTrivial(d.Place) {
		out.Failures = append(out.Failures, Failure{
			FieldPath: "place",
			Expected:  "a non-empty merchant name",
			Actual:    d.Place,
			Message:   "Quality: place is empty or a placeholder",
		})
	}

	for i := range d.Items {
		if isTrivial(d.Items[i].Name) {
			fp := fmt.Sprintf("items[%d].name", i)
			out.Failures = append(out.Failures, Failure{
				FieldPath: fp,
				Expected:  "a non-trivial item name",
				Actual:    d.Items[i].Name,
				Message:   fmt.Sprintf("Quality: %s is empty or boilerplate", fp),
			})
		}
	}

	return out
}
