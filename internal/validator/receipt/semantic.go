package receipt

import (
	"context"
	"fmt"
)

// semanticLayer checks every enum-like field against its closed vocabulary.
// Unknown values are hard failures, never coerced.
type semanticLayer struct{}

// NewSemanticLayer creates the semantic vocabulary layer.
func NewSemanticLayer() *semanticLayer { return &semanticLayer{} }

func (l *semanticLayer) Key() string  { return "semantic" }
func (l *semanticLayer) Name() string { return "Semantic: Closed Vocabularies" }

func (l *semanticLayer) Check(_ context.Context, d *Draft) LayerOutcome {
	var out LayerOutcome

	check := func(fieldPath, val string, vocab map[string]bool, allowed string) {
		if !vocab[val] {
			out.Failures = append(out.Failures, Failure{
				FieldPath: fieldPath,
				Expected:  allowed,
				Actual:    val,
				Message:   fmt.Sprintf("Semantic: %s %q is not in the allowed vocabulary", fieldPath, val),
			})
		}
	}

	check("transaction_type", d.TransactionType, TransactionTypes, "one of {debit, credit}")
	check("category", d.Category, Categories, "a known category label")
	check("vendor_type", d.VendorType, VendorTypes, "a known vendor type")
	check("confidence", d.Confidence, ConfidenceLevels, "one of {low, medium, high}")

	for i := range d.Items {
		fp := fmt.Sprintf("items[%d].category", i)
		check(fp, d.Items[i].Category, Categories, "a known category label")
	}

	return out
}
