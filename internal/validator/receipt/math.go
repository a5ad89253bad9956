package receipt

import (
	"context"
	"fmt"
	"math"
)

// Tolerance returns the reconciliation tolerance for a given total amount:
// one percent of the amount with a two-cent floor.
func Tolerance(amount float64) float64 {
	return math.Max(0.02, 0.01*amount)
}

func fmtf(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// mathLayer checks numeric consistency: a present, finite, non-negative
// amount; per-item quantity*unit_price vs total_price; and the item sum
// against the top-level amount. A missing or non-finite amount is blocking
// since nothing downstream can reconcile against it.
type mathLayer struct{}

// NewMathLayer creates the mathematical consistency layer.
func NewMathLayer() *mathLayer { return &mathLayer{} }

func (l *mathLayer) Key() string  { return "mathematical" }
func (l *mathLayer) Name() string { return "Mathematical: Numeric Consistency" }

func (l *mathLayer) Check(_ context.Context, d *Draft) LayerOutcome {
	var out LayerOutcome

	if d.Amount == nil {
		out.Failures = append(out.Failures, Failure{
			FieldPath: "amount",
			Expected:  "a finite, non-negative number",
			Actual:    "missing",
			Message:   "Mathematical: amount is missing",
		})
		out.Blocking = true
		return out
	}

	amount := *d.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		out.Failures = append(out.Failures, Failure{
			FieldPath: "amount",
			Expected:  "a finite number",
			Actual:    fmt.Sprintf("%v", amount),
			Message:   "Mathematical: amount is not a finite number",
		})
		out.Blocking = true
		return out
	}
	if amount < 0 {
		out.Failures = append(out.Failures, Failure{
			FieldPath: "amount",
			Expected:  ">= 0",
			Actual:    fmtf(amount),
			Message:   fmt.Sprintf("Mathematical: amount is negative (%.2f)", amount),
		})
	}

	tol := Tolerance(amount)
	var itemSum float64
	itemsComplete := true

	for i := range d.Items {
		item := &d.Items[i]
		prefix := fmt.Sprintf("items[%d]", i)

		if item.Quantity == nil || item.UnitPrice == nil || item.TotalPrice == nil {
			out.Failures = append(out.Failures, Failure{
				FieldPath: prefix,
				Expected:  "quantity, unit_price, and total_price present",
				Actual:    "one or more missing",
				Message:   fmt.Sprintf("Mathematical: %s is missing numeric fields", prefix),
			})
			itemsComplete = false
			continue
		}

		if *item.Quantity <= 0 {
			out.Failures = append(out.Failures, Failure{
				FieldPath: prefix + ".quantity",
				Expected:  "> 0",
				Actual:    fmtf(*item.Quantity),
				Message:   fmt.Sprintf("Mathematical: %s.quantity must be positive", prefix),
			})
		}

		expected := *item.Quantity * *item.UnitPrice
		if math.Abs(*item.TotalPrice-expected) > tol {
			out.Failures = append(out.Failures, Failure{
				FieldPath: prefix + ".total_price",
				Expected:  fmtf(expected),
				Actual:    fmtf(*item.TotalPrice),
				Message:   fmt.Sprintf("Mathematical: %s.total_price does not reconcile with quantity*unit_price (expected %s, got %s)", prefix, fmtf(expected), fmtf(*item.TotalPrice)),
			})
		}
		itemSum += *item.TotalPrice
	}

	// Sum reconciliation only makes sense when every item carried its numbers.
	if len(d.Items) > 0 && itemsComplete {
		if math.Abs(itemSum-amount) > tol {
			out.Failures = append(out.Failures, Failure{
				FieldPath: "amount",
				Expected:  fmt.Sprintf("within %s of item sum %s", fmtf(tol), fmtf(itemSum)),
				Actual:    fmtf(amount),
				Message:   fmt.Sprintf("Mathematical: item totals (%s) do not reconcile with amount (%s)", fmtf(itemSum), fmtf(amount)),
			})
		}
	}

	return out
}
