package receipt

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// businessLayer applies vendor-type-specific rules. Single-ticket vendors
// (restaurant, cafe, service) must carry items of exactly one category;
// multi-category vendors may mix, but the top-level category must match the
// category derived from the item mix. New vendor types are added by
// extending SingleTicketVendors, not by branching here.
type businessLayer struct{}

// NewBusinessLayer creates the vendor-policy layer.
func NewBusinessLayer() *businessLayer { return &businessLayer{} }

func (l *businessLayer) Key() string  { return "business" }
func (l *businessLayer) Name() string { return "Business: Vendor Policy" }

func (l *businessLayer) Check(_ context.Context, d *Draft) LayerOutcome {
	var out LayerOutcome

	if len(d.Items) == 0 {
		// Single-summary vendors carry no items; nothing to cross-check.
		return out
	}

	if SingleTicketVendors[d.VendorType] {
		distinct := map[string]bool{}
		for i := range d.Items {
			distinct[d.Items[i].Category] = true
		}
		if len(distinct) > 1 {
			cats := make([]string, 0, len(distinct))
			for c := range distinct {
				cats = append(cats, c)
			}
			sort.Strings(cats)
			out.Failures = append(out.Failures, Failure{
				FieldPath: "items",
				Expected:  "a single item category for a " + d.VendorType + " vendor",
				Actual:    strings.Join(cats, ", "),
				Message:   fmt.Sprintf("Business: %s vendors must not mix item categories (found %d)", d.VendorType, len(distinct)),
			})
		}
		return out
	}

	derived := DominantCategory(d.Items)
	if derived != "" && d.Category != derived {
		out.Failures = append(out.Failures, Failure{
			FieldPath: "category",
			Expected:  derived,
			Actual:    d.Category,
			Message:   fmt.Sprintf("Business: top-level category %q is not derivable from the item mix (dominant category is %q)", d.Category, derived),
		})
	}

	return out
}

// DominantCategory returns the item category carrying the highest summed
// total price. Ties break toward the category seen first in item order, so
// the result is deterministic for a given draft.
func DominantCategory(items []DraftItem) string {
	totals := map[string]float64{}
	order := map[string]int{}
	for i := range items {
		c := items[i].Category
		if c == "" {
			continue
		}
		if _, seen := order[c]; !seen {
			order[c] = i
		}
		if items[i].TotalPrice != nil {
			totals[c] += *items[i].TotalPrice
		}
	}

	best := ""
	for c := range order {
		if best == "" {
			best = c
			continue
		}
		switch {
		case totals[c] > totals[best]:
			best = c
		case totals[c] == totals[best] && order[c] < order[best]:
			best = c
		}
	}
	return best
}
