package receipt

import "encoding/json"

// Draft is the unvalidated structured output of the media analyzer. Fields
// whose absence matters are pointers so that "missing" and "zero" stay
// distinguishable. A Draft never reaches storage or API responses; the
// validation pipeline is the only path from Draft to Analysis.
type Draft struct {
	Place           string      `json:"place"`
	Amount          *float64    `json:"amount"`
	TransactionType string      `json:"transaction_type"`
	Category        string      `json:"category"`
	Time            string      `json:"time"`
	Items           []DraftItem `json:"items"`
	VendorType      string      `json:"vendor_type"`
	Confidence      string      `json:"confidence"`
}

// DraftItem is a single unvalidated line item.
type DraftItem struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price"`
	TotalPrice *float64 `json:"total_price"`
	Category   string   `json:"category"`
}

// Analysis is the validated transaction extracted from a receipt.
type Analysis struct {
	Place           string  `json:"place"`
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	Category        string  `json:"category"`
	Time            string  `json:"time,omitempty"`
	Items           []Item  `json:"items"`
	VendorType      string  `json:"vendor_type"`
	Confidence      string  `json:"confidence"`
}

// Item is a validated line item.
type Item struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Category   string  `json:"category"`
}

// ParseDraft decodes raw analyzer output into a Draft.
func ParseDraft(raw json.RawMessage) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Analysis converts a draft that has passed every validation layer. Missing
// optional numerics default to zero; the pipeline has already rejected drafts
// where that would be wrong.
func (d *Draft) Analysis() *Analysis {
	a := &Analysis{
		Place:           d.Place,
		TransactionType: d.TransactionType,
		Category:        d.Category,
		Time:            d.Time,
		VendorType:      d.VendorType,
		Confidence:      d.Confidence,
		Items:           make([]Item, 0, len(d.Items)),
	}
	if d.Amount != nil {
		a.Amount = *d.Amount
	}
	for _, it := range d.Items {
		item := Item{Name: it.Name, Category: it.Category}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		if it.TotalPrice != nil {
			item.TotalPrice = *it.TotalPrice
		}
		a.Items = append(a.Items, item)
	}
	return a
}

// ItemsTotal sums the item total prices.
func (a *Analysis) ItemsTotal() float64 {
	var sum float64
	for i := range a.Items {
		sum += a.Items[i].TotalPrice
	}
	return sum
}
