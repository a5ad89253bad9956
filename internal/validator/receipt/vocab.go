package receipt

// Closed vocabularies for the enum-like draft fields. Unknown values are a
// hard semantic-layer failure, never coerced.

// Categories is the fixed set of spending category labels.
var Categories = map[string]bool{
	"dining":        true,
	"groceries":     true,
	"retail":        true,
	"transport":     true,
	"entertainment": true,
	"health":        true,
	"services":      true,
	"utilities":     true,
	"travel":        true,
	"other":         true,
}

// TransactionTypes is the fixed set of transaction directions.
var TransactionTypes = map[string]bool{
	"debit":  true,
	"credit": true,
}

// VendorTypes is the fixed set of vendor classification hints.
var VendorTypes = map[string]bool{
	"restaurant": true,
	"cafe":       true,
	"grocery":    true,
	"retail":     true,
	"service":    true,
	"other":      true,
}

// ConfidenceLevels is the fixed set of analyzer confidence labels.
var ConfidenceLevels = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

// SingleTicketVendors are vendor types whose line items must all share one
// category (one ticket, one kind of spend). The remaining vendor types may
// mix categories, with the top-level category derived from the item mix.
var SingleTicketVendors = map[string]bool{
	"restaurant": true,
	"cafe":       true,
	"service":    true,
}
