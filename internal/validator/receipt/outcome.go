package receipt

// Failure is a single validation finding within a layer.
type Failure struct {
	FieldPath string `json:"field_path"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
	Message   string `json:"message"`
}

// LayerOutcome is the result of running one validation layer over a draft.
// Blocking marks a structural failure that makes later layers meaningless
// (a missing amount leaves nothing for the mathematical layer's dependents
// to check), so the pipeline stops after this layer.
type LayerOutcome struct {
	Failures []Failure
	Blocking bool
}

// Passed reports whether the layer produced no failures.
func (o LayerOutcome) Passed() bool {
	return len(o.Failures) == 0
}
