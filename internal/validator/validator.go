package validator

import (
	"context"

	"ledgerlens/internal/validator/receipt"
)

// Layer is one independent validation check applied to a draft. Layers run
// in a fixed order and accumulate every failure they can safely detect
// before the pipeline decides pass/fail for the layer as a whole.
type Layer interface {
	Key() string
	Name() string
	Check(ctx context.Context, d *receipt.Draft) receipt.LayerOutcome
}
