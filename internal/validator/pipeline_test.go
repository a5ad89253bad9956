package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/validator"
	"ledgerlens/internal/validator/receipt"
)

func f(v float64) *float64 { return &v }

func cleanDraft() *receipt.Draft {
	return &receipt.Draft{
		Place:           "Blue Bottle",
		Amount:          f(13.50),
		TransactionType: "debit",
		Category:        "dining",
		VendorType:      "cafe",
		Confidence:      "high",
		Items: []receipt.DraftItem{
			{Name: "Latte", Quantity: f(2), UnitPrice: f(4.50), TotalPrice: f(9.00), Category: "dining"},
			{Name: "Croissant", Quantity: f(1), UnitPrice: f(4.50), TotalPrice: f(4.50), Category: "dining"},
		},
	}
}

func TestPipeline_CleanDraftProducesAnalysis(t *testing.T) {
	p := validator.NewPipeline()

	analysis, report := p.Run(context.Background(), cleanDraft())

	require.NotNil(t, analysis)
	assert.True(t, report.Passed())
	assert.Len(t, report.Layers, 4)
	assert.Equal(t, "Blue Bottle", analysis.Place)
	assert.Equal(t, 13.50, analysis.Amount)
	assert.Len(t, analysis.Items, 2)
}

func TestPipeline_ReportsEveryFailingLayer(t *testing.T) {
	p := validator.NewPipeline()

	d := cleanDraft()
	d.Category = "snacks"            // semantic violation
	d.Items[0].TotalPrice = f(50.00) // math violation (and sum mismatch)
	d.Items[1].Name = "item"         // quality violation

	analysis, report := p.Run(context.Background(), d)

	assert.Nil(t, analysis)
	assert.False(t, report.Passed())
	assert.Equal(t, []string{"semantic", "mathematical", "quality"}, report.FailedLayers())
	assert.NotEmpty(t, report.Summary())
}

func TestPipeline_BlockingFailureSkipsLaterLayers(t *testing.T) {
	p := validator.NewPipeline()

	d := cleanDraft()
	d.Amount = nil // blocking math failure

	analysis, report := p.Run(context.Background(), d)

	assert.Nil(t, analysis)
	require.Len(t, report.Layers, 4)
	assert.False(t, report.Layers[1].Passed)
	assert.True(t, report.Layers[2].Skipped)
	assert.True(t, report.Layers[3].Skipped)
}

func TestPipeline_FailuresAccumulateWithinLayer(t *testing.T) {
	p := validator.NewPipeline()

	d := cleanDraft()
	d.TransactionType = "payment"
	d.Confidence = "certain"

	analysis, report := p.Run(context.Background(), d)

	assert.Nil(t, analysis)
	assert.Len(t, report.Layers[0].Failures, 2)
}

func TestPipeline_SummaryNamesLayerKeys(t *testing.T) {
	p := validator.NewPipeline()

	d := cleanDraft()
	d.VendorType = "bodega"

	_, report := p.Run(context.Background(), d)
	assert.Contains(t, report.Summary(), "[semantic]")
}

// A stub layer exercising the custom-order constructor.
type alwaysFail struct{}

func (alwaysFail) Key() string  { return "stub" }
func (alwaysFail) Name() string { return "Stub" }
func (alwaysFail) Check(_ context.Context, _ *receipt.Draft) receipt.LayerOutcome {
	return receipt.LayerOutcome{Failures: []receipt.Failure{{FieldPath: "x", Message: "stub failure"}}}
}

func TestPipeline_CustomLayerOrder(t *testing.T) {
	p := validator.NewPipelineWithLayers(alwaysFail{})

	analysis, report := p.Run(context.Background(), cleanDraft())

	assert.Nil(t, analysis)
	assert.Equal(t, []string{"stub"}, report.FailedLayers())
}
