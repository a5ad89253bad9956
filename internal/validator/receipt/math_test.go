package receipt

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func item(name string, qty, unit, total float64, category string) DraftItem {
	return DraftItem{Name: name, Quantity: f(qty), UnitPrice: f(unit), TotalPrice: f(total), Category: category}
}

func TestTolerance(t *testing.T) {
	// Two-cent floor for small amounts.
	assert.Equal(t, 0.02, Tolerance(0))
	assert.Equal(t, 0.02, Tolerance(1.50))
	// One percent beyond the floor.
	assert.Equal(t, 1.0, Tolerance(100))
	assert.Equal(t, 25.0, Tolerance(2500))
}

func TestMathLayer_MissingAmountBlocks(t *testing.T) {
	l := NewMathLayer()
	out := l.Check(context.Background(), &Draft{})

	assert.True(t, out.Blocking)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "amount", out.Failures[0].FieldPath)
}

func TestMathLayer_NonFiniteAmountBlocks(t *testing.T) {
	l := NewMathLayer()
	out := l.Check(context.Background(), &Draft{Amount: f(math.NaN())})

	assert.True(t, out.Blocking)
	assert.False(t, out.Passed())
}

func TestMathLayer_NegativeAmountFails(t *testing.T) {
	l := NewMathLayer()
	out := l.Check(context.Background(), &Draft{Amount: f(-4.20)})

	assert.False(t, out.Blocking)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "amount", out.Failures[0].FieldPath)
}

func TestMathLayer_ItemMathWithinTolerancePasses(t *testing.T) {
	l := NewMathLayer()
	d := &Draft{
		Amount: f(10.00),
		Items: []DraftItem{
			// 3 * 3.333 = 9.999, within the 0.10 tolerance of the 10.00 amount.
			item("Coffee", 3, 3.333, 10.00, "dining"),
		},
	}
	out := l.Check(context.Background(), d)
	assert.True(t, out.Passed())
}

func TestMathLayer_ItemPriceMismatchFails(t *testing.T) {
	l := NewMathLayer()
	d := &Draft{
		Amount: f(20.00),
		Items: []DraftItem{
			item("Widget", 2, 5.00, 20.00, "retail"), // 2*5.00 != 20.00
		},
	}
	out := l.Check(context.Background(), d)

	assert.False(t, out.Passed())
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "items[0].total_price", out.Failures[0].FieldPath)
}

func TestMathLayer_NonPositiveQuantityFails(t *testing.T) {
	l := NewMathLayer()
	d := &Draft{
		Amount: f(0.00),
		Items: []DraftItem{
			item("Ghost", 0, 5.00, 0.00, "retail"),
		},
	}
	out := l.Check(context.Background(), d)

	assert.False(t, out.Passed())
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "items[0].quantity", out.Failures[0].FieldPath)
}

func TestMathLayer_ItemSumReconciliation(t *testing.T) {
	l := NewMathLayer()
	d := &Draft{
		Amount: f(50.00),
		Items: []DraftItem{
			item("A", 1, 10.00, 10.00, "groceries"),
			item("B", 1, 15.00, 15.00, "groceries"),
		},
	}
	out := l.Check(context.Background(), d)

	assert.False(t, out.Passed())
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "amount", out.Failures[0].FieldPath)
}

func TestMathLayer_IncompleteItemSkipsSumCheck(t *testing.T) {
	l := NewMathLayer()
	d := &Draft{
		Amount: f(50.00),
		Items: []DraftItem{
			{Name: "Mystery", Category: "groceries"}, // no numerics
			item("B", 1, 15.00, 15.00, "groceries"),
		},
	}
	out := l.Check(context.Background(), d)

	// The incomplete item fails, but no bogus sum reconciliation is added.
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "items[0]", out.Failures[0].FieldPath)
}

func TestMathLayer_NoItemsSkipsSumCheck(t *testing.T) {
	l := NewMathLayer()
	out := l.Check(context.Background(), &Draft{Amount: f(12.34)})
	assert.True(t, out.Passed())
}
