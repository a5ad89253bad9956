package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/validator/receipt"
)

func completedToken(t *testing.T) domain.ProcessingToken {
	t.Helper()

	a := receipt.Analysis{
		Place:           "Blue Bottle",
		Amount:          13.50,
		TransactionType: "debit",
		Category:        "dining",
		VendorType:      "cafe",
		Confidence:      "high",
		Time:            "2026-03-14T18:42:00Z",
		Items: []receipt.Item{
			{Name: "Latte", Quantity: 2, UnitPrice: 4.50, TotalPrice: 9.00, Category: "dining"},
			{Name: "Croissant", Quantity: 1, UnitPrice: 4.50, TotalPrice: 4.50, Category: "dining"},
		},
	}
	raw, err := json.Marshal(a)
	require.NoError(t, err)

	return domain.ProcessingToken{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Status:    domain.TokenStatusCompleted,
		Result:    raw,
		CreatedAt: time.Date(2026, 3, 14, 18, 45, 0, 0, time.UTC),
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 11)
	assert.Equal(t, "Token ID", row[0])
	assert.Equal(t, "Items Total", row[10])
}

func TestWriteTokens_Completed(t *testing.T) {
	token := completedToken(t)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteTokens([]domain.ProcessingToken{token}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, token.ID.String(), row[0])
	assert.Equal(t, "Blue Bottle", row[2])
	assert.Equal(t, "13.50", row[3])
	assert.Equal(t, "debit", row[4])
	assert.Equal(t, "dining", row[5])
	assert.Equal(t, "2", row[9])
	assert.Equal(t, "13.50", row[10])
}

func TestWriteTokens_UndecodableResultLeavesAnalysisColumnsEmpty(t *testing.T) {
	token := completedToken(t)
	token.Result = json.RawMessage(`{broken`)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTokens([]domain.ProcessingToken{token}))
	w.Flush()

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, token.ID.String(), rows[0][0])
	assert.Empty(t, rows[0][2])
	assert.Empty(t, rows[0][3])
}
