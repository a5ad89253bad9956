package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/validator/receipt"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Token ID",
	"Created At",
	"Place",
	"Amount",
	"Transaction Type",
	"Category",
	"Vendor Type",
	"Confidence",
	"Transaction Time",
	"Item Count",
	"Items Total",
}

// Writer wraps csv.Writer for exporting completed receipt analyses as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTokens converts a batch of completed tokens to CSV rows and writes them.
func (w *Writer) WriteTokens(tokens []domain.ProcessingToken) error {
	for i := range tokens {
		row := tokenToRow(&tokens[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// tokenToRow converts a single completed token to a string slice. Metadata
// columns are always filled; analysis columns stay empty when the stored
// result cannot be decoded.
func tokenToRow(token *domain.ProcessingToken) []string {
	row := make([]string, len(columns))
	row[0] = token.ID.String()
	row[1] = token.CreatedAt.Format(time.RFC3339)

	if token.Status != domain.TokenStatusCompleted || len(token.Result) == 0 {
		return row
	}

	var a receipt.Analysis
	if err := json.Unmarshal(token.Result, &a); err != nil {
		return row
	}

	row[2] = a.Place
	row[3] = formatAmount(a.Amount)
	row[4] = a.TransactionType
	row[5] = a.Category
	row[6] = a.VendorType
	row[7] = a.Confidence
	row[8] = a.Time
	row[9] = strconv.Itoa(len(a.Items))
	row[10] = formatAmount(a.ItemsTotal())
	return row
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
