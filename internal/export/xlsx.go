package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/validator/receipt"
)

const sheetName = "Receipts"

// WriteXLSX renders a batch of completed tokens as an xlsx workbook with one
// summary sheet, one receipt per row.
func WriteXLSX(w io.Writer, tokens []domain.ProcessingToken) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for i := range tokens {
		if err := writeTokenRow(f, i+2, &tokens[i]); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTokenRow(f *excelize.File, rowNum int, token *domain.ProcessingToken) error {
	values := make([]interface{}, len(columns))
	values[0] = token.ID.String()
	values[1] = token.CreatedAt.Format(time.RFC3339)

	if token.Status == domain.TokenStatusCompleted && len(token.Result) > 0 {
		var a receipt.Analysis
		if err := json.Unmarshal(token.Result, &a); err == nil {
			values[2] = a.Place
			values[3] = a.Amount
			values[4] = a.TransactionType
			values[5] = a.Category
			values[6] = a.VendorType
			values[7] = a.Confidence
			values[8] = a.Time
			values[9] = len(a.Items)
			values[10] = a.ItemsTotal()
		}
	}

	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}
