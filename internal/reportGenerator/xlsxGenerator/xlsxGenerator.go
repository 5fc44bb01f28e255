// Package xlsxGenerator renders admin exports as xlsx workbooks.
package xlsxGenerator

import (
	"fmt"
	"log/slog"

	"github.com/investgame/investgame/internal/model"
	"github.com/xuri/excelize/v2"
)

const transactionsSheet = "Transactions"

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// TransactionsReport writes the full transaction log into one sheet, a
// header band followed by one row per trade.
func (g *XLSXGenerator) TransactionsReport(transactions []model.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing report file", slog.String("err", err.Error()))
		}
	}()

	_, err := f.NewSheet(transactionsSheet)
	if err != nil {
		return nil, err
	}

	if err := f.MergeCell(transactionsSheet, "A1", "I1"); err != nil {
		return nil, err
	}

	f.SetCellValue(transactionsSheet, "A1", "Transaction log")

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellStyle(transactionsSheet, "A1", "A1", styleID); err != nil {
		return nil, fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(transactionsSheet, "A2", "transaction")
	_ = f.SetCellStr(transactionsSheet, "B2", "user")
	_ = f.SetCellStr(transactionsSheet, "C2", "issuer")
	_ = f.SetCellStr(transactionsSheet, "D2", "type")
	_ = f.SetCellStr(transactionsSheet, "E2", "quantity")
	_ = f.SetCellStr(transactionsSheet, "F2", "gross")
	_ = f.SetCellStr(transactionsSheet, "G2", "fee")
	_ = f.SetCellStr(transactionsSheet, "H2", "total")
	_ = f.SetCellStr(transactionsSheet, "I2", "datetime")

	for i, t := range transactions {
		row := i + 3
		_ = f.SetCellInt(transactionsSheet, fmt.Sprintf("A%d", row), t.TransID)
		_ = f.SetCellInt(transactionsSheet, fmt.Sprintf("B%d", row), t.UserID)
		_ = f.SetCellStr(transactionsSheet, fmt.Sprintf("C%d", row), t.IssuerID)
		_ = f.SetCellStr(transactionsSheet, fmt.Sprintf("D%d", row), t.Transtype)
		_ = f.SetCellInt(transactionsSheet, fmt.Sprintf("E%d", row), int64(t.Quantity))
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("F%d", row), t.Stocktransval.InexactFloat64())
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("G%d", row), t.Feeval.InexactFloat64())
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("H%d", row), t.Totaltransval.InexactFloat64())
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("I%d", row), t.Datetime)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
