package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// utf8BOM keeps accented designations readable when the CSV is opened
// in spreadsheet software.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var exportHeader = []string{
	"Barcode", "Designation", "Lot number", "Category",
	"Current stock", "Threshold", "Expiry date", "Status",
}

// ExportCSV renders the filtered inventory view as CSV (UTF-8 with BOM).
func (s *InventoryService) ExportCSV(views []*LotView) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, v := range views {
		if err := w.Write(exportRow(v)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportPDF renders the filtered inventory view as a tabular PDF.
func (s *InventoryService) ExportPDF(views []*LotView) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Pharmacy inventory")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s - %d lots", time.Now().Format("2006-01-02 15:04"), len(views)))
	pdf.Ln(10)

	widths := []float64{35, 60, 28, 35, 22, 22, 28, 40}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range exportHeader {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, v := range views {
		for i, cell := range exportRow(v) {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func exportRow(v *LotView) []string {
	lotNumber := ""
	if v.LotNumber != nil {
		lotNumber = *v.LotNumber
	}

	category := ""
	if v.Category != nil {
		category = *v.Category
	}

	expiry := "N/A"
	if v.ExpiryDate != nil {
		expiry = v.ExpiryDate.Format("2006-01-02")
	}

	statuses := make([]string, len(v.Status))
	for i, tag := range v.Status {
		statuses[i] = string(tag)
	}

	return []string{
		v.Barcode,
		v.Designation,
		lotNumber,
		category,
		strconv.Itoa(v.CurrentStock),
		strconv.Itoa(v.LowStockThreshold),
		expiry,
		strings.Join(statuses, ", "),
	}
}
