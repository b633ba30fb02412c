package service

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/stock"
)

func exportFixture() []*LotView {
	lotNumber := "LOT-2025-118"
	category := "Antibiotique"
	expiry := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	return []*LotView{
		{
			DrugLot: &repository.DrugLot{
				Barcode:           "3400930000001",
				Designation:       "Amoxicilline 500mg, gélules",
				LotNumber:         &lotNumber,
				Category:          &category,
				CurrentStock:      4,
				LowStockThreshold: 10,
				ExpiryDate:        &expiry,
			},
			Status: []stock.StatusTag{stock.TagNearingExpiry, stock.TagLowStock},
		},
		{
			DrugLot: &repository.DrugLot{
				Barcode:           "3400930000002",
				Designation:       "Doliprane 1000mg",
				CurrentStock:      120,
				LowStockThreshold: 20,
			},
			Status: []stock.StatusTag{stock.TagOverstock},
		},
	}
}

func TestExportCSV(t *testing.T) {
	svc := &InventoryService{}

	data, err := svc.ExportCSV(exportFixture())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "CSV must start with a UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Barcode", "Designation", "Lot number", "Category",
		"Current stock", "Threshold", "Expiry date", "Status",
	}, records[0])

	assert.Equal(t, []string{
		"3400930000001", "Amoxicilline 500mg, gélules", "LOT-2025-118", "Antibiotique",
		"4", "10", "2025-09-01", "nearing_expiry, low_stock",
	}, records[1])

	assert.Equal(t, "N/A", records[2][6], "missing expiry renders as N/A")
	assert.Equal(t, "", records[2][2], "missing lot number renders empty")
}

func TestExportCSV_QuotesCommas(t *testing.T) {
	svc := &InventoryService{}

	data, err := svc.ExportCSV(exportFixture())
	require.NoError(t, err)

	assert.Contains(t, string(data), `"Amoxicilline 500mg, gélules"`)
}

func TestExportCSV_Empty(t *testing.T) {
	svc := &InventoryService{}

	data, err := svc.ExportCSV(nil)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestExportPDF(t *testing.T) {
	svc := &InventoryService{}

	data, err := svc.ExportPDF(exportFixture())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "output must be a PDF document")
	assert.Greater(t, len(data), 500)
}

func TestExportPDF_Empty(t *testing.T) {
	svc := &InventoryService{}

	data, err := svc.ExportPDF(nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
