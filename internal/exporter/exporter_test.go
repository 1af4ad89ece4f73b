package exporter

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"quotedesk/internal/importer"
	"quotedesk/internal/model"
	"quotedesk/internal/parser"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	b, err := Bytes(f)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestTemplate_HeadersResolveToThemselves(t *testing.T) {
	t.Parallel()

	f, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	wb := reopen(t, f)

	rows, err := wb.GetRows(SheetTemplate)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != len(model.SelectableFields()) {
		t.Fatalf("unexpected template rows: %v", rows)
	}

	// 模板回传后应被自动识别
	region := parser.NewHeaderDetector(nil, parser.DetectOptions{}).LocateHeader(parser.Grid(rows))
	if !region.Detected || region.Resolved != len(model.SelectableFields()) {
		t.Fatalf("template header not recognised: %+v", region)
	}
}

func TestRejectedRows(t *testing.T) {
	t.Parallel()

	row := model.NewStagedRow(7)
	row.Set(model.FieldItemName, "Cable")
	f, err := RejectedRows([]importer.Rejection{{Row: row, Reasons: []string{"currency", "price"}}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wb := reopen(t, f)

	rows, err := wb.GetRows(SheetRejected)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	last := len(rows[0]) - 1
	if rows[0][0] != "原表行号" || rows[0][last] != "失败原因" {
		t.Fatalf("header=%v", rows[0])
	}
	if rows[1][0] != "7" || rows[1][1+model.FieldItemName.Index()] != "Cable" || rows[1][last] != "currency, price" {
		t.Fatalf("data=%v", rows[1])
	}
}

func TestQuotationsAndMiscCosts(t *testing.T) {
	t.Parallel()

	p := 12.5
	f, err := Quotations([]model.Quotation{{ID: 3, ItemName: "Cable", UnitPrice: &p, Currency: "USD"}})
	if err != nil {
		t.Fatalf("export quotations: %v", err)
	}
	wb := reopen(t, f)
	v, _ := wb.GetCellValue(SheetQuotations, "A2")
	price, _ := wb.GetCellValue(SheetQuotations, columnName(2+model.FieldUnitPrice.Index())+"2")
	if v != "3" || price != "12.5" {
		t.Fatalf("id=%q price=%q", v, price)
	}

	f, err = MiscCosts([]model.MiscCost{{ID: 1, ProjectName: "Marina", Category: "Freight", Amount: 300, Currency: "SGD"}})
	if err != nil {
		t.Fatalf("export misc: %v", err)
	}
	wb = reopen(t, f)
	cat, _ := wb.GetCellValue(SheetMiscCosts, "C2")
	if cat != "Freight" {
		t.Fatalf("category=%q", cat)
	}
}
