package parser

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectHeader_BelowTitleRows(t *testing.T) {
	t.Parallel()

	grid := Grid{
		{"Quotation Sheet"},
		{},
		{"No", "Item", "Brand", "Qty", "Unit Price"},
		{"1", "Cable", "ABB", "10", "2.5"},
		{"2", "Switch", "Schneider", "4", "12"},
	}

	labels, end, ok := DetectHeader(grid, DetectOptions{MaxHeaderRows: 2, MaxSearchRows: 8})
	if !ok {
		t.Fatalf("expected header detected")
	}
	if end != 2 {
		t.Fatalf("header end row=%d want 2", end)
	}
	want := []string{"No", "Item", "Brand", "Qty", "Unit Price"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels=%v want %v", labels, want)
	}
}

func TestDetectHeader_TwoRowHeader(t *testing.T) {
	t.Parallel()

	grid := Grid{
		{"序号", "设备名称", "价格", ""},
		{"", "", "设备单价", "人工单价"},
		{"1", "Cable", "10", "2"},
	}

	cand, ok := NewHeaderDetector(nil, DetectOptions{}).Detect(grid)
	if !ok {
		t.Fatalf("expected header detected")
	}
	if cand.StartRow != 0 || cand.EndRow != 1 {
		t.Fatalf("span=[%d,%d] want [0,1]", cand.StartRow, cand.EndRow)
	}
	want := []string{"序号", "设备名称", "价格 设备单价", "人工单价"}
	if !reflect.DeepEqual(cand.Labels, want) {
		t.Fatalf("labels=%v want %v", cand.Labels, want)
	}
	if cand.Resolved != 4 || cand.NonEmpty != 4 {
		t.Fatalf("resolved=%d nonEmpty=%d", cand.Resolved, cand.NonEmpty)
	}
}

func TestDetectHeader_SearchWindow(t *testing.T) {
	t.Parallel()

	grid := Grid{{"1"}, {"2"}, {"3"}, {"Item", "Brand"}}
	if _, _, ok := DetectHeader(grid, DetectOptions{MaxHeaderRows: 1, MaxSearchRows: 3}); ok {
		t.Fatalf("header outside search window must not be detected")
	}
	if _, end, ok := DetectHeader(grid, DetectOptions{MaxHeaderRows: 1, MaxSearchRows: 4}); !ok || end != 3 {
		t.Fatalf("want end=3 ok, got end=%d ok=%v", end, ok)
	}
}

func TestHeaderCandidate_AcceptanceGate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		resolved, nonEmpty int
		want               bool
	}{
		{1, 1, true},
		{2, 100, true},
		{1, 3, true},
		{1, 4, false},
		{0, 0, false},
		{0, 1, false},
		{0, 10, false},
	}
	for _, tc := range cases {
		c := HeaderCandidate{Resolved: tc.resolved, NonEmpty: tc.nonEmpty}
		if got := c.Acceptable(); got != tc.want {
			t.Fatalf("resolved=%d nonEmpty=%d acceptable=%v want %v", tc.resolved, tc.nonEmpty, got, tc.want)
		}
	}
}

func TestDetectHeader_SingleResolvedLabelPasses(t *testing.T) {
	t.Parallel()

	if _, end, ok := DetectHeader(Grid{{"Item"}, {"Cable"}}, DetectOptions{}); !ok || end != 0 {
		t.Fatalf("want detected at row 0, got end=%d ok=%v", end, ok)
	}
}

func TestDetectHeader_NoResolvedNeverPasses(t *testing.T) {
	t.Parallel()

	grid := Grid{
		{"1", "2", "3"},
		{"4", "5", "6"},
	}
	if _, _, ok := DetectHeader(grid, DetectOptions{}); ok {
		t.Fatalf("grid without resolvable labels must not yield a header")
	}
}

func TestDetectHeader_EmptyGrid(t *testing.T) {
	t.Parallel()

	labels, end, ok := DetectHeader(nil, DetectOptions{})
	if ok || labels != nil || end != -1 {
		t.Fatalf("empty grid: labels=%v end=%d ok=%v", labels, end, ok)
	}

	region := NewHeaderDetector(nil, DetectOptions{}).LocateHeader(nil)
	if region.Detected || len(region.Columns) != 0 || region.DataStart() != 0 {
		t.Fatalf("unexpected region for empty grid: %+v", region)
	}
}

func TestLocateHeader_FallbackToFirstRow(t *testing.T) {
	t.Parallel()

	grid := Grid{
		{"1", "2"},
		{"3", "4"},
	}
	region := NewHeaderDetector(nil, DetectOptions{}).LocateHeader(grid)
	if region.Detected {
		t.Fatalf("should not be detected")
	}
	if region.EndRow != 0 || region.DataStart() != 1 {
		t.Fatalf("fallback must use first row, got end=%d", region.EndRow)
	}
	if !reflect.DeepEqual(region.Columns, []string{"1", "2"}) {
		t.Fatalf("columns=%v", region.Columns)
	}
}

func TestLocateHeader_PadsToDataWidth(t *testing.T) {
	t.Parallel()

	grid := Grid{
		{"Item", "Brand"},
		{"Cable", "ABB", "extra"},
	}
	region := NewHeaderDetector(nil, DetectOptions{MaxHeaderRows: 1}).LocateHeader(grid)
	want := []string{"Item", "Brand", "Unnamed_2"}
	if !reflect.DeepEqual(region.Columns, want) {
		t.Fatalf("columns=%v want %v", region.Columns, want)
	}
}

func TestAlignHeaders(t *testing.T) {
	t.Parallel()

	got := AlignHeaders([]string{"Qty", "", "Qty", "Qty.1"}, 5)
	want := []string{"Qty", "Unnamed_1", "Qty.1", "Qty.1.1", "Unnamed_4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	got = AlignHeaders([]string{"A", "B", "C"}, 2)
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("truncate: got %v", got)
	}
}

func TestReadGrid(t *testing.T) {
	t.Parallel()

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]interface{}{
		{"报价单"},
		{"设备名称", "品牌", "数量"},
		{"电缆", "ABB", 10},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := wb.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	grid, name, err := ReadGrid(bytes.NewReader(buf.Bytes()), "")
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if name != sheet {
		t.Fatalf("sheet=%s want %s", name, sheet)
	}
	if len(grid) != 3 || grid.Cell(2, 2) != "10" || grid.Cell(1, 0) != "设备名称" {
		t.Fatalf("unexpected grid: %v", grid)
	}

	if _, end, ok := DetectHeader(grid, DetectOptions{}); !ok || end != 1 {
		t.Fatalf("header end=%d ok=%v want 1", end, ok)
	}
}

func TestGridFromValues(t *testing.T) {
	t.Parallel()

	g := GridFromValues([][]any{{"Qty", nil, 3.0, 2.5, true}})
	want := Grid{{"Qty", "", "3", "2.5", "true"}}
	if !reflect.DeepEqual(g, want) {
		t.Fatalf("got %v want %v", g, want)
	}
}
