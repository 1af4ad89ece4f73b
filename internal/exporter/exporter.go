package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"quotedesk/internal/importer"
	"quotedesk/internal/model"
)

const (
	SheetTemplate   = "报价导入模板"
	SheetRejected   = "未通过校验"
	SheetQuotations = "设备查询结果"
	SheetMiscCosts  = "杂费"
)

// Template 导入模板：可映射字段的中文表头
func Template() (*excelize.File, error) {
	fields := model.SelectableFields()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Label()
	}

	f, err := newSheet(SheetTemplate, headers)
	if err != nil {
		return nil, err
	}
	f.SetColWidth(SheetTemplate, "A", columnName(len(headers)), 16)
	return f, nil
}

// RejectedRows 导出未通过校验的行，附原表行号与失败原因
func RejectedRows(rejections []importer.Rejection) (*excelize.File, error) {
	fields := model.Fields()
	headers := make([]string, 0, len(fields)+2)
	headers = append(headers, "原表行号")
	for _, fd := range fields {
		headers = append(headers, fd.Label())
	}
	headers = append(headers, "失败原因")

	f, err := newSheet(SheetRejected, headers)
	if err != nil {
		return nil, err
	}

	for i, rj := range rejections {
		values := make([]any, 0, len(headers))
		values = append(values, rj.Row.SourceRow)
		for _, fd := range fields {
			values = append(values, rj.Row.Get(fd))
		}
		values = append(values, strings.Join(rj.Reasons, ", "))
		if err := writeRow(f, SheetRejected, i+2, values); err != nil {
			return nil, err
		}
	}

	last := columnName(len(headers))
	f.SetColWidth(SheetRejected, "B", columnName(len(headers)-1), 15)
	f.SetColWidth(SheetRejected, last, last, 40)
	return f, nil
}

// Quotations 导出报价查询结果
func Quotations(rows []model.Quotation) (*excelize.File, error) {
	fields := model.Fields()
	headers := make([]string, 0, len(fields)+1)
	headers = append(headers, "ID")
	for _, fd := range fields {
		headers = append(headers, fd.Label())
	}

	f, err := newSheet(SheetQuotations, headers)
	if err != nil {
		return nil, err
	}

	for i, q := range rows {
		values := make([]any, 0, len(headers))
		values = append(values, q.ID)
		for _, fd := range fields {
			values = append(values, q.Value(fd))
		}
		if err := writeRow(f, SheetQuotations, i+2, values); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(SheetQuotations, "B", columnName(len(headers)), 15)
	return f, nil
}

// MiscCosts 导出项目杂费
func MiscCosts(rows []model.MiscCost) (*excelize.File, error) {
	headers := []string{"ID", "项目名称", "费用类别", "金额", "币种", "录入人", "地区"}
	f, err := newSheet(SheetMiscCosts, headers)
	if err != nil {
		return nil, err
	}
	for i, m := range rows {
		values := []any{m.ID, m.ProjectName, m.Category, m.Amount, m.Currency, m.EnteredBy, m.Region}
		if err := writeRow(f, SheetMiscCosts, i+2, values); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(SheetMiscCosts, "B", "C", 24)
	return f, nil
}

// Bytes 将工作簿写入内存
func Bytes(f *excelize.File) ([]byte, error) {
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newSheet(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		f.Close()
		return nil, err
	}

	// 设置表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetRowStyle(sheet, 1, 1, headerStyle)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
