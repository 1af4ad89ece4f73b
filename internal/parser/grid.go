package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid 原始表格：不假定任何一行为表头，空字符串即空单元格
type Grid [][]string

// Cell 取单元格，越界返回空
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// widthFrom 从指定行开始的最大列数；没有数据行时返回 false
func (g Grid) widthFrom(start int) (int, bool) {
	if start < 0 || start >= len(g) {
		return 0, false
	}
	width := 0
	for _, row := range g[start:] {
		if len(row) > width {
			width = len(row)
		}
	}
	return width, true
}

// RowBlank 整行是否为空
func (g Grid) RowBlank(row int) bool {
	if row < 0 || row >= len(g) {
		return true
	}
	for _, v := range g[row] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadGrid 读取 xlsx 的一个 Sheet（sheet 为空时取第一个）
func ReadGrid(r io.Reader, sheet string) (Grid, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return Grid(rows), sheet, nil
}

// GridFromValues 将 JSON 解码得到的混合类型二维数组转为 Grid
func GridFromValues(values [][]any) Grid {
	g := make(Grid, len(values))
	for i, row := range values {
		g[i] = make([]string, len(row))
		for j, v := range row {
			g[i][j] = CellText(v)
		}
	}
	return g
}

// CellText 单元格值转文本，nil 为空
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
