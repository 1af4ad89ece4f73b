package importer

import (
	"fmt"
	"sort"

	"quotedesk/internal/model"
	"quotedesk/internal/parser"
)

// Mapping 源列名 -> 规范字段，空字段表示忽略
type Mapping map[string]model.Field

// ColumnSuggestion 单列的默认映射建议
type ColumnSuggestion struct {
	Column   string      `json:"column"`
	Field    model.Field `json:"field"`    // 建议目标，空为忽略
	Resolved model.Field `json:"resolved"` // 解析器原始结果（可能是不可选字段）
}

// SuggestMapping 对每列运行解析器给出默认映射；未命中或命中注入字段时为忽略
func SuggestMapping(resolver *parser.Resolver, columns []string) []ColumnSuggestion {
	if resolver == nil {
		resolver = parser.DefaultResolver()
	}
	out := make([]ColumnSuggestion, len(columns))
	for i, col := range columns {
		out[i] = ColumnSuggestion{Column: col}
		f, ok := resolver.Resolve(col)
		if !ok {
			continue
		}
		out[i].Resolved = f
		if f.Selectable() {
			out[i].Field = f
		}
	}
	return out
}

// SuggestionMapping 将建议转为 Mapping
func SuggestionMapping(suggestions []ColumnSuggestion) Mapping {
	m := make(Mapping, len(suggestions))
	for _, s := range suggestions {
		m[s.Column] = s.Field
	}
	return m
}

// MappingInput 映射确认的输入
type MappingInput struct {
	Columns  []string    // 对齐、去重后的列名
	Rows     parser.Grid // 表头以下的数据行
	RowBase  int         // Rows[0] 在原表中的下标
	Mapping  Mapping     // 未出现的列视为忽略
	Identity model.Identity
}

// MappingResult 映射确认结果
type MappingResult struct {
	Sources  map[model.Field]string `json:"sources"` // 字段 -> 唯一源列
	Warnings []Warning              `json:"warnings"`
	Staged   []model.StagedRow      `json:"staged"`
}

// ConfirmMapping 校验映射并生成待校验行
//
// 同一字段指定多个源列时返回 *MappingConflictError，列出所有冲突；
// 源列全为空值时给出 mapped_but_empty 警告，不阻断。
func ConfirmMapping(in MappingInput) (*MappingResult, error) {
	colIndex := make(map[string]int, len(in.Columns))
	for i, c := range in.Columns {
		colIndex[c] = i
	}

	groups := make(map[model.Field][]string)
	for label, f := range in.Mapping {
		if _, ok := colIndex[label]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidMapping, label)
		}
		if f == "" {
			continue
		}
		if !f.Selectable() {
			return nil, fmt.Errorf("%w: field %q is not selectable", ErrInvalidMapping, f)
		}
		groups[f] = append(groups[f], label)
	}

	var conflicts []FieldConflict
	for f, sources := range groups {
		if len(sources) > 1 {
			sort.Slice(sources, func(i, j int) bool { return colIndex[sources[i]] < colIndex[sources[j]] })
			conflicts = append(conflicts, FieldConflict{Field: f, Sources: sources})
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Field.Index() < conflicts[j].Field.Index() })
		return nil, &MappingConflictError{Conflicts: conflicts}
	}

	res := &MappingResult{
		Sources:  make(map[model.Field]string, len(groups)),
		Warnings: []Warning{},
		Staged:   []model.StagedRow{},
	}
	for f, sources := range groups {
		res.Sources[f] = sources[0]
	}

	for _, f := range model.Fields() {
		src, ok := res.Sources[f]
		if !ok {
			continue
		}
		if columnEmpty(in.Rows, colIndex[src]) {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnMappedButEmpty,
				Field:   f,
				Message: fmt.Sprintf("column %q mapped to %s has no values", src, f),
			})
		}
	}

	for i := range in.Rows {
		if in.Rows.RowBlank(i) {
			continue
		}
		row := model.NewStagedRow(in.RowBase + i + 1)
		for f, src := range res.Sources {
			row.Set(f, in.Rows.Cell(i, colIndex[src]))
		}
		row.Set(model.FieldEnteredBy, in.Identity.Username)
		row.Set(model.FieldRegion, in.Identity.Region)
		res.Staged = append(res.Staged, row)
	}
	return res, nil
}

func columnEmpty(rows parser.Grid, col int) bool {
	for i := range rows {
		if !model.IsBlank(rows.Cell(i, col)) {
			return false
		}
	}
	return true
}
