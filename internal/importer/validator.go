package importer

import (
	"strings"

	"quotedesk/internal/model"
)

// Globals 批量补全值，只填充空单元格
type Globals struct {
	ProjectName  string `json:"projectName"`
	SupplierName string `json:"supplierName"`
	Enquirer     string `json:"enquirer"`
	EnquiryDate  string `json:"enquiryDate"`
	Currency     string `json:"currency"`
}

// Value 字段对应的补全值
func (g Globals) Value(f model.Field) string {
	switch f {
	case model.FieldProjectName:
		return g.ProjectName
	case model.FieldSupplierName:
		return g.SupplierName
	case model.FieldEnquirer:
		return g.Enquirer
	case model.FieldEnquiryDate:
		return g.EnquiryDate
	case model.FieldCurrency:
		return g.Currency
	}
	return ""
}

// 始终必填的补全字段
var baseGlobalFields = []model.Field{
	model.FieldProjectName,
	model.FieldSupplierName,
	model.FieldEnquirer,
	model.FieldEnquiryDate,
}

// globalFields 可补全的字段
var globalFields = append(append([]model.Field{}, baseGlobalFields...), model.FieldCurrency)

// 行级必填（价格另行校验）
var requiredRowFields = []model.Field{
	model.FieldProjectName,
	model.FieldSupplierName,
	model.FieldEnquirer,
	model.FieldItemName,
	model.FieldCurrency,
	model.FieldEnquiryDate,
}

// ReasonPrice 设备单价与人工单价均为空
const ReasonPrice = "price"

// CurrencyRequired 任一行币种为空时需要全局币种；没有行时同样视为需要
func CurrencyRequired(rows []model.StagedRow) bool {
	if len(rows) == 0 {
		return true
	}
	for _, r := range rows {
		if r.IsEmpty(model.FieldCurrency) {
			return true
		}
	}
	return false
}

// CheckGlobals 校验必填补全值，缺失时返回 *MissingGlobalsError
func CheckGlobals(g Globals, required []model.Field) error {
	var missing []model.Field
	for _, f := range required {
		if model.IsBlank(g.Value(f)) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingGlobalsError{Fields: missing}
	}
	return nil
}

// ApplyGlobals 逐格补全空值，返回新行集；重复执行结果不变
func ApplyGlobals(rows []model.StagedRow, g Globals) []model.StagedRow {
	out := make([]model.StagedRow, len(rows))
	for i, r := range rows {
		row := r.Clone()
		for _, f := range globalFields {
			v := strings.TrimSpace(g.Value(f))
			if model.IsBlank(v) || !row.IsEmpty(f) {
				continue
			}
			row.Set(f, v)
		}
		out[i] = row
	}
	return out
}

// Rejection 被拒绝的行及原因
type Rejection struct {
	Row     model.StagedRow `json:"row"`
	Reasons []string        `json:"reasons"`
}

// Outcome 校验结果
type Outcome struct {
	Accepted []model.StagedRow `json:"accepted"`
	Rejected []Rejection       `json:"rejected"`
}

// CheckRow 返回行未满足的约束，空表示通过
func CheckRow(r model.StagedRow) []string {
	var reasons []string
	for _, f := range requiredRowFields {
		if r.IsEmpty(f) {
			reasons = append(reasons, string(f))
		}
	}
	if r.IsEmpty(model.FieldUnitPrice) && r.IsEmpty(model.FieldLaborUnitPrice) {
		reasons = append(reasons, ReasonPrice)
	}
	for _, f := range r.InvalidNumbers() {
		reasons = append(reasons, "invalid:"+string(f))
	}
	return reasons
}

// ValidateRows 行级校验，失败行不影响其他行
func ValidateRows(rows []model.StagedRow) Outcome {
	out := Outcome{Accepted: []model.StagedRow{}, Rejected: []Rejection{}}
	for _, r := range rows {
		if reasons := CheckRow(r); len(reasons) > 0 {
			out.Rejected = append(out.Rejected, Rejection{Row: r, Reasons: reasons})
			continue
		}
		out.Accepted = append(out.Accepted, r)
	}
	return out
}

// rowBlank 除注入字段外全部为空
func rowBlank(r model.StagedRow) bool {
	for _, f := range model.SelectableFields() {
		if !r.IsEmpty(f) {
			return false
		}
	}
	return true
}

// prepareCommit 去掉空行并合并完全重复的行
func prepareCommit(rows []model.StagedRow) (kept []model.StagedRow, dropped, duplicates int) {
	seen := make(map[string]struct{}, len(rows))
	kept = make([]model.StagedRow, 0, len(rows))
	for _, r := range rows {
		if rowBlank(r) {
			dropped++
			continue
		}
		key := r.Key()
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept, dropped, duplicates
}
