package model

import (
	"strconv"
	"strings"
	"time"
)

// StagedRow 映射后、校验前的一行数据
type StagedRow struct {
	SourceRow int       `json:"sourceRow"` // 原表格行号（从 1 开始）
	Cells     []*string `json:"cells"`     // 按存储顺序，nil 表示未映射
}

// NewStagedRow 创建空行
func NewStagedRow(sourceRow int) StagedRow {
	return StagedRow{SourceRow: sourceRow, Cells: make([]*string, NumFields)}
}

// Get 返回字段值（未映射为空字符串）
func (r StagedRow) Get(f Field) string {
	i := f.Index()
	if i < 0 || i >= len(r.Cells) || r.Cells[i] == nil {
		return ""
	}
	return *r.Cells[i]
}

// Set 设置字段值
func (r *StagedRow) Set(f Field, v string) {
	i := f.Index()
	if i < 0 {
		return
	}
	if len(r.Cells) < NumFields {
		cells := make([]*string, NumFields)
		copy(cells, r.Cells)
		r.Cells = cells
	}
	r.Cells[i] = &v
}

// IsEmpty 字段值是否为空（空白、"nan"、"none" 视为空）
func (r StagedRow) IsEmpty(f Field) bool {
	return IsBlank(r.Get(f))
}

// Clone 深拷贝
func (r StagedRow) Clone() StagedRow {
	out := NewStagedRow(r.SourceRow)
	for i, c := range r.Cells {
		if c != nil && i < NumFields {
			v := *c
			out.Cells[i] = &v
		}
	}
	return out
}

// Key 行内容键（用于去重，不含来源行号）
func (r StagedRow) Key() string {
	var b strings.Builder
	for i := 0; i < NumFields; i++ {
		if i < len(r.Cells) && r.Cells[i] != nil {
			b.WriteString(strings.TrimSpace(*r.Cells[i]))
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// IsBlank 判断单元格是否为空值
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "none":
		return true
	}
	return false
}

// ParseNumber 解析数值（允许千分位）
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "，", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Identity 调用方身份（由传输层注入）
type Identity struct {
	Username string `json:"username"`
	Region   string `json:"region"`
	Role     string `json:"role"`
}

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

// IsAdmin 是否管理员
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Quotation 已入库的报价记录
type Quotation struct {
	ID                int64    `json:"id"`
	SeqNo             string   `json:"seqNo"`
	ItemName          string   `json:"itemName"`
	SpecModel         string   `json:"specModel"`
	Description       string   `json:"description"`
	Brand             string   `json:"brand"`
	Unit              string   `json:"unit"`
	Quantity          *float64 `json:"quantity"`
	QuoteBrand        string   `json:"quoteBrand"`
	Model             string   `json:"model"`
	UnitPrice         *float64 `json:"unitPrice"`
	Subtotal          *float64 `json:"subtotal"`
	LaborUnitPrice    *float64 `json:"laborUnitPrice"`
	LaborSubtotal     *float64 `json:"laborSubtotal"`
	CombinedUnitPrice *float64 `json:"combinedUnitPrice"`
	Currency          string   `json:"currency"`
	WarrantyPeriod    string   `json:"warrantyPeriod"`
	LeadTime          string   `json:"leadTime"`
	Remarks           string   `json:"remarks"`
	Enquirer          string   `json:"enquirer"`
	ProjectName       string   `json:"projectName"`
	SupplierName      string   `json:"supplierName"`
	EnquiryDate       string   `json:"enquiryDate"`
	EnteredBy         string   `json:"enteredBy"`
	Region            string   `json:"region"`

	ImportID  string    `json:"importId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// InvalidNumbers 返回非空但无法解析为数值的字段
func (r StagedRow) InvalidNumbers() []Field {
	var out []Field
	for _, s := range fieldSpecs {
		if s.Kind != KindNumber || r.IsEmpty(s.Field) {
			continue
		}
		if _, ok := ParseNumber(r.Get(s.Field)); !ok {
			out = append(out, s.Field)
		}
	}
	return out
}

// ToQuotation 转换为入库记录（数值字段解析失败时为 nil）
func (r StagedRow) ToQuotation() Quotation {
	text := func(f Field) string {
		if r.IsEmpty(f) {
			return ""
		}
		return strings.TrimSpace(r.Get(f))
	}
	num := func(f Field) *float64 {
		if r.IsEmpty(f) {
			return nil
		}
		v, ok := ParseNumber(r.Get(f))
		if !ok {
			return nil
		}
		return &v
	}

	return Quotation{
		SeqNo:             text(FieldSeqNo),
		ItemName:          text(FieldItemName),
		SpecModel:         text(FieldSpecModel),
		Description:       text(FieldDescription),
		Brand:             text(FieldBrand),
		Unit:              text(FieldUnit),
		Quantity:          num(FieldQuantity),
		QuoteBrand:        text(FieldQuoteBrand),
		Model:             text(FieldModel),
		UnitPrice:         num(FieldUnitPrice),
		Subtotal:          num(FieldSubtotal),
		LaborUnitPrice:    num(FieldLaborUnitPrice),
		LaborSubtotal:     num(FieldLaborSubtotal),
		CombinedUnitPrice: num(FieldCombinedUnitPrice),
		Currency:          text(FieldCurrency),
		WarrantyPeriod:    text(FieldWarrantyPeriod),
		LeadTime:          text(FieldLeadTime),
		Remarks:           text(FieldRemarks),
		Enquirer:          text(FieldEnquirer),
		ProjectName:       text(FieldProjectName),
		SupplierName:      text(FieldSupplierName),
		EnquiryDate:       text(FieldEnquiryDate),
		EnteredBy:         text(FieldEnteredBy),
		Region:            text(FieldRegion),
	}
}

// MiscCost 项目杂费
type MiscCost struct {
	ID          int64     `json:"id"`
	ProjectName string    `json:"projectName"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	EnteredBy   string    `json:"enteredBy"`
	Region      string    `json:"region"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FieldPtr 字段对应的成员指针：文本字段为 *string，数值字段为 **float64
func (q *Quotation) FieldPtr(f Field) any {
	switch f {
	case FieldSeqNo:
		return &q.SeqNo
	case FieldItemName:
		return &q.ItemName
	case FieldSpecModel:
		return &q.SpecModel
	case FieldDescription:
		return &q.Description
	case FieldBrand:
		return &q.Brand
	case FieldUnit:
		return &q.Unit
	case FieldQuantity:
		return &q.Quantity
	case FieldQuoteBrand:
		return &q.QuoteBrand
	case FieldModel:
		return &q.Model
	case FieldUnitPrice:
		return &q.UnitPrice
	case FieldSubtotal:
		return &q.Subtotal
	case FieldLaborUnitPrice:
		return &q.LaborUnitPrice
	case FieldLaborSubtotal:
		return &q.LaborSubtotal
	case FieldCombinedUnitPrice:
		return &q.CombinedUnitPrice
	case FieldCurrency:
		return &q.Currency
	case FieldWarrantyPeriod:
		return &q.WarrantyPeriod
	case FieldLeadTime:
		return &q.LeadTime
	case FieldRemarks:
		return &q.Remarks
	case FieldEnquirer:
		return &q.Enquirer
	case FieldProjectName:
		return &q.ProjectName
	case FieldSupplierName:
		return &q.SupplierName
	case FieldEnquiryDate:
		return &q.EnquiryDate
	case FieldEnteredBy:
		return &q.EnteredBy
	case FieldRegion:
		return &q.Region
	}
	return nil
}

// Value 按规范字段取值（数值字段为空时返回 nil）
func (q Quotation) Value(f Field) any {
	switch p := q.FieldPtr(f).(type) {
	case *string:
		return *p
	case **float64:
		if *p == nil {
			return nil
		}
		return **p
	}
	return nil
}
