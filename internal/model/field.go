package model

// Field 报价明细的规范字段
type Field string

const (
	FieldSeqNo             Field = "seq_no"
	FieldItemName          Field = "item_name"
	FieldSpecModel         Field = "spec_model"
	FieldDescription       Field = "description"
	FieldBrand             Field = "brand"
	FieldUnit              Field = "unit"
	FieldQuantity          Field = "quantity"
	FieldQuoteBrand        Field = "quote_brand"
	FieldModel             Field = "model"
	FieldUnitPrice         Field = "unit_price"
	FieldSubtotal          Field = "subtotal"
	FieldLaborUnitPrice    Field = "labor_unit_price"
	FieldLaborSubtotal     Field = "labor_subtotal"
	FieldCombinedUnitPrice Field = "combined_unit_price"
	FieldCurrency          Field = "currency"
	FieldWarrantyPeriod    Field = "warranty_period"
	FieldLeadTime          Field = "lead_time"
	FieldRemarks           Field = "remarks"
	FieldEnquirer          Field = "enquirer"
	FieldProjectName       Field = "project_name"
	FieldSupplierName      Field = "supplier_name"
	FieldEnquiryDate       Field = "enquiry_date"
	FieldEnteredBy         Field = "entered_by"
	FieldRegion            Field = "region"
)

// FieldKind 字段值类型
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDate
)

// FieldSpec 字段定义
type FieldSpec struct {
	Field Field
	Label string // 模板表头（中文）
	Kind  FieldKind
}

// fieldSpecs 存储列顺序
var fieldSpecs = []FieldSpec{
	{FieldSeqNo, "序号", KindText},
	{FieldItemName, "设备材料名称", KindText},
	{FieldSpecModel, "规格或型号", KindText},
	{FieldDescription, "描述", KindText},
	{FieldBrand, "品牌", KindText},
	{FieldUnit, "单位", KindText},
	{FieldQuantity, "数量确认", KindNumber},
	{FieldQuoteBrand, "报价品牌", KindText},
	{FieldModel, "型号", KindText},
	{FieldUnitPrice, "设备单价", KindNumber},
	{FieldSubtotal, "设备小计", KindNumber},
	{FieldLaborUnitPrice, "人工包干单价", KindNumber},
	{FieldLaborSubtotal, "人工包干小计", KindNumber},
	{FieldCombinedUnitPrice, "综合单价汇总", KindNumber},
	{FieldCurrency, "币种", KindText},
	{FieldWarrantyPeriod, "原厂品牌维保期限", KindText},
	{FieldLeadTime, "货期", KindText},
	{FieldRemarks, "备注", KindText},
	{FieldEnquirer, "询价人", KindText},
	{FieldProjectName, "项目名称", KindText},
	{FieldSupplierName, "供应商名称", KindText},
	{FieldEnquiryDate, "询价日期", KindDate},
	{FieldEnteredBy, "录入人", KindText},
	{FieldRegion, "地区", KindText},
}

var fieldIndex = func() map[Field]int {
	m := make(map[Field]int, len(fieldSpecs))
	for i, s := range fieldSpecs {
		m[s.Field] = i
	}
	return m
}()

// NumFields 规范字段数量
const NumFields = 24

// Fields 返回全部规范字段（存储顺序）
func Fields() []Field {
	out := make([]Field, len(fieldSpecs))
	for i, s := range fieldSpecs {
		out[i] = s.Field
	}
	return out
}

// SelectableFields 可由用户映射的字段（录入人/地区由调用方注入）
func SelectableFields() []Field {
	out := make([]Field, 0, len(fieldSpecs))
	for _, s := range fieldSpecs {
		if s.Field.Injected() {
			continue
		}
		out = append(out, s.Field)
	}
	return out
}

// ParseField 校验字段名
func ParseField(s string) (Field, bool) {
	f := Field(s)
	_, ok := fieldIndex[f]
	return f, ok
}

// Index 字段在存储顺序中的位置，未知字段返回 -1
func (f Field) Index() int {
	if i, ok := fieldIndex[f]; ok {
		return i
	}
	return -1
}

// Spec 字段定义
func (f Field) Spec() FieldSpec {
	if i, ok := fieldIndex[f]; ok {
		return fieldSpecs[i]
	}
	return FieldSpec{Field: f, Label: string(f)}
}

// Column 存储列名
func (f Field) Column() string {
	return string(f)
}

// Label 中文表头
func (f Field) Label() string {
	return f.Spec().Label
}

// Injected 是否由调用上下文注入（不来源于文件）
func (f Field) Injected() bool {
	return f == FieldEnteredBy || f == FieldRegion
}

// Selectable 是否可作为映射目标
func (f Field) Selectable() bool {
	return f.Index() >= 0 && !f.Injected()
}
