package parser

import "quotedesk/internal/model"

// Synonym 表头别名
type Synonym struct {
	Alias string
	Field model.Field
}

// defaultSynonyms 中英文常见表头别名；子串匹配时较长的别名优先
var defaultSynonyms = []Synonym{
	// 序号
	{"序号", model.FieldSeqNo},
	{"编号", model.FieldSeqNo},
	{"no", model.FieldSeqNo},
	{"no.", model.FieldSeqNo},
	{"index", model.FieldSeqNo},
	{"item no", model.FieldSeqNo},
	{"s/n", model.FieldSeqNo},

	// 设备材料名称
	{"设备材料名称", model.FieldItemName},
	{"设备名称", model.FieldItemName},
	{"材料名称", model.FieldItemName},
	{"名称", model.FieldItemName},
	{"item", model.FieldItemName},
	{"item name", model.FieldItemName},
	{"material", model.FieldItemName},
	{"equipment", model.FieldItemName},
	{"name", model.FieldItemName},

	// 规格或型号
	{"规格或型号", model.FieldSpecModel},
	{"规格型号", model.FieldSpecModel},
	{"规格", model.FieldSpecModel},
	{"spec", model.FieldSpecModel},
	{"specification", model.FieldSpecModel},
	{"model", model.FieldSpecModel},

	// 描述
	{"描述", model.FieldDescription},
	{"说明", model.FieldDescription},
	{"description", model.FieldDescription},
	{"desc", model.FieldDescription},

	// 品牌
	{"品牌", model.FieldBrand},
	{"brand", model.FieldBrand},
	{"make", model.FieldBrand},
	{"manufacturer", model.FieldBrand},

	// 单位
	{"单位", model.FieldUnit},
	{"unit", model.FieldUnit},
	{"uom", model.FieldUnit},

	// 数量确认
	{"数量确认", model.FieldQuantity},
	{"数量", model.FieldQuantity},
	{"qty", model.FieldQuantity},
	{"quantity", model.FieldQuantity},

	// 报价品牌
	{"报价品牌", model.FieldQuoteBrand},
	{"报价", model.FieldQuoteBrand},
	{"quote brand", model.FieldQuoteBrand},
	{"quoted brand", model.FieldQuoteBrand},
	{"offered brand", model.FieldQuoteBrand},

	// 型号
	{"型号", model.FieldModel},
	{"model no", model.FieldModel},
	{"model number", model.FieldModel},

	// 设备单价
	{"设备单价", model.FieldUnitPrice},
	{"报价单价", model.FieldUnitPrice},
	{"单价", model.FieldUnitPrice},
	{"unit price", model.FieldUnitPrice},
	{"price", model.FieldUnitPrice},

	// 设备小计
	{"设备小计", model.FieldSubtotal},
	{"报价总价", model.FieldSubtotal},
	{"总价", model.FieldSubtotal},
	{"小计", model.FieldSubtotal},
	{"subtotal", model.FieldSubtotal},
	{"sub total", model.FieldSubtotal},

	// 人工包干单价
	{"人工包干单价", model.FieldLaborUnitPrice},
	{"人工单价", model.FieldLaborUnitPrice},
	{"labor unit price", model.FieldLaborUnitPrice},
	{"labour unit price", model.FieldLaborUnitPrice},
	{"labor price", model.FieldLaborUnitPrice},
	{"installation price", model.FieldLaborUnitPrice},

	// 人工包干小计
	{"人工包干小计", model.FieldLaborSubtotal},
	{"人工小计", model.FieldLaborSubtotal},
	{"labor subtotal", model.FieldLaborSubtotal},
	{"labour subtotal", model.FieldLaborSubtotal},

	// 综合单价汇总
	{"综合单价汇总", model.FieldCombinedUnitPrice},
	{"综合单价", model.FieldCombinedUnitPrice},
	{"combined unit price", model.FieldCombinedUnitPrice},
	{"all-in unit price", model.FieldCombinedUnitPrice},

	// 币种
	{"币种", model.FieldCurrency},
	{"货币", model.FieldCurrency},
	{"currency", model.FieldCurrency},
	{"ccy", model.FieldCurrency},

	// 原厂品牌维保期限
	{"原厂品牌维保期限", model.FieldWarrantyPeriod},
	{"维保期限", model.FieldWarrantyPeriod},
	{"质保期", model.FieldWarrantyPeriod},
	{"warranty", model.FieldWarrantyPeriod},
	{"warranty period", model.FieldWarrantyPeriod},

	// 货期
	{"货期", model.FieldLeadTime},
	{"交货期", model.FieldLeadTime},
	{"lead time", model.FieldLeadTime},
	{"delivery time", model.FieldLeadTime},

	// 备注
	{"备注", model.FieldRemarks},
	{"remarks", model.FieldRemarks},
	{"remark", model.FieldRemarks},
	{"note", model.FieldRemarks},
	{"notes", model.FieldRemarks},

	// 询价人 / 项目 / 供应商 / 日期
	{"询价人", model.FieldEnquirer},
	{"enquirer", model.FieldEnquirer},
	{"inquirer", model.FieldEnquirer},
	{"项目名称", model.FieldProjectName},
	{"项目", model.FieldProjectName},
	{"project", model.FieldProjectName},
	{"project name", model.FieldProjectName},
	{"供应商名称", model.FieldSupplierName},
	{"供应商", model.FieldSupplierName},
	{"supplier", model.FieldSupplierName},
	{"supplier name", model.FieldSupplierName},
	{"vendor", model.FieldSupplierName},
	{"询价日期", model.FieldEnquiryDate},
	{"日期", model.FieldEnquiryDate},
	{"enquiry date", model.FieldEnquiryDate},
	{"inquiry date", model.FieldEnquiryDate},
	{"date", model.FieldEnquiryDate},

	// 注入字段（可解析，但不作为用户映射目标）
	{"录入人", model.FieldEnteredBy},
	{"entered by", model.FieldEnteredBy},
	{"地区", model.FieldRegion},
	{"region", model.FieldRegion},
}

// DefaultSynonyms 返回默认别名表的副本
func DefaultSynonyms() []Synonym {
	out := make([]Synonym, len(defaultSynonyms))
	copy(out, defaultSynonyms)
	return out
}
