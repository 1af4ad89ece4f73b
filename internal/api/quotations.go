package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/exporter"
	"quotedesk/internal/model"
	"quotedesk/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxExportRows   = 10000
)

type listQuotationsResponse struct {
	Items    []model.Quotation `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// parseQuotationQuery 解析查询参数；非管理员只能查本区域
func parseQuotationQuery(c *gin.Context) (store.QuotationQuery, bool) {
	id := identityOf(c)
	q := store.QuotationQuery{
		Keyword:      c.Query("keyword"),
		ProjectName:  c.Query("project"),
		SupplierName: c.Query("supplier"),
		Brand:        c.Query("brand"),
		Currency:     c.Query("currency"),
		Region:       scopedRegion(id, c.Query("region")),
	}

	if raw := strings.TrimSpace(c.Query("fields")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			f, ok := model.ParseField(strings.TrimSpace(name))
			if !ok {
				errorResponse(c, http.StatusBadRequest, CodeBadRequest, "未知的检索字段: "+name)
				return q, false
			}
			q.SearchFields = append(q.SearchFields, f)
		}
	}
	return q, true
}

// SearchQuotations 查询报价
// GET /api/quotations
func (h *Handler) SearchQuotations(c *gin.Context) {
	q, ok := parseQuotationQuery(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize

	items, total, err := h.store.SearchQuotations(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, listQuotationsResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// ExportQuotations 导出查询结果
// GET /api/quotations/export
func (h *Handler) ExportQuotations(c *gin.Context) {
	q, ok := parseQuotationQuery(c)
	if !ok {
		return
	}
	q.Limit = maxExportRows

	items, _, err := h.store.SearchQuotations(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	f, err := exporter.Quotations(items)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := exporter.Bytes(f)
	if err != nil {
		fail(c, err)
		return
	}
	sendXLSX(c, "quotations.xlsx", exporter.SheetQuotations+".xlsx", data)
}

type deleteQuotationsRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteQuotations 管理员删除报价（删除前尽力归档）
// DELETE /api/quotations
func (h *Handler) DeleteQuotations(c *gin.Context) {
	id, ok := requireAdmin(c)
	if !ok {
		return
	}

	var req deleteQuotationsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "请指定要删除的记录")
		return
	}

	report, err := h.store.DeleteQuotations(c.Request.Context(), req.IDs, id.Username)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, report)
}
