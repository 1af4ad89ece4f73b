package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/exporter"
	"quotedesk/internal/model"
	"quotedesk/internal/store"
)

type miscCostRequest struct {
	ProjectName string  `json:"projectName"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// CreateMiscCost 新增项目杂费，录入人与区域取自调用方
// POST /api/misc-costs
func (h *Handler) CreateMiscCost(c *gin.Context) {
	var req miscCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的请求参数")
		return
	}
	if strings.TrimSpace(req.ProjectName) == "" || strings.TrimSpace(req.Category) == "" {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "项目名称与费用类别不能为空")
		return
	}

	id := identityOf(c)
	m := &model.MiscCost{
		ProjectName: strings.TrimSpace(req.ProjectName),
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Currency:    strings.TrimSpace(req.Currency),
		EnteredBy:   id.Username,
		Region:      id.Region,
	}
	if err := h.store.InsertMiscCost(c.Request.Context(), m); err != nil {
		fail(c, err)
		return
	}
	success(c, m)
}

func (h *Handler) searchMiscCosts(c *gin.Context) ([]model.MiscCost, error) {
	return h.store.SearchMiscCosts(c.Request.Context(), store.MiscCostQuery{
		ProjectName: c.Query("project"),
		Region:      scopedRegion(identityOf(c), c.Query("region")),
	})
}

// ListMiscCosts 查询项目杂费
// GET /api/misc-costs
func (h *Handler) ListMiscCosts(c *gin.Context) {
	items, err := h.searchMiscCosts(c)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"items": items, "total": len(items)})
}

// ExportMiscCosts 导出项目杂费
// GET /api/misc-costs/export
func (h *Handler) ExportMiscCosts(c *gin.Context) {
	items, err := h.searchMiscCosts(c)
	if err != nil {
		fail(c, err)
		return
	}
	f, err := exporter.MiscCosts(items)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := exporter.Bytes(f)
	if err != nil {
		fail(c, err)
		return
	}
	sendXLSX(c, "misc-costs.xlsx", exporter.SheetMiscCosts+".xlsx", data)
}
