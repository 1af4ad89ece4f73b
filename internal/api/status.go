package api

import (
	"github.com/gin-gonic/gin"
	"quotedesk/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Healthy          bool   `json:"healthy"`          // 数据库可用
	TotalQuotations  int    `json:"totalQuotations"`  // 报价总数
	ArchiveEnabled   bool   `json:"archiveEnabled"`   // 删除前是否归档
	ArchivedCount    int    `json:"archivedCount"`    // 已归档记录数
	SessionBackend   string `json:"sessionBackend"`   // 导入会话存储
	CustomSynonyms   int    `json:"customSynonyms"`   // 自定义别名数
	LastImportStatus string `json:"lastImportStatus"` // 最近一次导入状态
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatusResponse{
		ArchiveEnabled: h.archiveEnabled,
		SessionBackend: h.sessionBackend,
	}

	if err := h.store.Ping(ctx); err != nil {
		success(c, resp)
		return
	}
	resp.Healthy = true

	if _, total, err := h.store.SearchQuotations(ctx, store.QuotationQuery{Limit: 1}); err == nil {
		resp.TotalQuotations = total
	}
	if h.archiveEnabled {
		if n, err := h.store.CountArchived(ctx); err == nil {
			resp.ArchivedCount = n
		}
	}
	if syn, err := h.store.ListHeaderSynonyms(ctx); err == nil {
		resp.CustomSynonyms = len(syn)
	}
	if last, err := h.store.LatestImportLog(ctx); err == nil && last != nil {
		resp.LastImportStatus = last.Status
	}

	success(c, resp)
}
