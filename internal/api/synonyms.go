package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/model"
	"quotedesk/internal/parser"
	"quotedesk/internal/store"
)

type synonymView struct {
	Alias   string      `json:"alias"`
	Field   model.Field `json:"field"`
	Label   string      `json:"label"`
	Builtin bool        `json:"builtin"`
}

// ListSynonyms 列出自定义与内置表头别名
// GET /api/synonyms
func (h *Handler) ListSynonyms(c *gin.Context) {
	custom, err := h.store.ListHeaderSynonyms(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]synonymView, 0, len(custom))
	for _, s := range custom {
		f := model.Field(s.Field)
		items = append(items, synonymView{Alias: s.Alias, Field: f, Label: f.Label()})
	}
	for _, s := range parser.DefaultSynonyms() {
		items = append(items, synonymView{Alias: s.Alias, Field: s.Field, Label: s.Field.Label(), Builtin: true})
	}
	success(c, gin.H{"items": items})
}

type synonymRequest struct {
	Alias string `json:"alias"`
	Field string `json:"field"`
}

// UpsertSynonym 新增或修改自定义别名（管理员）
// POST /api/synonyms
func (h *Handler) UpsertSynonym(c *gin.Context) {
	id, ok := requireAdmin(c)
	if !ok {
		return
	}

	var req synonymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的请求参数")
		return
	}
	alias := strings.TrimSpace(req.Alias)
	f, known := model.ParseField(strings.TrimSpace(req.Field))
	if alias == "" || !known || !f.Selectable() {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "别名不能为空且字段必须可映射")
		return
	}

	ctx := c.Request.Context()
	if err := h.store.UpsertHeaderSynonym(ctx, store.HeaderSynonym{Alias: alias, Field: string(f), CreatedBy: id.Username}); err != nil {
		fail(c, err)
		return
	}
	if err := h.imports.ReloadSynonyms(ctx); err != nil {
		fail(c, err)
		return
	}
	success(c, synonymView{Alias: alias, Field: f, Label: f.Label()})
}

// DeleteSynonym 删除自定义别名（管理员）
// DELETE /api/synonyms/:alias
func (h *Handler) DeleteSynonym(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.store.DeleteHeaderSynonym(ctx, c.Param("alias")); err != nil {
		fail(c, err)
		return
	}
	if err := h.imports.ReloadSynonyms(ctx); err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"alias": c.Param("alias"), "deleted": true})
}
