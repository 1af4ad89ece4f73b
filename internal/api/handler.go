package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/importer"
	"quotedesk/internal/store"
)

// Handler 报价导入 API 处理器
type Handler struct {
	store     *store.Store
	imports   *importer.Coordinator
	downloads *downloadStore

	archiveEnabled bool
	downloadTTL    time.Duration
	maxUploadBytes int64
	sessionBackend string
}

// Options 处理器参数
type Options struct {
	ArchiveEnabled bool
	DownloadTTL    time.Duration
	MaxUploadBytes int64
	SessionBackend string
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, imports *importer.Coordinator, opts Options) *Handler {
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 10 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	return &Handler{
		store:          st,
		imports:        imports,
		downloads:      newDownloadStore(),
		archiveEnabled: opts.ArchiveEnabled,
		downloadTTL:    opts.DownloadTTL,
		maxUploadBytes: opts.MaxUploadBytes,
		sessionBackend: opts.SessionBackend,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态与公共下载
	router.GET("/status", h.GetStatus)
	router.GET("/template", h.DownloadTemplate)
	router.GET("/export/download/:token", h.DownloadExport)

	authed := router.Group("", requireIdentity())

	// 导入会话
	authed.POST("/imports", h.BeginImport)
	authed.GET("/imports/:id", h.GetImport)
	authed.DELETE("/imports/:id", h.DiscardImport)
	authed.POST("/imports/:id/mapping", h.ConfirmMapping)
	authed.POST("/imports/:id/globals", h.ApplyGlobals)
	authed.GET("/imports/:id/rejected", h.ExportRejected)
	authed.POST("/imports/:id/commit", h.CommitImport)

	// 报价查询与删除
	authed.GET("/quotations", h.SearchQuotations)
	authed.GET("/quotations/export", h.ExportQuotations)
	authed.DELETE("/quotations", h.DeleteQuotations)

	// 项目杂费
	authed.POST("/misc-costs", h.CreateMiscCost)
	authed.GET("/misc-costs", h.ListMiscCosts)
	authed.GET("/misc-costs/export", h.ExportMiscCosts)

	// 表头别名
	authed.GET("/synonyms", h.ListSynonyms)
	authed.POST("/synonyms", h.UpsertSynonym)
	authed.DELETE("/synonyms/:alias", h.DeleteSynonym)
}

// 响应码
const (
	CodeOK              = 0
	CodeBadRequest      = 1001
	CodeMappingConflict = 1002
	CodeMissingGlobals  = 1003
	CodeNotFound        = 1004
	CodeInvalidState    = 1005
	CodeUnauthorized    = 4001
	CodeForbidden       = 4003
	CodeStorage         = 5000
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
	})
}

// fail 将领域错误映射为响应码
func fail(c *gin.Context, err error) {
	var conflict *importer.MappingConflictError
	var missing *importer.MissingGlobalsError

	switch {
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusConflict, Response{
			Code:    CodeMappingConflict,
			Message: err.Error(),
			Data:    gin.H{"conflicts": conflict.Conflicts},
		})
	case errors.As(err, &missing):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{
			Code:    CodeMissingGlobals,
			Message: err.Error(),
			Data:    gin.H{"missing": missing.Fields},
		})
	case errors.Is(err, importer.ErrInvalidMapping):
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, importer.ErrSessionNotFound):
		errorResponse(c, http.StatusNotFound, CodeNotFound, "导入会话不存在或已过期")
	case errors.Is(err, importer.ErrInvalidState):
		errorResponse(c, http.StatusConflict, CodeInvalidState, err.Error())
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		errorResponse(c, http.StatusInternalServerError, CodeStorage, err.Error())
	}
}
