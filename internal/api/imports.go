package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/exporter"
	"quotedesk/internal/importer"
	"quotedesk/internal/model"
	"quotedesk/internal/parser"
)

// rowView 行数据（只含非空字段）
type rowView struct {
	SourceRow int                    `json:"sourceRow"`
	Values    map[model.Field]string `json:"values"`
}

// rejectionView 被拒绝的行
type rejectionView struct {
	rowView
	Reasons []string `json:"reasons"`
}

// sessionView 导入会话响应
type sessionView struct {
	ID               string                      `json:"id"`
	State            importer.State              `json:"state"`
	Filename         string                      `json:"filename"`
	SheetName        string                      `json:"sheetName"`
	Header           parser.HeaderRegion         `json:"header"`
	Suggestions      []importer.ColumnSuggestion `json:"suggestions"`
	Mapping          importer.Mapping            `json:"mapping,omitempty"`
	Sources          map[model.Field]string      `json:"sources,omitempty"`
	StagedCount      int                         `json:"stagedCount"`
	CurrencyRequired bool                        `json:"currencyRequired"`
	RequiredGlobals  []model.Field               `json:"requiredGlobals"`
	Globals          *importer.Globals           `json:"globals,omitempty"`
	AcceptedCount    int                         `json:"acceptedCount"`
	Rejected         []rejectionView             `json:"rejected"`
	Warnings         []importer.Warning          `json:"warnings"`
}

func newRowView(r model.StagedRow) rowView {
	v := rowView{SourceRow: r.SourceRow, Values: map[model.Field]string{}}
	for _, f := range model.Fields() {
		if !r.IsEmpty(f) {
			v.Values[f] = r.Get(f)
		}
	}
	return v
}

func newRejectionViews(rs []importer.Rejection) []rejectionView {
	out := make([]rejectionView, len(rs))
	for i, r := range rs {
		out[i] = rejectionView{rowView: newRowView(r.Row), Reasons: r.Reasons}
	}
	return out
}

func newSessionView(s *importer.Session) sessionView {
	v := sessionView{
		ID:               s.ID,
		State:            s.State,
		Filename:         s.Filename,
		SheetName:        s.SheetName,
		Header:           s.Header,
		Suggestions:      s.Suggestions,
		Mapping:          s.Mapping,
		Sources:          s.Sources,
		StagedCount:      len(s.Staged),
		CurrencyRequired: s.CurrencyRequired,
		RequiredGlobals:  s.RequiredGlobals(),
		Globals:          s.Globals,
		Rejected:         []rejectionView{},
		Warnings:         s.Warnings,
	}
	if s.Outcome != nil {
		v.AcceptedCount = len(s.Outcome.Accepted)
		v.Rejected = newRejectionViews(s.Outcome.Rejected)
	}
	return v
}

// gridRequest JSON 方式上传的表格
type gridRequest struct {
	Filename  string  `json:"filename"`
	SheetName string  `json:"sheetName"`
	Grid      [][]any `json:"grid"`
}

// BeginImport 上传表格并检测表头
// POST /api/imports
func (h *Handler) BeginImport(c *gin.Context) {
	req := importer.BeginRequest{Identity: identityOf(c)}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			if bodyTooLarge(err) {
				errorResponse(c, http.StatusRequestEntityTooLarge, CodeBadRequest, "上传文件过大")
				return
			}
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, "未找到上传文件")
			return
		}
		file, err := fh.Open()
		if err != nil {
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, "读取上传文件失败")
			return
		}
		defer file.Close()

		grid, sheet, err := parser.ReadGrid(file, c.PostForm("sheet"))
		if err != nil {
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		req.Filename = fh.Filename
		req.SheetName = sheet
		req.Grid = grid
	} else {
		var body gridRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			if bodyTooLarge(err) {
				errorResponse(c, http.StatusRequestEntityTooLarge, CodeBadRequest, "上传表格过大")
				return
			}
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的请求参数")
			return
		}
		req.Filename = body.Filename
		req.SheetName = body.SheetName
		req.Grid = parser.GridFromValues(body.Grid)
	}

	s, err := h.imports.Begin(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, newSessionView(s))
}

func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// GetImport 查询导入会话
// GET /api/imports/:id
func (h *Handler) GetImport(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}
	success(c, newSessionView(s))
}

// DiscardImport 放弃导入会话
// DELETE /api/imports/:id
func (h *Handler) DiscardImport(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if err := h.imports.Discard(c.Request.Context(), s.ID); err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"id": s.ID, "discarded": true})
}

type mappingRequest struct {
	// 为空时采用自动建议
	Assignments importer.Mapping `json:"assignments"`
}

// ConfirmMapping 确认列映射
// POST /api/imports/:id/mapping
func (h *Handler) ConfirmMapping(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的请求参数")
		return
	}
	mapping := req.Assignments
	if len(mapping) == 0 {
		mapping = importer.SuggestionMapping(s.Suggestions)
	}

	s, err := h.imports.ConfirmMapping(c.Request.Context(), s.ID, mapping)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, newSessionView(s))
}

// ApplyGlobals 提交补全值并校验
// POST /api/imports/:id/globals
func (h *Handler) ApplyGlobals(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var g importer.Globals
	if err := c.ShouldBindJSON(&g); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的请求参数")
		return
	}

	s, err := h.imports.ApplyGlobals(c.Request.Context(), s.ID, g)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, newSessionView(s))
}

// ExportRejected 导出未通过校验的行
// GET /api/imports/:id/rejected
func (h *Handler) ExportRejected(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if s.Outcome == nil {
		fail(c, fmt.Errorf("%w: session %s is not validated", importer.ErrInvalidState, s.ID))
		return
	}

	data, err := rejectedWorkbook(s.Outcome.Rejected)
	if err != nil {
		fail(c, err)
		return
	}
	sendXLSX(c, "rejected-rows.xlsx", exporter.SheetRejected+".xlsx", data)
}

// commitResponse 入库响应
type commitResponse struct {
	SessionID   string             `json:"sessionId"`
	Expected    int                `json:"expected"`
	Committed   int64              `json:"committed"`
	Duplicates  int                `json:"duplicates"`
	Dropped     int                `json:"dropped"`
	Rejected    []rejectionView    `json:"rejected"`
	Warnings    []importer.Warning `json:"warnings"`
	RejectedURL string             `json:"rejectedUrl,omitempty"` // 未通过行的一次性下载地址
}

// CommitImport 入库
// POST /api/imports/:id/commit
func (h *Handler) CommitImport(c *gin.Context) {
	s, ok := h.ownedSession(c)
	if !ok {
		return
	}

	res, err := h.imports.Commit(c.Request.Context(), s.ID)
	if err != nil {
		fail(c, err)
		return
	}

	resp := commitResponse{
		SessionID:  res.SessionID,
		Expected:   res.Expected,
		Committed:  res.Committed,
		Duplicates: res.Duplicates,
		Dropped:    res.Dropped,
		Rejected:   newRejectionViews(res.Rejected),
		Warnings:   res.Warnings,
	}
	if len(res.Rejected) > 0 {
		data, err := rejectedWorkbook(res.Rejected)
		if err != nil {
			// 入库已完成，导出失败不影响结果
			resp.Warnings = append(resp.Warnings, importer.Warning{Code: "rejected_export_failed", Message: err.Error()})
		} else {
			token := h.downloads.put(exporter.SheetRejected+".xlsx", data, h.downloadTTL)
			resp.RejectedURL = "/api/export/download/" + token
		}
	}
	success(c, resp)
}

// ownedSession 读取会话并校验归属，失败时已写入响应
func (h *Handler) ownedSession(c *gin.Context) (*importer.Session, bool) {
	s, err := h.imports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	id := identityOf(c)
	if !id.IsAdmin() && s.Identity.Username != id.Username {
		errorResponse(c, http.StatusForbidden, CodeForbidden, "无权访问该导入会话")
		return nil, false
	}
	return s, true
}

func rejectedWorkbook(rs []importer.Rejection) ([]byte, error) {
	f, err := exporter.RejectedRows(rs)
	if err != nil {
		return nil, err
	}
	return exporter.Bytes(f)
}

// DownloadTemplate 下载导入模板
// GET /api/template
func (h *Handler) DownloadTemplate(c *gin.Context) {
	f, err := exporter.Template()
	if err != nil {
		fail(c, err)
		return
	}
	data, err := exporter.Bytes(f)
	if err != nil {
		fail(c, err)
		return
	}
	sendXLSX(c, "quotation-template.xlsx", exporter.SheetTemplate+".xlsx", data)
}
