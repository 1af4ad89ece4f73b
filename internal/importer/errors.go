package importer

import (
	"errors"
	"fmt"
	"strings"

	"quotedesk/internal/model"
)

var (
	// ErrHeaderNotFound 未检测到表头，已退回首行
	ErrHeaderNotFound = errors.New("no header row detected, first row used as header")
	// ErrSessionNotFound 导入会话不存在或已过期
	ErrSessionNotFound = errors.New("import session not found")
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("invalid import session state")
	// ErrInvalidMapping 映射引用了未知列或不可选字段
	ErrInvalidMapping = errors.New("invalid column mapping")
)

// FieldConflict 一个字段被多个源列指定
type FieldConflict struct {
	Field   model.Field `json:"field"`
	Sources []string    `json:"sources"`
}

// MappingConflictError 映射冲突，列出全部冲突字段
type MappingConflictError struct {
	Conflicts []FieldConflict
}

func (e *MappingConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s <- [%s]", c.Field, strings.Join(c.Sources, ", ")))
	}
	return "mapping conflict: " + strings.Join(parts, "; ")
}

// MissingGlobalsError 缺少必填的全局补全值
type MissingGlobalsError struct {
	Fields []model.Field
}

func (e *MissingGlobalsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return "missing required globals: " + strings.Join(names, ", ")
}

// 警告代码
const (
	WarnHeaderNotFound   = "header_not_found"
	WarnMappedButEmpty   = "mapped_but_empty"
	WarnRowcountMismatch = "rowcount_mismatch"
)

// Warning 非阻断提示
type Warning struct {
	Code    string      `json:"code"`
	Field   model.Field `json:"field,omitempty"`
	Message string      `json:"message"`
}
