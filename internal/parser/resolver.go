package parser

import (
	"strings"
	"unicode/utf8"

	"quotedesk/internal/model"
)

type aliasEntry struct {
	folded     string
	normalized string
	field      model.Field
}

// Resolver 表头解析器：将任意表头映射到规范字段
//
// 匹配优先级（命中即返回）：
//  1. 原始表头（去空白、大小写折叠）与别名完全相等
//  2. 规范化表头与规范化别名完全相等
//  3. 规范化后互为子串，最长别名优先，等长按表顺序
//  4. 表头字母/汉字片段与别名完全相等
type Resolver struct {
	entries    []aliasEntry
	exact      map[string]model.Field
	normalized map[string]model.Field
}

// NewResolver 根据别名表创建解析器
func NewResolver(table []Synonym) *Resolver {
	r := &Resolver{
		entries:    make([]aliasEntry, 0, len(table)),
		exact:      make(map[string]model.Field, len(table)),
		normalized: make(map[string]model.Field, len(table)),
	}
	for _, syn := range table {
		e := aliasEntry{
			folded:     foldCase(strings.TrimSpace(syn.Alias)),
			normalized: NormalizeHeader(syn.Alias),
			field:      syn.Field,
		}
		if e.normalized == "" {
			continue
		}
		r.entries = append(r.entries, e)
		if _, ok := r.exact[e.folded]; !ok {
			r.exact[e.folded] = e.field
		}
		if _, ok := r.normalized[e.normalized]; !ok {
			r.normalized[e.normalized] = e.field
		}
	}
	return r
}

var defaultResolver = NewResolver(defaultSynonyms)

// DefaultResolver 基于默认别名表的解析器
func DefaultResolver() *Resolver {
	return defaultResolver
}

// Resolve 使用默认别名表解析表头
func Resolve(label string) (model.Field, bool) {
	return defaultResolver.Resolve(label)
}

// Resolve 解析表头，未命中返回 false
func (r *Resolver) Resolve(label string) (model.Field, bool) {
	norm := NormalizeHeader(label)
	if norm == "" {
		return "", false
	}

	if f, ok := r.exact[foldCase(strings.TrimSpace(label))]; ok {
		return f, true
	}

	if f, ok := r.normalized[norm]; ok {
		return f, true
	}

	if f, ok := r.resolveSubstring(norm); ok {
		return f, true
	}

	for _, tok := range headerTokens(norm) {
		if f, ok := r.normalized[tok]; ok {
			return f, true
		}
	}

	return "", false
}

func (r *Resolver) resolveSubstring(norm string) (model.Field, bool) {
	best := -1
	bestLen := 0
	for i, e := range r.entries {
		if !strings.Contains(norm, e.normalized) && !strings.Contains(e.normalized, norm) {
			continue
		}
		if n := utf8.RuneCountInString(e.normalized); n > bestLen {
			best = i
			bestLen = n
		}
	}
	if best < 0 {
		return "", false
	}
	return r.entries[best].field, true
}
