package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var separatorRe = regexp.MustCompile(`[\s\-_:：()（）]+`)

// NormalizeHeader 规范化表头：去首尾空白、全角转半角、大小写折叠、合并分隔符为单个空格
func NormalizeHeader(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = width.Fold.String(s)
	s = foldCase(s)
	s = separatorRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// foldCase cases.Caser 不能跨 goroutine 共享，每次新建
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// headerTokens 按字母/汉字连续片段切分
func headerTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
