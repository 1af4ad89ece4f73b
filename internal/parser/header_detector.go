package parser

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxHeaderRows = 2
	DefaultMaxSearchRows = 8

	minResolvedColumns = 2
	minResolvedRatio   = 0.3
)

// DetectOptions 表头检测参数
type DetectOptions struct {
	MaxHeaderRows int // 表头最多占几行（上限 2）
	MaxSearchRows int // 在前几行中查找表头
}

func (o DetectOptions) normalized() DetectOptions {
	if o.MaxHeaderRows <= 0 || o.MaxHeaderRows > DefaultMaxHeaderRows {
		o.MaxHeaderRows = DefaultMaxHeaderRows
	}
	if o.MaxSearchRows <= 0 {
		o.MaxSearchRows = DefaultMaxSearchRows
	}
	return o
}

// HeaderCandidate 候选表头区域
type HeaderCandidate struct {
	StartRow int      `json:"startRow"`
	EndRow   int      `json:"endRow"`
	Labels   []string `json:"labels"`
	Resolved int      `json:"resolved"`
	NonEmpty int      `json:"nonEmpty"`
}

// Score 候选得分：命中数 + 0.5 * 非空数
func (c HeaderCandidate) Score() float64 {
	return float64(c.Resolved) + 0.5*float64(c.NonEmpty)
}

// Acceptable 是否通过表头门槛：至少 2 列命中，或命中比例不低于 30%
func (c HeaderCandidate) Acceptable() bool {
	if c.Resolved >= minResolvedColumns {
		return true
	}
	return c.NonEmpty > 0 && float64(c.Resolved)/float64(c.NonEmpty) >= minResolvedRatio
}

// HeaderDetector 表头区域检测器
type HeaderDetector struct {
	resolver *Resolver
	opts     DetectOptions
}

// NewHeaderDetector 创建检测器，resolver 为空时使用默认别名表
func NewHeaderDetector(resolver *Resolver, opts DetectOptions) *HeaderDetector {
	if resolver == nil {
		resolver = defaultResolver
	}
	return &HeaderDetector{resolver: resolver, opts: opts.normalized()}
}

// Detect 扫描前若干行，返回得分最高且通过门槛的候选
func (d *HeaderDetector) Detect(grid Grid) (HeaderCandidate, bool) {
	if len(grid) == 0 {
		return HeaderCandidate{}, false
	}

	var best HeaderCandidate
	found := false
	for start := 0; start < d.opts.MaxSearchRows && start < len(grid); start++ {
		for span := 1; span <= d.opts.MaxHeaderRows; span++ {
			end := start + span - 1
			if end >= len(grid) {
				break
			}
			cand := d.buildCandidate(grid, start, end)
			if !found || cand.Score() > best.Score() {
				best = cand
				found = true
			}
		}
	}

	if !found || !best.Acceptable() {
		return HeaderCandidate{}, false
	}
	return best, true
}

func (d *HeaderDetector) buildCandidate(grid Grid, start, end int) HeaderCandidate {
	width := 0
	for i := start; i <= end; i++ {
		if len(grid[i]) > width {
			width = len(grid[i])
		}
	}

	cand := HeaderCandidate{StartRow: start, EndRow: end, Labels: make([]string, width)}
	for col := 0; col < width; col++ {
		parts := make([]string, 0, end-start+1)
		for i := start; i <= end; i++ {
			if v := strings.TrimSpace(grid.Cell(i, col)); v != "" {
				parts = append(parts, v)
			}
		}
		label := strings.TrimSpace(strings.Join(parts, " "))
		cand.Labels[col] = label
		if label == "" {
			continue
		}
		cand.NonEmpty++
		if _, ok := d.resolver.Resolve(label); ok {
			cand.Resolved++
		}
	}
	return cand
}

// DetectHeader 使用默认解析器检测表头，返回表头与表头末行下标
func DetectHeader(grid Grid, opts DetectOptions) (labels []string, headerEndRow int, ok bool) {
	cand, ok := NewHeaderDetector(nil, opts).Detect(grid)
	if !ok {
		return nil, -1, false
	}
	return cand.Labels, cand.EndRow, true
}

// HeaderRegion 表头检测结果（含首行兜底）
type HeaderRegion struct {
	Detected  bool     `json:"detected"`
	StartRow  int      `json:"startRow"`
	EndRow    int      `json:"endRow"`
	RawLabels []string `json:"rawLabels"`
	Columns   []string `json:"columns"` // 对齐、去重后的列名
	Resolved  int      `json:"resolved"`
	NonEmpty  int      `json:"nonEmpty"`
}

// DataStart 数据起始行
func (h HeaderRegion) DataStart() int {
	return h.EndRow + 1
}

// LocateHeader 检测表头；未检测到时显式退回首行作为表头
func (d *HeaderDetector) LocateHeader(grid Grid) HeaderRegion {
	region := HeaderRegion{}
	if cand, ok := d.Detect(grid); ok {
		region.Detected = true
		region.StartRow = cand.StartRow
		region.EndRow = cand.EndRow
		region.RawLabels = cand.Labels
		region.Resolved = cand.Resolved
		region.NonEmpty = cand.NonEmpty
	} else if len(grid) > 0 {
		cand := d.buildCandidate(grid, 0, 0)
		region.RawLabels = cand.Labels
		region.Resolved = cand.Resolved
		region.NonEmpty = cand.NonEmpty
	} else {
		region.EndRow = -1
	}

	width := len(region.RawLabels)
	if dataWidth, hasData := grid.widthFrom(region.DataStart()); hasData {
		width = dataWidth
	}
	region.Columns = AlignHeaders(region.RawLabels, width)
	return region
}

// AlignHeaders 按数据列数补齐或截断表头，空表头命名为 Unnamed_<i>，重复表头追加 .1/.2 后缀
func AlignHeaders(labels []string, width int) []string {
	out := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		label := ""
		if i < len(labels) {
			label = strings.TrimSpace(labels[i])
		}
		if label == "" {
			label = fmt.Sprintf("Unnamed_%d", i)
		}
		if _, dup := seen[label]; dup {
			base := label
			n := seen[base]
			for {
				n++
				label = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[label]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[label] = 0
		out[i] = label
	}
	return out
}
