package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"quotedesk/internal/model"
	"quotedesk/internal/parser"
	"quotedesk/internal/store"
)

// Coordinator 导入协调器：驱动 上传 -> 映射 -> 补全 -> 入库 的会话状态机
type Coordinator struct {
	store    *store.Store
	sessions SessionStore
	detect   parser.DetectOptions

	mu       sync.RWMutex
	resolver *parser.Resolver
}

// Options 协调器参数
type Options struct {
	Detect parser.DetectOptions
}

// NewCoordinator 创建导入协调器，sessions 为空时使用内存存储
func NewCoordinator(st *store.Store, sessions SessionStore, opts Options) *Coordinator {
	if sessions == nil {
		sessions = NewMemorySessionStore(DefaultSessionTTL)
	}
	return &Coordinator{
		store:    st,
		sessions: sessions,
		detect:   opts.Detect,
		resolver: parser.DefaultResolver(),
	}
}

// Resolver 当前使用的表头解析器
func (c *Coordinator) Resolver() *parser.Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolver
}

// ReloadSynonyms 合并数据库中的自定义别名（优先于内置别名）
func (c *Coordinator) ReloadSynonyms(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	custom, err := c.store.ListHeaderSynonyms(ctx)
	if err != nil {
		return err
	}

	table := make([]parser.Synonym, 0, len(custom))
	for _, h := range custom {
		f, ok := model.ParseField(h.Field)
		if !ok {
			log.Printf("skip header synonym %q: unknown field %q", h.Alias, h.Field)
			continue
		}
		table = append(table, parser.Synonym{Alias: h.Alias, Field: f})
	}
	table = append(table, parser.DefaultSynonyms()...)

	c.mu.Lock()
	c.resolver = parser.NewResolver(table)
	c.mu.Unlock()
	return nil
}

// BeginRequest 开始导入
type BeginRequest struct {
	Filename  string
	SheetName string
	Grid      parser.Grid
	Identity  model.Identity
}

// Begin 检测表头并创建会话
func (c *Coordinator) Begin(ctx context.Context, req BeginRequest) (*Session, error) {
	resolver := c.Resolver()
	region := parser.NewHeaderDetector(resolver, c.detect).LocateHeader(req.Grid)

	now := time.Now()
	s := &Session{
		ID:          uuid.NewString(),
		State:       StateUploaded,
		Identity:    req.Identity,
		Filename:    req.Filename,
		SheetName:   req.SheetName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Grid:        req.Grid,
		Header:      region,
		Suggestions: SuggestMapping(resolver, region.Columns),
		Warnings:    []Warning{},
	}
	if !region.Detected {
		s.Warnings = append(s.Warnings, Warning{Code: WarnHeaderNotFound, Message: ErrHeaderNotFound.Error()})
	}

	if c.store != nil {
		id, err := c.store.CreateImportLog(ctx, s.ID, req.Filename, req.SheetName,
			req.Identity.Username, req.Identity.Region, len(s.DataRows()))
		if err != nil {
			return nil, err
		}
		s.ImportLogID = id
	}

	if err := c.sessions.Create(ctx, s); err != nil {
		return nil, err
	}
	log.Printf("import %s started: file=%s sheet=%s header=[%d,%d] detected=%v columns=%d",
		s.ID, req.Filename, req.SheetName, region.StartRow, region.EndRow, region.Detected, len(region.Columns))
	return s, nil
}

// Get 读取会话
func (c *Coordinator) Get(ctx context.Context, id string) (*Session, error) {
	return c.sessions.Get(ctx, id)
}

// ConfirmMapping 确认列映射，重新生成待校验行；已提交过补全值时自动重新校验
func (c *Coordinator) ConfirmMapping(ctx context.Context, id string, mapping Mapping) (*Session, error) {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State == StateCommitted {
		return nil, fmt.Errorf("%w: session already committed", ErrInvalidState)
	}

	res, err := ConfirmMapping(MappingInput{
		Columns:  s.Header.Columns,
		Rows:     s.DataRows(),
		RowBase:  s.Header.DataStart(),
		Mapping:  mapping,
		Identity: s.Identity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Transition(StateMapped); err != nil {
		return nil, err
	}
	s.Mapping = mapping
	s.Sources = res.Sources
	s.Staged = res.Staged
	s.Outcome = nil
	s.Warnings = keepHeaderWarning(s.Warnings)
	s.Warnings = append(s.Warnings, res.Warnings...)

	s.CurrencyRequired = CurrencyRequired(s.Staged)
	if err := s.Transition(StateGlobalsPending); err != nil {
		return nil, err
	}

	if s.Globals != nil && CheckGlobals(*s.Globals, s.RequiredGlobals()) == nil {
		if err := s.validate(*s.Globals); err != nil {
			return nil, err
		}
	}

	s.UpdatedAt = time.Now()
	if err := c.sessions.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func keepHeaderWarning(ws []Warning) []Warning {
	out := []Warning{}
	for _, w := range ws {
		if w.Code == WarnHeaderNotFound {
			out = append(out, w)
		}
	}
	return out
}

// ApplyGlobals 提交补全值并执行行级校验；缺少必填值时不做任何修改
func (c *Coordinator) ApplyGlobals(ctx context.Context, id string, g Globals) (*Session, error) {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch s.State {
	case StateGlobalsPending:
	case StateValidated:
		if err := s.Transition(StateGlobalsPending); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot apply globals in state %s", ErrInvalidState, s.State)
	}

	if err := CheckGlobals(g, s.RequiredGlobals()); err != nil {
		return nil, err
	}

	s.Globals = &g
	if err := s.validate(g); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now()
	if err := c.sessions.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) validate(g Globals) error {
	filled := ApplyGlobals(s.Staged, g)
	outcome := ValidateRows(filled)
	s.Outcome = &outcome
	return s.Transition(StateValidated)
}

// CommitResult 入库结果
type CommitResult struct {
	SessionID  string      `json:"sessionId"`
	Expected   int         `json:"expected"`
	Committed  int64       `json:"committed"`
	Duplicates int         `json:"duplicates"`
	Dropped    int         `json:"dropped"`
	Rejected   []Rejection `json:"rejected"`
	Warnings   []Warning   `json:"warnings"`
}

// Commit 去除空行与重复行后单事务入库；失败时会话保持 validated，可重试或导出
func (c *Coordinator) Commit(ctx context.Context, id string) (*CommitResult, error) {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State != StateValidated || s.Outcome == nil {
		return nil, fmt.Errorf("%w: cannot commit in state %s", ErrInvalidState, s.State)
	}
	if c.store == nil {
		return nil, errors.New("no store configured")
	}

	rows, dropped, duplicates := prepareCommit(s.Outcome.Accepted)
	records := make([]model.Quotation, len(rows))
	for i, r := range rows {
		records[i] = r.ToQuotation()
	}

	result := &CommitResult{
		SessionID:  s.ID,
		Expected:   len(records),
		Duplicates: duplicates,
		Dropped:    dropped,
		Rejected:   s.Outcome.Rejected,
		Warnings:   []Warning{},
	}

	n, err := c.store.InsertQuotations(ctx, s.ID, records)
	if err != nil {
		c.finishLog(ctx, s, 0, store.ImportStatusFailed, err.Error())
		log.Printf("import %s commit failed: %v", s.ID, err)
		return nil, fmt.Errorf("commit import %s: %w", s.ID, err)
	}
	result.Committed = n
	if n != int64(len(records)) {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnRowcountMismatch,
			Message: fmt.Sprintf("inserted %d rows, expected %d", n, len(records)),
		})
	}

	if err := s.Transition(StateCommitted); err != nil {
		return nil, err
	}
	c.finishLog(ctx, s, n, store.ImportStatusCommitted, "")

	// 已提交的会话不再保留
	if err := c.sessions.Discard(ctx, s.ID); err != nil {
		log.Printf("discard committed session %s: %v", s.ID, err)
	}
	log.Printf("import %s committed: rows=%d duplicates=%d rejected=%d", s.ID, n, duplicates, len(result.Rejected))
	return result, nil
}

func (c *Coordinator) finishLog(ctx context.Context, s *Session, committed int64, status, msg string) {
	if c.store == nil || s.ImportLogID == 0 {
		return
	}
	accepted, rejected := 0, 0
	if s.Outcome != nil {
		accepted, rejected = len(s.Outcome.Accepted), len(s.Outcome.Rejected)
	}
	if err := c.store.FinishImportLog(ctx, s.ImportLogID, accepted, rejected, committed, status, msg); err != nil {
		log.Printf("update import log %d: %v", s.ImportLogID, err)
	}
}

// Discard 放弃导入会话
func (c *Coordinator) Discard(ctx context.Context, id string) error {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	c.finishLog(ctx, s, 0, store.ImportStatusDiscarded, "")
	return c.sessions.Discard(ctx, id)
}
