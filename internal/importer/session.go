package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quotedesk/internal/model"
	"quotedesk/internal/parser"
	"quotedesk/internal/store"
)

// State 导入会话状态
type State string

const (
	StateUploaded       State = "uploaded"
	StateMapped         State = "mapped"
	StateGlobalsPending State = "globals_pending"
	StateValidated      State = "validated"
	StateCommitted      State = "committed"
)

// 允许的状态迁移；重新映射或重新补全会回到上游状态
var transitions = map[State][]State{
	StateUploaded:       {StateMapped},
	StateMapped:         {StateGlobalsPending},
	StateGlobalsPending: {StateMapped, StateValidated},
	StateValidated:      {StateMapped, StateGlobalsPending, StateCommitted},
}

// Session 一次导入的全部中间状态
type Session struct {
	ID        string         `json:"id"`
	State     State          `json:"state"`
	Identity  model.Identity `json:"identity"`
	Filename  string         `json:"filename"`
	SheetName string         `json:"sheetName"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	Grid        parser.Grid         `json:"grid"`
	Header      parser.HeaderRegion `json:"header"`
	Suggestions []ColumnSuggestion  `json:"suggestions"`

	Mapping          Mapping                `json:"mapping,omitempty"`
	Sources          map[model.Field]string `json:"sources,omitempty"`
	Staged           []model.StagedRow      `json:"staged,omitempty"`
	CurrencyRequired bool                   `json:"currencyRequired"`
	Globals          *Globals               `json:"globals,omitempty"`
	Outcome          *Outcome               `json:"outcome,omitempty"`

	Warnings    []Warning `json:"warnings"`
	ImportLogID int64     `json:"importLogId,omitempty"`
}

// Transition 状态迁移
func (s *Session) Transition(to State) error {
	for _, next := range transitions[s.State] {
		if next == to {
			s.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidState, s.State, to)
}

// DataRows 表头以下的数据行
func (s *Session) DataRows() parser.Grid {
	start := s.Header.DataStart()
	if start >= len(s.Grid) {
		return parser.Grid{}
	}
	return s.Grid[start:]
}

// RequiredGlobals 当前需提供的补全字段
func (s *Session) RequiredGlobals() []model.Field {
	fields := append([]model.Field{}, baseGlobalFields...)
	if s.CurrencyRequired {
		fields = append(fields, model.FieldCurrency)
	}
	return fields
}

// SessionStore 导入会话存储
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Discard(ctx context.Context, id string) error
}

// DefaultSessionTTL 会话默认有效期
const DefaultSessionTTL = 2 * time.Hour

type memorySession struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionStore 进程内会话存储；保存序列化快照，调用方拿到的是独立副本
type MemorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memorySession
}

// NewMemorySessionStore 创建内存会话存储
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{ttl: ttl, items: make(map[string]memorySession)}
}

func (m *MemorySessionStore) Create(_ context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeExpiredLocked(time.Now())
	if _, ok := m.items[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.items[s.ID] = memorySession{payload: payload, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	item, ok := m.items[id]
	if ok && time.Now().After(item.expiresAt) {
		delete(m.items, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return decodeSession(item.payload)
}

func (m *MemorySessionStore) Update(_ context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[s.ID]
	if !ok || time.Now().After(item.expiresAt) {
		delete(m.items, s.ID)
		return ErrSessionNotFound
	}
	m.items[s.ID] = memorySession{payload: payload, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Discard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Len 未过期会话数
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked(time.Now())
	return len(m.items)
}

func (m *MemorySessionStore) purgeExpiredLocked(now time.Time) {
	for k, v := range m.items {
		if now.After(v.expiresAt) {
			delete(m.items, k)
		}
	}
}

// SQLSessionStore 将会话快照存入 import_sessions 表，进程重启后仍可继续
type SQLSessionStore struct {
	store *store.Store
	ttl   time.Duration
}

// NewSQLSessionStore 创建数据库会话存储
func NewSQLSessionStore(st *store.Store, ttl time.Duration) *SQLSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SQLSessionStore{store: st, ttl: ttl}
}

func (q *SQLSessionStore) Create(ctx context.Context, s *Session) error {
	if _, err := q.store.PurgeExpiredSessions(ctx, time.Now()); err != nil {
		return err
	}
	return q.save(ctx, s)
}

func (q *SQLSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := q.store.LoadSession(ctx, id)
	if errors.Is(err, store.ErrSessionMissing) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(payload)
}

func (q *SQLSessionStore) Update(ctx context.Context, s *Session) error {
	if _, err := q.store.LoadSession(ctx, s.ID); err != nil {
		if errors.Is(err, store.ErrSessionMissing) {
			return ErrSessionNotFound
		}
		return err
	}
	return q.save(ctx, s)
}

func (q *SQLSessionStore) Discard(ctx context.Context, id string) error {
	return q.store.DeleteSession(ctx, id)
}

func (q *SQLSessionStore) save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return q.store.SaveSession(ctx, s.ID, string(s.State), payload, time.Now().Add(q.ttl))
}

func decodeSession(payload []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
