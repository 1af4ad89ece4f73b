package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"quotedesk/internal/model"
	"quotedesk/internal/parser"
	"quotedesk/internal/store"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "quotedesk.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewCoordinator(st, NewMemorySessionStore(0), Options{}), st
}

var testIdentity = model.Identity{Username: "alice", Region: "Singapore"}

var fullGlobals = Globals{
	ProjectName:  "Marina Tower",
	SupplierName: "Acme Supply",
	Enquirer:     "lee",
	EnquiryDate:  "2024-05-01",
	Currency:     "USD",
}

func TestCoordinator_EndToEnd(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	grid := parser.Grid{
		{"Item", "Brand", "Qty", "Unit Price", "Currency"},
		{"Cable", "ABB", "10", "2.5", "USD"},
		{"Switch", "", "4", "12", "SGD"},
		{"Breaker", "Siemens", "1", "30", ""},
	}
	s, err := c.Begin(ctx, BeginRequest{Filename: "quote.xlsx", Grid: grid, Identity: testIdentity})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !s.Header.Detected || s.Header.EndRow != 0 {
		t.Fatalf("header=%+v", s.Header)
	}

	s, err = c.ConfirmMapping(ctx, s.ID, SuggestionMapping(s.Suggestions))
	if err != nil {
		t.Fatalf("confirm mapping: %v", err)
	}
	if s.State != StateGlobalsPending || len(s.Staged) != 3 || !s.CurrencyRequired {
		t.Fatalf("state=%s staged=%d currencyRequired=%v", s.State, len(s.Staged), s.CurrencyRequired)
	}

	s, err = c.ApplyGlobals(ctx, s.ID, fullGlobals)
	if err != nil {
		t.Fatalf("apply globals: %v", err)
	}
	if s.State != StateValidated || len(s.Outcome.Accepted) != 3 || len(s.Outcome.Rejected) != 0 {
		t.Fatalf("state=%s outcome=%+v", s.State, s.Outcome)
	}
	for _, r := range s.Outcome.Accepted {
		if r.IsEmpty(model.FieldCurrency) {
			t.Fatalf("row %d has no currency after fallback", r.SourceRow)
		}
	}
	if got := s.Outcome.Accepted[1].Get(model.FieldCurrency); got != "SGD" {
		t.Fatalf("existing currency overwritten: %q", got)
	}

	res, err := c.Commit(ctx, s.ID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Committed != 3 || len(res.Warnings) != 0 {
		t.Fatalf("commit result=%+v", res)
	}

	stored, total, err := st.SearchQuotations(ctx, store.QuotationQuery{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 || stored[2].Currency != "USD" || stored[0].EnteredBy != "alice" || stored[0].ImportID != s.ID {
		t.Fatalf("stored=%+v", stored)
	}

	if _, err := c.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("committed session should be discarded, err=%v", err)
	}

	l, err := st.GetImportLog(ctx, s.ImportLogID)
	if err != nil {
		t.Fatalf("import log: %v", err)
	}
	if l.Status != store.ImportStatusCommitted || l.CommittedRows != 3 {
		t.Fatalf("import log=%+v", l)
	}
}

func TestCoordinator_DuplicateRowsCollapse(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	grid := parser.Grid{
		{"Item", "Unit Price", "Currency"},
		{"Cable", "2.5", "USD"},
		{"Cable", "2.5", "USD"},
	}
	s, err := c.Begin(ctx, BeginRequest{Grid: grid, Identity: testIdentity})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.ConfirmMapping(ctx, s.ID, SuggestionMapping(s.Suggestions)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	s, err = c.ApplyGlobals(ctx, s.ID, Globals{ProjectName: "P", SupplierName: "S", Enquirer: "E", EnquiryDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("apply globals without currency: %v", err)
	}

	res, err := c.Commit(ctx, s.ID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Committed != 1 || res.Duplicates != 1 {
		t.Fatalf("result=%+v", res)
	}
	if _, total, _ := st.SearchQuotations(ctx, store.QuotationQuery{}); total != 1 {
		t.Fatalf("stored %d rows want 1", total)
	}
}

func TestCoordinator_MissingGlobalsBlocks(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, err := c.Begin(ctx, BeginRequest{Grid: parser.Grid{{"Item", "Unit Price"}, {"Cable", "1"}}, Identity: testIdentity})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.ApplyGlobals(ctx, s.ID, fullGlobals); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("globals before mapping: err=%v", err)
	}
	if _, err := c.ConfirmMapping(ctx, s.ID, SuggestionMapping(s.Suggestions)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err = c.ApplyGlobals(ctx, s.ID, Globals{ProjectName: "P", SupplierName: "S", Enquirer: "E", EnquiryDate: "d"})
	var missing *MissingGlobalsError
	if !errors.As(err, &missing) || len(missing.Fields) != 1 || missing.Fields[0] != model.FieldCurrency {
		t.Fatalf("expected missing currency, err=%v", err)
	}

	s, _ = c.Get(ctx, s.ID)
	if s.State != StateGlobalsPending || s.Globals != nil || s.Outcome != nil {
		t.Fatalf("partial application: state=%s globals=%v", s.State, s.Globals)
	}
	if _, err := c.Commit(ctx, s.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("commit before validation: err=%v", err)
	}
}

func TestCoordinator_RemapRevalidates(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	grid := parser.Grid{
		{"Item", "Unit Price", "Labor Price", "Currency"},
		{"Cable", "", "100", "USD"},
	}
	s, _ := c.Begin(ctx, BeginRequest{Grid: grid, Identity: testIdentity})
	mapping := Mapping{"Item": model.FieldItemName, "Unit Price": model.FieldUnitPrice, "Currency": model.FieldCurrency}
	if _, err := c.ConfirmMapping(ctx, s.ID, mapping); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	s, err := c.ApplyGlobals(ctx, s.ID, fullGlobals)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(s.Outcome.Rejected) != 1 || s.Outcome.Rejected[0].Reasons[0] != ReasonPrice {
		t.Fatalf("outcome=%+v", s.Outcome)
	}

	mapping["Labor Price"] = model.FieldLaborUnitPrice
	s, err = c.ConfirmMapping(ctx, s.ID, mapping)
	if err != nil {
		t.Fatalf("remap: %v", err)
	}
	if s.State != StateValidated || len(s.Outcome.Accepted) != 1 {
		t.Fatalf("remap should revalidate: state=%s outcome=%+v", s.State, s.Outcome)
	}
}

func TestCoordinator_ConflictLeavesSessionUntouched(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	s, _ := c.Begin(ctx, BeginRequest{Grid: parser.Grid{{"Item", "Name"}, {"a", "b"}}, Identity: testIdentity})
	_, err := c.ConfirmMapping(ctx, s.ID, Mapping{"Item": model.FieldItemName, "Name": model.FieldItemName})
	var conflict *MappingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, err=%v", err)
	}
	s, _ = c.Get(ctx, s.ID)
	if s.State != StateUploaded {
		t.Fatalf("state=%s", s.State)
	}
}

func TestCoordinator_CommitFailureKeepsPartition(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	grid := parser.Grid{
		{"Item", "Unit Price", "Currency"},
		{"Cable", "2.5", "USD"},
		{"Switch", "", "USD"},
	}
	s, _ := c.Begin(ctx, BeginRequest{Grid: grid, Identity: testIdentity})
	if _, err := c.ConfirmMapping(ctx, s.ID, SuggestionMapping(s.Suggestions)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := c.ApplyGlobals(ctx, s.ID, fullGlobals); err != nil {
		t.Fatalf("apply: %v", err)
	}

	_ = st.Close()
	if _, err := c.Commit(ctx, s.ID); err == nil {
		t.Fatalf("expected commit error on closed store")
	}

	s, err := c.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("session lost after failed commit: %v", err)
	}
	if s.State != StateValidated || len(s.Outcome.Accepted) != 1 || len(s.Outcome.Rejected) != 1 {
		t.Fatalf("partition changed: state=%s outcome=%+v", s.State, s.Outcome)
	}
}

func TestCoordinator_HeaderFallbackWarning(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)
	s, err := c.Begin(context.Background(), BeginRequest{Grid: parser.Grid{{"1", "2"}, {"3", "4"}}, Identity: testIdentity})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Header.Detected || len(s.Warnings) != 1 || s.Warnings[0].Code != WarnHeaderNotFound {
		t.Fatalf("header=%+v warnings=%+v", s.Header, s.Warnings)
	}
	for _, sg := range s.Suggestions {
		if sg.Field != "" {
			t.Fatalf("fallback header should suggest nothing, got %+v", sg)
		}
	}
}

func TestCoordinator_CustomSynonyms(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	if err := st.UpsertHeaderSynonym(ctx, store.HeaderSynonym{Alias: "Harga Satuan", Field: "unit_price"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := c.ReloadSynonyms(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if f, ok := c.Resolver().Resolve("harga satuan"); !ok || f != model.FieldUnitPrice {
		t.Fatalf("custom alias not applied: %q %v", f, ok)
	}
}
