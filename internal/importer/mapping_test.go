package importer

import (
	"errors"
	"reflect"
	"testing"

	"quotedesk/internal/model"
	"quotedesk/internal/parser"
)

func TestSuggestMapping(t *testing.T) {
	t.Parallel()

	got := SuggestMapping(nil, []string{"Item", "录入人", "Colour", "Unit Price"})
	want := []model.Field{model.FieldItemName, "", "", model.FieldUnitPrice}
	for i, s := range got {
		if s.Field != want[i] {
			t.Fatalf("column %q suggested %q want %q", s.Column, s.Field, want[i])
		}
	}
	if got[1].Resolved != model.FieldEnteredBy {
		t.Fatalf("injected field should still be reported as resolved, got %q", got[1].Resolved)
	}
}

func TestConfirmMapping_ConflictListsEverySource(t *testing.T) {
	t.Parallel()

	_, err := ConfirmMapping(MappingInput{
		Columns: []string{"Item", "Name", "Qty", "数量"},
		Rows:    parser.Grid{{"Cable", "Cable 4mm", "1", "1"}},
		Mapping: Mapping{
			"Item": model.FieldItemName,
			"Name": model.FieldItemName,
			"Qty":  model.FieldQuantity,
			"数量":   model.FieldQuantity,
		},
	})

	var conflict *MappingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *MappingConflictError, got %v", err)
	}
	want := []FieldConflict{
		{Field: model.FieldItemName, Sources: []string{"Item", "Name"}},
		{Field: model.FieldQuantity, Sources: []string{"Qty", "数量"}},
	}
	if !reflect.DeepEqual(conflict.Conflicts, want) {
		t.Fatalf("conflicts=%+v want %+v", conflict.Conflicts, want)
	}
}

func TestConfirmMapping_InvalidTargets(t *testing.T) {
	t.Parallel()

	cols := []string{"Item", "User"}
	if _, err := ConfirmMapping(MappingInput{Columns: cols, Mapping: Mapping{"Missing": model.FieldItemName}}); !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("unknown column: err=%v", err)
	}
	if _, err := ConfirmMapping(MappingInput{Columns: cols, Mapping: Mapping{"User": model.FieldEnteredBy}}); !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("injected target: err=%v", err)
	}
	if _, err := ConfirmMapping(MappingInput{Columns: cols, Mapping: Mapping{"User": "bogus"}}); !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("unknown field: err=%v", err)
	}
}

func TestConfirmMapping_StagesRowsAndWarnsOnEmptyColumn(t *testing.T) {
	t.Parallel()

	res, err := ConfirmMapping(MappingInput{
		Columns: []string{"Item", "Remarks", "Brand"},
		Rows: parser.Grid{
			{"Cable", "nan", "ABB"},
			{"", "", ""},
			{"Switch", " None ", ""},
		},
		RowBase: 3,
		Mapping: Mapping{
			"Item":    model.FieldItemName,
			"Remarks": model.FieldRemarks,
			"Brand":   "",
		},
		Identity: model.Identity{Username: "alice", Region: "Singapore"},
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if len(res.Warnings) != 1 || res.Warnings[0].Code != WarnMappedButEmpty || res.Warnings[0].Field != model.FieldRemarks {
		t.Fatalf("warnings=%+v", res.Warnings)
	}
	if len(res.Staged) != 2 {
		t.Fatalf("staged=%d want 2 (blank row skipped)", len(res.Staged))
	}

	first := res.Staged[0]
	if first.SourceRow != 4 || res.Staged[1].SourceRow != 6 {
		t.Fatalf("source rows=%d,%d", first.SourceRow, res.Staged[1].SourceRow)
	}
	if first.Get(model.FieldItemName) != "Cable" {
		t.Fatalf("item=%q", first.Get(model.FieldItemName))
	}
	if first.Cells[model.FieldBrand.Index()] != nil {
		t.Fatalf("ignored column must stay null")
	}
	if first.Get(model.FieldEnteredBy) != "alice" || first.Get(model.FieldRegion) != "Singapore" {
		t.Fatalf("identity not injected: %q %q", first.Get(model.FieldEnteredBy), first.Get(model.FieldRegion))
	}
	if res.Sources[model.FieldItemName] != "Item" {
		t.Fatalf("sources=%v", res.Sources)
	}
}
