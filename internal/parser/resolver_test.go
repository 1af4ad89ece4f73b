package parser

import (
	"testing"

	"quotedesk/internal/model"
)

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Unit Price ":      "unit price",
		"Unit-Price":         "unit price",
		"unit__price":        "unit price",
		"单价（USD）":            "单价 usd",
		"Qty:":               "qty",
		"询价日期：":              "询价日期",
		"ＱＴＹ":                "qty",
		"Lead\t-  Time ( d )": "lead time d",
		"":                   "",
		"   ":                "",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q)=%q want %q", in, got, want)
		}
	}
}

func TestResolve_Tiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		want  model.Field
	}{
		{"Item", model.FieldItemName},
		{"BRAND", model.FieldBrand},
		{"Unit-Price", model.FieldUnitPrice},
		{"设备单价", model.FieldUnitPrice},
		{"Unit Price (USD)", model.FieldUnitPrice},
		{"Labour Unit Price", model.FieldLaborUnitPrice},
		{"Project Name", model.FieldProjectName},
		{"Supplier Name:", model.FieldSupplierName},
		{"Model No.", model.FieldModel},
		{"币种 Currency", model.FieldCurrency},
		{"询价日期：", model.FieldEnquiryDate},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.label)
		if !ok || got != tc.want {
			t.Fatalf("Resolve(%q)=%q,%v want %q", tc.label, got, ok, tc.want)
		}
	}
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"", "   ", "xyz", "12345"} {
		if f, ok := Resolve(label); ok {
			t.Fatalf("Resolve(%q) should be unresolved, got %q", label, f)
		}
	}
}

func TestResolve_ExactBeatsSubstring(t *testing.T) {
	t.Parallel()

	// "unit" 同时是别名 unit 和 "unit price" 的子串
	got, ok := Resolve("Unit")
	if !ok || got != model.FieldUnit {
		t.Fatalf("Resolve(Unit)=%q,%v want %q", got, ok, model.FieldUnit)
	}

	r := NewResolver([]Synonym{
		{"price list", model.FieldRemarks},
		{"price", model.FieldUnitPrice},
	})
	if got, _ := r.Resolve("price"); got != model.FieldUnitPrice {
		t.Fatalf("exact tier should win, got %q", got)
	}
}

func TestResolve_LongestSubstringWins(t *testing.T) {
	t.Parallel()

	r := NewResolver([]Synonym{
		{"price", model.FieldUnitPrice},
		{"labor price", model.FieldLaborUnitPrice},
	})
	got, ok := r.Resolve("total labor price per set")
	if !ok || got != model.FieldLaborUnitPrice {
		t.Fatalf("got %q,%v want %q", got, ok, model.FieldLaborUnitPrice)
	}
}

func TestResolve_QuotedPriceHeaders(t *testing.T) {
	t.Parallel()

	r := DefaultResolver()
	cases := map[string]model.Field{
		"报价单价":      model.FieldUnitPrice,
		"报价单价(USD)": model.FieldUnitPrice,
		"报价总价":      model.FieldSubtotal,
		"总价":        model.FieldSubtotal,
		"含税单价":      model.FieldUnitPrice,
		"报价品牌":      model.FieldQuoteBrand,
	}
	for label, want := range cases {
		if got, ok := r.Resolve(label); !ok || got != want {
			t.Fatalf("Resolve(%q)=%q,%v want %q", label, got, ok, want)
		}
	}
}

func TestResolve_SlashSeparatedLabel(t *testing.T) {
	t.Parallel()

	r := NewResolver([]Synonym{{"qty", model.FieldQuantity}})
	if got, ok := r.Resolve("total/qty/pcs"); !ok || got != model.FieldQuantity {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestResolve_SameNormalizationSameResult(t *testing.T) {
	t.Parallel()

	groups := [][]string{
		{"Unit Price", "unit-price", "UNIT_PRICE", " unit  price ", "Unit:Price"},
		{"Lead Time", "lead_time", "LEAD-TIME", "(lead time)"},
		{"询价日期", "询价日期：", " 询价日期 "},
		{"Project Name ABC", "project-name-abc"},
		{"foo bar", "FOO_BAR"},
	}
	for _, g := range groups {
		base := NormalizeHeader(g[0])
		wantField, wantOK := Resolve(g[0])
		for _, h := range g[1:] {
			if NormalizeHeader(h) != base {
				t.Fatalf("group broken: %q vs %q", h, g[0])
			}
			got, ok := Resolve(h)
			if got != wantField || ok != wantOK {
				t.Fatalf("Resolve(%q)=%q,%v but Resolve(%q)=%q,%v", h, got, ok, g[0], wantField, wantOK)
			}
		}
	}
}

func TestDefaultSynonyms_NoConflictingNormalizedAliases(t *testing.T) {
	t.Parallel()

	seen := map[string]model.Field{}
	for _, syn := range DefaultSynonyms() {
		if syn.Field.Index() < 0 {
			t.Fatalf("alias %q maps to unknown field %q", syn.Alias, syn.Field)
		}
		n := NormalizeHeader(syn.Alias)
		if prev, ok := seen[n]; ok && prev != syn.Field {
			t.Fatalf("alias %q normalizes to %q which already maps to %q", syn.Alias, n, prev)
		}
		seen[n] = syn.Field
	}
}

func TestDefaultSynonyms_CoverSelectableFields(t *testing.T) {
	t.Parallel()

	for _, f := range model.SelectableFields() {
		if got, ok := Resolve(f.Label()); !ok || got != f {
			t.Fatalf("display label %q of %q resolves to %q,%v", f.Label(), f, got, ok)
		}
	}
}
