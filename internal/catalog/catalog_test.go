package catalog

import (
	"testing"

	"saldo/internal/core"
)

func TestForType(t *testing.T) {
	expense := ForType(core.Expense)
	if len(expense) != 8 {
		t.Errorf("expense catalog has %d entries, want 8", len(expense))
	}
	income := ForType(core.Income)
	if len(income) != 6 {
		t.Errorf("income catalog has %d entries, want 6", len(income))
	}
	if got := ForType("transfer"); got != nil {
		t.Errorf("unknown type returned %d entries", len(got))
	}

	for _, typ := range []core.TransactionType{core.Income, core.Expense} {
		seen := make(map[string]bool)
		for _, c := range ForType(typ) {
			if c.Value == "" || c.Label == "" || c.Icon == "" || c.Color == "" {
				t.Errorf("%s entry %+v has empty fields", typ, c)
			}
			if seen[c.Value] {
				t.Errorf("%s catalog has duplicate value %q", typ, c.Value)
			}
			seen[c.Value] = true
		}
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup(core.Expense, "Food")
	if !ok {
		t.Fatal("Food not found in expense catalog")
	}
	if c.Icon != "silverware-fork-knife" {
		t.Errorf("Food icon = %q", c.Icon)
	}

	if _, ok := Lookup(core.Income, "Food"); ok {
		t.Error("Food should not exist in the income catalog")
	}
}

func TestForTypeReturnsCopy(t *testing.T) {
	first := ForType(core.Income)
	first[0].Label = "mutated"
	if again := ForType(core.Income); again[0].Label == "mutated" {
		t.Fatal("ForType exposes the backing catalog slice")
	}
}
