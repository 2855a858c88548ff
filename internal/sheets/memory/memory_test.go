package memory

import (
	"context"
	"testing"
	"time"

	"saldo/internal/core"
)

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Amount:   core.Money{Cents: 1250},
		Type:     core.Expense,
		Category: "food",
		Date:     core.Date{Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func TestAppendAndExported(t *testing.T) {
	s := New()

	ref, err := s.Append(context.Background(), tx("tx-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	if _, err := s.Append(context.Background(), tx("tx-2")); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := s.Exported()
	if len(got) != 2 {
		t.Fatalf("exported %d items, want 2", len(got))
	}
	if got[0].ID != "tx-1" || got[1].ID != "tx-2" {
		t.Errorf("exported = %+v", got)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()

	bad := tx("tx-1")
	bad.Amount = core.Money{}
	if _, err := s.Append(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Exported()) != 0 {
		t.Error("invalid transaction was stored")
	}
}
