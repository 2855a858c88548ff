package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"saldo/internal/core"
)

// txBackend is a minimal in-memory transaction API.
type txBackend struct {
	mu     sync.Mutex
	nextID int
	items  []core.Transaction
	lists  int // number of list requests served
}

func (b *txBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lists++
		json.NewEncoder(w).Encode(map[string]any{
			"transactions": b.items,
			"total":        len(b.items),
		})
	})
	mux.HandleFunc("POST /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		var tx core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, `{"message":"bad payload"}`, http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.nextID++
		tx.ID = fmt.Sprintf("tx-%d", b.nextID)
		tx.OwnerID = "u1"
		b.items = append(b.items, tx)
		json.NewEncoder(w).Encode(tx)
	})
	mux.HandleFunc("PUT /api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		var tx core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, `{"message":"bad payload"}`, http.StatusBadRequest)
			return
		}
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.items {
			if b.items[i].ID == id {
				tx.ID = id
				tx.OwnerID = b.items[i].OwnerID
				b.items[i] = tx
				json.NewEncoder(w).Encode(tx)
				return
			}
		}
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("DELETE /api/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		kept := b.items[:0]
		for _, tx := range b.items {
			if tx.ID != id {
				kept = append(kept, tx)
			}
		}
		b.items = kept
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, action, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, action+":"+id)
	return nil
}

func newTxStore(t *testing.T, backend *txBackend, events EventPublisher) *Transactions {
	t.Helper()
	tokens := &fakeTokens{token: "tok-valid"}
	return NewTransactions(newTestAPI(t, backend.handler(), tokens), events)
}

func TestFetchReplacesCollection(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
		{ID: "tx-2", Amount: core.Money{Cents: 80000}, Type: core.Income, Category: "Salary", Date: core.NewDate(2024, 3, 5)},
	}}
	s := newTxStore(t, backend, nil)

	if !s.Fetch(context.Background()) {
		t.Fatalf("fetch failed: %s", s.Err())
	}
	if got := s.Snapshot(); len(got) != 2 {
		t.Fatalf("collection size = %d, want 2", len(got))
	}
	if s.Total() != 2 {
		t.Errorf("total = %d, want 2", s.Total())
	}
	if s.Loading() {
		t.Error("loading should be false after fetch resolves")
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
	}}
	s := newTxStore(t, backend, nil)

	s.Fetch(context.Background())
	first := idsOf(s.Snapshot())
	s.Fetch(context.Background())
	second := idsOf(s.Snapshot())

	if len(first) != len(second) {
		t.Fatalf("collection size changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ids changed: %v -> %v", first, second)
		}
	}
}

func TestCreateValidationSkipsNetwork(t *testing.T) {
	backend := &txBackend{}
	s := newTxStore(t, backend, nil)

	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{"zero amount", core.Transaction{Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)}},
		{"negative amount", core.Transaction{Amount: core.Money{Cents: -50}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)}},
		{"missing category", core.Transaction{Amount: core.Money{Cents: 100}, Type: core.Expense, Date: core.NewDate(2024, 3, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s.Create(context.Background(), tt.tx) {
				t.Error("create should fail")
			}
		})
	}

	if len(s.Snapshot()) != 0 {
		t.Error("collection mutated by failed validation")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.nextID != 0 {
		t.Errorf("%d transactions reached the server", backend.nextID)
	}
}

func TestCreateAppendsCanonicalRecord(t *testing.T) {
	backend := &txBackend{}
	events := &recordingPublisher{}
	s := newTxStore(t, backend, events)

	ok := s.Create(context.Background(), core.Transaction{
		Amount:   core.Money{Cents: 5000},
		Type:     core.Expense,
		Category: "Food",
		Date:     core.NewDate(2024, 3, 1),
	})
	if !ok {
		t.Fatalf("create failed: %s", s.Err())
	}

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("collection size = %d, want 1", len(snap))
	}
	if snap[0].ID != "tx-1" || snap[0].OwnerID != "u1" {
		t.Errorf("record = %+v, want the server-returned canonical record", snap[0])
	}

	groups := s.Grouped(core.Expense)
	if len(groups) != 1 || groups[0].Label != "March 2024" {
		t.Fatalf("grouping = %+v, want one March 2024 group", groups)
	}

	if len(events.events) != 1 || events.events[0] != "created:tx-1" {
		t.Errorf("events = %v", events.events)
	}
}

func TestUpdateReplacesByID(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
	}, nextID: 1}
	s := newTxStore(t, backend, nil)
	s.Fetch(context.Background())

	ok := s.Update(context.Background(), core.Transaction{
		ID:       "tx-1",
		Amount:   core.Money{Cents: 1500},
		Type:     core.Expense,
		Category: "Shopping",
		Date:     core.NewDate(2024, 3, 2),
	})
	if !ok {
		t.Fatalf("update failed: %s", s.Err())
	}

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("collection size = %d", len(snap))
	}
	if snap[0].Amount.Cents != 1500 || snap[0].Category != "Shopping" {
		t.Errorf("record = %+v", snap[0])
	}
}

func TestUpdateRefusesTypeChange(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
	}, nextID: 1}
	s := newTxStore(t, backend, nil)
	s.Fetch(context.Background())

	ok := s.Update(context.Background(), core.Transaction{
		ID:       "tx-1",
		Amount:   core.Money{Cents: 1200},
		Type:     core.Income,
		Category: "Salary",
		Date:     core.NewDate(2024, 3, 1),
	})
	if ok {
		t.Fatal("type change should be refused")
	}
	if snap := s.Snapshot(); snap[0].Type != core.Expense {
		t.Errorf("type changed locally to %s", snap[0].Type)
	}
}

func TestDeleteRemovesByID(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
		{ID: "tx-2", Amount: core.Money{Cents: 900}, Type: core.Expense, Category: "Transportation", Date: core.NewDate(2024, 3, 2)},
	}, nextID: 2}
	events := &recordingPublisher{}
	s := newTxStore(t, backend, events)
	s.Fetch(context.Background())

	if !s.Delete(context.Background(), "tx-1") {
		t.Fatalf("delete failed: %s", s.Err())
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != "tx-2" {
		t.Errorf("collection = %v", idsOf(snap))
	}
	if s.Total() != 1 {
		t.Errorf("total = %d, want 1", s.Total())
	}
	if len(events.events) != 1 || events.events[0] != "deleted:tx-1" {
		t.Errorf("events = %v", events.events)
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
	}, nextID: 1}
	s := newTxStore(t, backend, nil)
	s.Fetch(context.Background())

	if !s.Delete(context.Background(), "tx-404") {
		t.Fatalf("delete failed: %s", s.Err())
	}
	if len(s.Snapshot()) != 1 {
		t.Error("collection length changed")
	}
	if s.Total() != 1 {
		t.Errorf("total = %d, want 1", s.Total())
	}
}

func TestFetchFailureKeepsCollection(t *testing.T) {
	backend := &txBackend{items: []core.Transaction{
		{ID: "tx-1", Amount: core.Money{Cents: 1200}, Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 3, 1)},
	}}
	s := newTxStore(t, backend, nil)
	s.Fetch(context.Background())

	// Swap in a failing client.
	tokens := &fakeTokens{token: "tok-valid"}
	s.api = newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"backend down"}`, http.StatusServiceUnavailable)
	}), tokens)

	if s.Fetch(context.Background()) {
		t.Fatal("fetch should fail")
	}
	if s.Err() == "" {
		t.Error("error should be set")
	}
	if len(s.Snapshot()) != 1 {
		t.Error("failed fetch cleared the collection")
	}
}

func idsOf(txs []core.Transaction) []string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}
