package store

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"saldo/internal/api"
	"saldo/internal/core"
	applog "saldo/internal/log"
)

// EventPublisher receives a best-effort notification after every
// successful mutation. Implemented by amqp.Client; nil disables
// publishing.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, action, id string) error
}

// Mutation event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Transactions caches the server's transaction list. The server is the
// source of truth; the collection is replaced wholesale by Fetch and
// patched in place by the mutating operations.
type Transactions struct {
	api    *api.Client
	events EventPublisher

	group singleflight.Group

	mu      sync.Mutex
	items   []core.Transaction
	total   int
	fetches uint64 // issued fetch sequence numbers
	applied uint64 // highest sequence applied to items
	loading bool
	err     string
}

func NewTransactions(client *api.Client, events EventPublisher) *Transactions {
	return &Transactions{api: client, events: events}
}

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
}

// Fetch replaces the in-memory collection with the server's current
// list. Concurrent calls are coalesced: at most one request is in
// flight and simultaneous callers share its result. Responses apply in
// issue order only, so a slow stale response can never overwrite a
// newer collection.
func (s *Transactions) Fetch(ctx context.Context) bool {
	s.mu.Lock()
	s.fetches++
	seq := s.fetches
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	_, err, _ := s.group.Do("fetch", func() (any, error) {
		var resp listResponse
		if err := s.api.Get(ctx, api.PathTransactions, &resp); err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq > s.applied {
			s.items = resp.Transactions
			s.total = resp.Total
			s.applied = seq
		}
		return nil, nil
	})

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = humanMessage(err, "Failed to fetch transactions")
	}
	s.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "Transaction fetch failed",
			applog.FieldComponent, applog.ComponentTransactions,
			applog.FieldOperation, applog.OpFetch,
			applog.FieldError, err.Error())
		return false
	}
	return true
}

// Create submits a new transaction. A missing or non-positive amount
// fails fast: no network call, no state change. On success the
// server-returned canonical record is appended to the collection.
func (s *Transactions) Create(ctx context.Context, data core.Transaction) bool {
	if data.Amount.Cents <= 0 {
		return false
	}
	if err := data.Validate(); err != nil {
		return false
	}

	var created core.Transaction
	if err := s.api.Post(ctx, api.PathTransactions, data, &created); err != nil {
		s.setError(humanMessage(err, "Failed to create transaction"))
		return false
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.total++
	s.err = ""
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction created",
		applog.FieldComponent, applog.ComponentTransactions,
		applog.FieldTransactionID, created.ID,
		applog.FieldAmountCents, created.Amount.Cents,
		applog.FieldCategory, created.Category)
	s.publish(ctx, ActionCreated, created.ID)
	return true
}

// Update replaces a transaction by id match. The type is immutable
// after creation: a payload that would flip income/expense is refused
// before any network call.
func (s *Transactions) Update(ctx context.Context, data core.Transaction) bool {
	if data.ID == "" || data.Amount.Cents <= 0 {
		return false
	}
	if err := data.Validate(); err != nil {
		return false
	}

	s.mu.Lock()
	for _, existing := range s.items {
		if existing.ID == data.ID && existing.Type != data.Type {
			s.mu.Unlock()
			return false
		}
	}
	s.mu.Unlock()

	var updated core.Transaction
	if err := s.api.Put(ctx, api.PathTransaction(data.ID), data, &updated); err != nil {
		s.setError(humanMessage(err, "Failed to update transaction"))
		return false
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == updated.ID {
			s.items[i] = updated
			break
		}
	}
	s.err = ""
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction updated",
		applog.FieldComponent, applog.ComponentTransactions,
		applog.FieldTransactionID, updated.ID)
	s.publish(ctx, ActionUpdated, updated.ID)
	return true
}

// Delete removes a transaction by id. An id unknown to the local
// collection still deletes server-side; the local filter is a no-op
// then.
func (s *Transactions) Delete(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}

	if err := s.api.Delete(ctx, api.PathTransaction(id)); err != nil {
		s.setError(humanMessage(err, "Failed to delete transaction"))
		return false
	}

	s.mu.Lock()
	kept := s.items[:0]
	removed := false
	for _, tx := range s.items {
		if tx.ID == id {
			removed = true
			continue
		}
		kept = append(kept, tx)
	}
	s.items = kept
	if removed && s.total > 0 {
		s.total--
	}
	s.err = ""
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldComponent, applog.ComponentTransactions,
		applog.FieldTransactionID, id)
	s.publish(ctx, ActionDeleted, id)
	return true
}

// Snapshot returns a copy of the current collection.
func (s *Transactions) Snapshot() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

func (s *Transactions) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Grouped is the read-side month-year projection for one transaction
// type. It never mutates the collection.
func (s *Transactions) Grouped(typ core.TransactionType) []core.MonthGroup {
	return core.GroupByMonth(s.Snapshot(), typ)
}

func (s *Transactions) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Transactions) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Transactions) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

func (s *Transactions) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func (s *Transactions) publish(ctx context.Context, action, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, action, id); err != nil {
		// Publishing is best effort and never surfaces to callers.
		slog.WarnContext(ctx, "Failed to publish transaction event",
			applog.FieldComponent, applog.ComponentTransactions,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldTransactionID, id,
			applog.FieldError, err.Error())
	}
}
