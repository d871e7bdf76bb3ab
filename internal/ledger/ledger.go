// Package ledger implements in-progress transaction entry. A Ledger
// accumulates sold and exchange lines plus a payment split, validating
// each mutation, and commits the finished transaction exactly once.
package ledger

import (
	"context"
	"fmt"
	"time"

	"dailyregister/internal/core"
)

// Resolver resolves item codes during entry, normally the catalog.
type Resolver interface {
	Lookup(code string) (core.CatalogEntry, bool)
	Touch(ctx context.Context, code string, at time.Time) error
}

// Writer persists the committed transaction, normally the storage layer.
type Writer interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
}

type Ledger struct {
	resolver  Resolver
	date      core.Date
	comments  string
	newItems  []core.NewItem
	oldItems  []core.OldItem
	payment   core.Payment
	committed bool
	now       func() time.Time
}

// New starts an empty ledger for the given day.
func New(resolver Resolver, date core.Date) *Ledger {
	return &Ledger{resolver: resolver, date: date, now: time.Now}
}

// AddNewItem resolves the code against the catalog and appends a sold
// line. Name and material are copied from the catalog entry so later
// catalog edits never rewrite this transaction.
func (l *Ledger) AddNewItem(code string, weight, amount float64, billable bool) error {
	if l.committed {
		return core.ErrLedgerCommitted
	}
	entry, ok := l.resolver.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownItemCode, code)
	}
	item := core.NewItem{
		Code:     entry.Code,
		Name:     entry.Name,
		Material: entry.Material,
		Weight:   weight,
		Amount:   amount,
		Billable: billable,
	}
	if err := item.Validate(); err != nil {
		return err
	}
	l.newItems = append(l.newItems, item)
	return nil
}

// AddOldItem appends an exchange line. Only gold and silver are taken in
// exchange.
func (l *Ledger) AddOldItem(material core.Material, weight, amount float64) error {
	if l.committed {
		return core.ErrLedgerCommitted
	}
	item := core.OldItem{Material: material, Weight: weight, Amount: amount}
	if err := item.Validate(); err != nil {
		return err
	}
	l.oldItems = append(l.oldItems, item)
	return nil
}

// RemoveNewItem drops the sold line at index i, keeping the order of the
// rest.
func (l *Ledger) RemoveNewItem(i int) error {
	if l.committed {
		return core.ErrLedgerCommitted
	}
	if i < 0 || i >= len(l.newItems) {
		return fmt.Errorf("no sold line at index %d", i)
	}
	l.newItems = append(l.newItems[:i], l.newItems[i+1:]...)
	return nil
}

// RemoveOldItem drops the exchange line at index i.
func (l *Ledger) RemoveOldItem(i int) error {
	if l.committed {
		return core.ErrLedgerCommitted
	}
	if i < 0 || i >= len(l.oldItems) {
		return fmt.Errorf("no exchange line at index %d", i)
	}
	l.oldItems = append(l.oldItems[:i], l.oldItems[i+1:]...)
	return nil
}

// SetPayment replaces the payment split. On a validation failure the
// previous split and all lines are untouched.
func (l *Ledger) SetPayment(p core.Payment) error {
	if l.committed {
		return core.ErrLedgerCommitted
	}
	if err := p.Validate(); err != nil {
		return err
	}
	l.payment = p
	return nil
}

func (l *Ledger) SetComments(s string) {
	l.comments = s
}

// NewItems returns a copy of the sold lines entered so far.
func (l *Ledger) NewItems() []core.NewItem {
	return append([]core.NewItem(nil), l.newItems...)
}

// OldItems returns a copy of the exchange lines entered so far.
func (l *Ledger) OldItems() []core.OldItem {
	return append([]core.OldItem(nil), l.oldItems...)
}

func (l *Ledger) Payment() core.Payment {
	return l.payment
}

// Total is the running sum of sold-line amounts, shown live during
// entry. Exchange lines never reduce it.
func (l *Ledger) Total() float64 {
	return core.NewTotal(l.newItems)
}

// Commit validates, persists and seals the ledger. A ledger with no
// lines at all cannot be committed. After a successful commit every
// further mutation or commit fails with ErrLedgerCommitted; on failure
// the ledger stays open for correction.
func (l *Ledger) Commit(ctx context.Context, w Writer) (int64, error) {
	if l.committed {
		return 0, core.ErrLedgerCommitted
	}

	now := l.now()
	t := core.Transaction{
		Date:      l.date,
		Timestamp: now,
		Comments:  l.comments,
		NewItems:  l.newItems,
		OldItems:  l.oldItems,
		Payment:   l.payment,
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := w.Create(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	l.committed = true

	// mark each distinct code as used, once
	touched := make(map[string]bool, len(l.newItems))
	for _, item := range l.newItems {
		if touched[item.Code] {
			continue
		}
		touched[item.Code] = true
		if err := l.resolver.Touch(ctx, item.Code, now); err != nil {
			return id, fmt.Errorf("record code use %s: %w", item.Code, err)
		}
	}

	return id, nil
}
