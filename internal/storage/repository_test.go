package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"dailyregister/internal/core"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transactions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTransaction(day core.Date) core.Transaction {
	return core.Transaction{
		Date:      day,
		Timestamp: day.Add(10 * time.Hour),
		Comments:  "walk-in",
		NewItems: []core.NewItem{
			{Code: "GCH", Name: "Gold Chain", Material: core.Gold, Weight: 10, Amount: 50000, Billable: true},
			{Code: "SR", Name: "Silver Ring", Material: core.Silver, Weight: 4, Amount: 1200},
		},
		OldItems: []core.OldItem{
			{Material: core.Gold, Weight: 2.5, Amount: 11000},
		},
		Payment: core.Payment{Cash: 20000, Card: 30000, UPI: 1200},
	}
}

func TestCreateAndGetByDateRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 1)

	want := sampleTransaction(day)
	id, err := s.Create(ctx, want)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get by date: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}

	tx := got[0]
	if tx.ID != id || tx.Comments != "walk-in" {
		t.Fatalf("header mismatch: %+v", tx)
	}
	if !reflect.DeepEqual(tx.NewItems, want.NewItems) {
		t.Fatalf("new items mismatch:\n got %+v\nwant %+v", tx.NewItems, want.NewItems)
	}
	if !reflect.DeepEqual(tx.OldItems, want.OldItems) {
		t.Fatalf("old items mismatch:\n got %+v\nwant %+v", tx.OldItems, want.OldItems)
	}
	if tx.Payment != want.Payment {
		t.Fatalf("payment mismatch: %+v", tx.Payment)
	}
	// totals derived at create time, equal to the line sums
	if tx.TotalAmount != 51200 {
		t.Fatalf("TotalAmount = %v", tx.TotalAmount)
	}
	if tx.NetAmountPaid != 51200 {
		t.Fatalf("NetAmountPaid = %v", tx.NetAmountPaid)
	}
}

func TestGetByDateInsertionOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 2)

	for i, comment := range []string{"first", "second", "third"} {
		tx := sampleTransaction(day)
		tx.Comments = comment
		tx.Timestamp = day.Add(time.Duration(9+i) * time.Hour)
		if _, err := s.Create(ctx, tx); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get by date: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Comments != want {
			t.Fatalf("position %d: got %q", i, got[i].Comments)
		}
	}
}

func TestGetByDateRangeNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	d1 := core.NewDate(2024, time.May, 1)
	d2 := core.NewDate(2024, time.May, 3)
	id1, _ := s.Create(ctx, sampleTransaction(d1))
	id2, _ := s.Create(ctx, sampleTransaction(d2))
	id3, _ := s.Create(ctx, sampleTransaction(d2))

	got, err := s.GetByDateRange(ctx, d1, d2)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	// date desc, then id desc
	wantOrder := []int64{id3, id2, id1}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, got[i].ID, want)
		}
	}

	// out-of-range day excluded
	if out, _ := s.GetByDateRange(ctx, core.NewDate(2024, time.May, 4), core.NewDate(2024, time.May, 5)); len(out) != 0 {
		t.Fatalf("expected empty range, got %d", len(out))
	}
}

func TestRangeSingleDayMatchesGetByDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.June, 10)

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, sampleTransaction(day)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byDate, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get by date: %v", err)
	}
	byRange, err := s.GetByDateRange(ctx, day, day)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(byDate) != len(byRange) {
		t.Fatalf("count mismatch: %d vs %d", len(byDate), len(byRange))
	}
	// same content; orders are reversed by contract
	seen := make(map[int64]bool)
	for _, tx := range byDate {
		seen[tx.ID] = true
	}
	for _, tx := range byRange {
		if !seen[tx.ID] {
			t.Fatalf("id %d missing from by-date result", tx.ID)
		}
	}
}

func TestUpdateReplacesLinesAndPayment(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 5)

	id, err := s.Create(ctx, sampleTransaction(day))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := core.Transaction{
		NewItems: []core.NewItem{
			{Code: "MIX", Name: "Mixed Items", Material: core.Other, Weight: 1, Amount: 700},
		},
		Payment:  core.Payment{UPI: 700},
		Comments: "corrected",
	}
	if err := s.Update(ctx, id, replacement); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1, got %d", len(got))
	}
	tx := got[0]
	if len(tx.NewItems) != 1 || tx.NewItems[0].Code != "MIX" {
		t.Fatalf("lines not replaced: %+v", tx.NewItems)
	}
	if len(tx.OldItems) != 0 {
		t.Fatalf("old lines not cleared: %+v", tx.OldItems)
	}
	if tx.Comments != "corrected" || tx.TotalAmount != 700 || tx.NetAmountPaid != 700 {
		t.Fatalf("header not replaced: %+v", tx)
	}
	// date survives the edit
	if !tx.Date.Equal(day.Time) {
		t.Fatalf("date changed: %v", tx.Date)
	}
}

func TestUpdateMissingID(t *testing.T) {
	s := testStore(t)
	err := s.Update(context.Background(), 9999, core.Transaction{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 6)

	id, err := s.Create(ctx, sampleTransaction(day))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("transaction still visible: %+v", got)
	}

	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAllForDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 7)
	other := core.NewDate(2024, time.May, 8)

	for i := 0; i < 2; i++ {
		if _, err := s.Create(ctx, sampleTransaction(day)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	keepID, err := s.Create(ctx, sampleTransaction(other))
	if err != nil {
		t.Fatalf("create keeper: %v", err)
	}

	count, err := s.DeleteAllForDate(ctx, day)
	if err != nil {
		t.Fatalf("delete day: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	kept, err := s.GetByDate(ctx, other)
	if err != nil {
		t.Fatalf("get keeper: %v", err)
	}
	if len(kept) != 1 || kept[0].ID != keepID {
		t.Fatalf("other day affected: %+v", kept)
	}
}

func TestItemCodeOps(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if n, err := s.CountCodes(ctx); err != nil || n != 0 {
		t.Fatalf("fresh store codes = %d, err = %v", n, err)
	}

	entry := core.CatalogEntry{Code: "GCH", Name: "Gold Chain", Material: core.Gold}
	if err := s.UpsertCode(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.TouchCode(ctx, "GCH", at); err != nil {
		t.Fatalf("touch: %v", err)
	}

	entries, err := s.ListCodes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Code != "GCH" || got.Name != "Gold Chain" || got.Material != core.Gold {
		t.Fatalf("entry mismatch: %+v", got)
	}
	if !got.LastUsed.Equal(at) {
		t.Fatalf("last used = %v, want %v", got.LastUsed, at)
	}

	// upsert replaces in place
	entry.Name = "Gold Chain 22k"
	if err := s.UpsertCode(ctx, entry); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	entries, _ = s.ListCodes(ctx)
	if len(entries) != 1 || entries[0].Name != "Gold Chain 22k" {
		t.Fatalf("replace failed: %+v", entries)
	}

	if err := s.DeleteCode(ctx, "GCH"); err != nil {
		t.Fatalf("delete code: %v", err)
	}
	if n, _ := s.CountCodes(ctx); n != 0 {
		t.Fatalf("codes left after delete: %d", n)
	}
}

func TestReinitKeepsData(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	day := core.NewDate(2024, time.May, 9)

	if _, err := s.Create(ctx, sampleTransaction(day)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Reinit(); err != nil {
		t.Fatalf("reinit: %v", err)
	}
	got, err := s.GetByDate(ctx, day)
	if err != nil {
		t.Fatalf("get after reinit: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 after reinit, got %d", len(got))
	}
}
