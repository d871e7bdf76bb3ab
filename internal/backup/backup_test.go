package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	reinits int
	err     error
}

func (s *fakeStore) Reinit() error {
	s.reinits++
	return s.err
}

func testManager(t *testing.T) (*Manager, string, *fakeStore) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "transactions.db")
	if err := os.WriteFile(dbPath, []byte("live database"), 0644); err != nil {
		t.Fatalf("seed db file: %v", err)
	}
	store := &fakeStore{}
	m := NewManager(dbPath, filepath.Join(root, "backups"), store)
	return m, dbPath, store
}

func TestCreateSnapshotsLiveFile(t *testing.T) {
	m, _, _ := testManager(t)
	at := time.Date(2024, 5, 1, 14, 30, 5, 0, time.Local)
	m.now = func() time.Time { return at }

	b, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Name != "db_backup_20240501_143005.db" {
		t.Fatalf("name = %q", b.Name)
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "live database" {
		t.Fatalf("backup content = %q", data)
	}
	if b.Size != int64(len("live database")) {
		t.Fatalf("size = %d", b.Size)
	}
}

func TestListNewestFirst(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	stamps := []time.Time{
		time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 3, 10, 0, 0, 0, time.Local),
		time.Date(2024, 5, 2, 10, 0, 0, 0, time.Local),
	}
	for _, at := range stamps {
		at := at
		m.now = func() time.Time { return at }
		if _, err := m.Create(ctx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(got))
	}
	want := []string{"db_backup_20240503_100000.db", "db_backup_20240502_100000.db", "db_backup_20240501_100000.db"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestListEmptyWhenDirMissing(t *testing.T) {
	m, _, _ := testManager(t)
	got, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no backups, got %+v", got)
	}
}

func TestRestoreSwapsFileAndReinits(t *testing.T) {
	m, dbPath, store := testManager(t)
	ctx := context.Background()

	b, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// the live file moves on after the snapshot
	if err := os.WriteFile(dbPath, []byte("newer state"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := m.Restore(ctx, b.Name); err != nil {
		t.Fatalf("restore: %v", err)
	}

	data, _ := os.ReadFile(dbPath)
	if string(data) != "live database" {
		t.Fatalf("restored content = %q", data)
	}
	if store.reinits != 1 {
		t.Fatalf("reinits = %d", store.reinits)
	}

	// the overwritten state survives as a pre_restore snapshot
	backups, _ := m.List()
	var pre *Backup
	for i := range backups {
		if strings.HasPrefix(backups[i].Name, "pre_restore_backup_") {
			pre = &backups[i]
		}
	}
	if pre == nil {
		t.Fatalf("no pre-restore snapshot in %+v", backups)
	}
	preData, _ := os.ReadFile(pre.Path)
	if string(preData) != "newer state" {
		t.Fatalf("pre-restore content = %q", preData)
	}
}

func TestRestoreUnknownName(t *testing.T) {
	m, _, store := testManager(t)

	err := m.Restore(context.Background(), "db_backup_19990101_000000.db")
	if !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("got %v, want ErrBackupNotFound", err)
	}
	if err := m.Restore(context.Background(), "../transactions.db"); !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("path traversal: got %v, want ErrBackupNotFound", err)
	}
	if store.reinits != 0 {
		t.Fatalf("reinit called on failed restore")
	}
}

func TestAutoBackupOncePerDay(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	m.now = func() time.Time { return day1 }
	if err := m.AutoBackup(ctx); err != nil {
		t.Fatalf("auto backup: %v", err)
	}

	// later the same day: no second snapshot
	m.now = func() time.Time { return day1.Add(6 * time.Hour) }
	if err := m.AutoBackup(ctx); err != nil {
		t.Fatalf("auto backup repeat: %v", err)
	}
	if got, _ := m.List(); len(got) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(got))
	}

	// next day: one more
	m.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	if err := m.AutoBackup(ctx); err != nil {
		t.Fatalf("auto backup next day: %v", err)
	}
	if got, _ := m.List(); len(got) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(got))
	}
}
