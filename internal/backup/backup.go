// Package backup copies the sqlite file to timestamped snapshots and
// restores them. Restore is the only operation that touches the live
// database file, and it snapshots the current state first so a bad
// restore is itself recoverable.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupPrefix     = "db_backup_"
	preRestorePrefix = "pre_restore_backup_"
	stampLayout      = "20060102_150405"
)

// ErrBackupNotFound is returned when a restore names a file that is not
// in the backup directory.
var ErrBackupNotFound = errors.New("backup not found")

// Reiniter reopens the database connection after the backing file has
// been swapped. Satisfied by the storage layer.
type Reiniter interface {
	Reinit() error
}

// Backup describes one snapshot file.
type Backup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

type Manager struct {
	dbPath string
	dir    string
	store  Reiniter
	now    func() time.Time
}

func NewManager(dbPath, dir string, store Reiniter) *Manager {
	return &Manager{dbPath: dbPath, dir: dir, store: store, now: time.Now}
}

// Create copies the live database into the backup directory and returns
// the snapshot's description.
func (m *Manager) Create(ctx context.Context) (Backup, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return Backup{}, fmt.Errorf("create backup directory: %w", err)
	}

	at := m.now()
	name := backupPrefix + at.Format(stampLayout) + ".db"
	dest := filepath.Join(m.dir, name)
	if err := copyFile(m.dbPath, dest); err != nil {
		return Backup{}, fmt.Errorf("create backup: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Backup{}, fmt.Errorf("stat backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup created", "name", name, "size", info.Size())
	return Backup{Name: name, Path: dest, CreatedAt: at, Size: info.Size()}, nil
}

// Restore replaces the live database with the named snapshot. The
// current state is snapshotted to a pre_restore file first, then the
// store is reinitialized against the swapped file.
func (m *Manager) Restore(ctx context.Context, name string) error {
	// names come from the API; never let one escape the backup dir
	if name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrBackupNotFound, name)
	}
	src := filepath.Join(m.dir, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: %q", ErrBackupNotFound, name)
	}

	preName := preRestorePrefix + m.now().Format(stampLayout) + ".db"
	if err := copyFile(m.dbPath, filepath.Join(m.dir, preName)); err != nil {
		return fmt.Errorf("snapshot before restore: %w", err)
	}

	if err := copyFile(src, m.dbPath); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	if err := m.store.Reinit(); err != nil {
		return fmt.Errorf("reopen database after restore: %w", err)
	}

	slog.InfoContext(ctx, "Backup restored", "name", name, "pre_restore", preName)
	return nil
}

// List returns the snapshots in the backup directory, newest first.
// Pre-restore snapshots are included; they are restorable like any
// other.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []Backup
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		at, ok := parseStamp(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup %s: %w", e.Name(), err)
		}
		backups = append(backups, Backup{
			Name:      e.Name(),
			Path:      filepath.Join(m.dir, e.Name()),
			CreatedAt: at,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// AutoBackup creates a snapshot if none exists for today. Called on a
// timer; the once-a-day check makes the timer interval irrelevant.
func (m *Manager) AutoBackup(ctx context.Context) error {
	today := m.now().Format("20060102")
	backups, err := m.List()
	if err != nil {
		return err
	}
	for _, b := range backups {
		if strings.HasPrefix(b.Name, backupPrefix) && b.CreatedAt.Format("20060102") == today {
			return nil
		}
	}
	_, err = m.Create(ctx)
	return err
}

// parseStamp recovers the creation time from a snapshot filename.
func parseStamp(name string) (time.Time, bool) {
	var rest string
	switch {
	case strings.HasPrefix(name, preRestorePrefix):
		rest = strings.TrimPrefix(name, preRestorePrefix)
	case strings.HasPrefix(name, backupPrefix):
		rest = strings.TrimPrefix(name, backupPrefix)
	default:
		return time.Time{}, false
	}
	rest = strings.TrimSuffix(rest, ".db")
	at, err := time.ParseInLocation(stampLayout, rest, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", dest, err)
	}
	return nil
}
