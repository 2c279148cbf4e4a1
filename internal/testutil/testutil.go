// Package testutil provides shared test helpers for setting up stores, services and inbox directories.
package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/storage"
	"github.com/starford/mnemo/internal/store"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mnemo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInbox creates a temporary inbox directory with a storage.Provider.
func TestInbox(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestService creates a note service over a temporary SQLite store driven by clock.
func TestService(t *testing.T, clock *Clock, opts ...noteservice.Option) *noteservice.Service {
	t.Helper()
	opts = append([]noteservice.Option{noteservice.WithClock(clock.Now)}, opts...)
	return noteservice.NewService(TestDB(t), opts...)
}
