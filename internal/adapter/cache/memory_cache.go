package cache

import (
	"context"
	"sync"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// MemoryJournal — журнал синхронизаций в памяти процесса.
type MemoryJournal struct {
	mu    sync.RWMutex
	store map[string]domain.SyncRecord
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{store: make(map[string]domain.SyncRecord)}
}

func (c *MemoryJournal) Get(_ context.Context, orderCode string) (domain.SyncRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.store[orderCode]
	return rec, ok, nil
}

func (c *MemoryJournal) Record(_ context.Context, rec domain.SyncRecord) error {
	c.Set(rec)
	return nil
}

// Set кладёт запись, если она не старше уже сохранённой.
func (c *MemoryJournal) Set(rec domain.SyncRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.store[rec.OrderCode]; ok && cur.RecordedAt.After(rec.RecordedAt) {
		return
	}
	c.store[rec.OrderCode] = rec
}

func (c *MemoryJournal) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// CachedJournal пишет в хранилище, затем в память; читает из памяти,
// при промахе идёт в хранилище.
type CachedJournal struct {
	Store domain.SyncJournal
	Cache *MemoryJournal
}

func (j CachedJournal) Record(ctx context.Context, rec domain.SyncRecord) error {
	if err := j.Store.Record(ctx, rec); err != nil {
		return err
	}
	j.Cache.Set(rec)
	return nil
}

func (j CachedJournal) Get(ctx context.Context, orderCode string) (domain.SyncRecord, bool, error) {
	if rec, ok, _ := j.Cache.Get(ctx, orderCode); ok {
		return rec, true, nil
	}
	rec, ok, err := j.Store.Get(ctx, orderCode)
	if err != nil || !ok {
		return rec, ok, err
	}
	j.Cache.Set(rec)
	return rec, true, nil
}

var (
	_ domain.SyncJournal = (*MemoryJournal)(nil)
	_ domain.SyncJournal = CachedJournal{}
)
