package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/adapter"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/models"
)

// testClock advances one second on every reading so that creation order is
// strict.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func copyFowl(f *models.Fowl) *models.Fowl {
	cp := *f
	return &cp
}

// ── local store ──────────────────────────────────────────────────────────────

// fakeLocal mirrors the SQLite local repository on a map.
type fakeLocal struct {
	mu   sync.Mutex
	rows map[string]*models.Fowl
	err  error
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{rows: make(map[string]*models.Fowl)}
}

func (l *fakeLocal) row(id string) *models.Fowl {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.rows[id]; ok {
		return copyFowl(f)
	}
	return nil
}

func (l *fakeLocal) GetByID(_ context.Context, id string, includeDeleted bool) (*models.Fowl, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	f, ok := l.rows[id]
	if !ok || (f.IsDeleted && !includeDeleted) {
		return nil, store.ErrEntityNotFound
	}
	return copyFowl(f), nil
}

func (l *fakeLocal) sorted(keep func(*models.Fowl) bool, less func(a, b *models.Fowl) int) []*models.Fowl {
	out := make([]*models.Fowl, 0, len(l.rows))
	for _, f := range l.rows {
		if keep(f) {
			out = append(out, copyFowl(f))
		}
	}
	slices.SortFunc(out, less)
	return out
}

func byCreation(a, b *models.Fowl) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (l *fakeLocal) GetPage(_ context.Context, limit, offset int) ([]*models.Fowl, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	rows := l.sorted(func(f *models.Fowl) bool { return !f.IsDeleted }, byCreation)
	if offset >= len(rows) {
		return []*models.Fowl{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func isPendingStatus(s models.SyncStatus) bool {
	return s == models.SyncStatusPendingUpload || s == models.SyncStatusError
}

func (l *fakeLocal) GetAllPendingSync(_ context.Context, filter store.PendingFilter) ([]*models.Fowl, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	rows := l.sorted(func(f *models.Fowl) bool {
		if !isPendingStatus(f.SyncStatus) {
			return false
		}
		if filter.MaxRetries > 0 && f.RetryCount >= filter.MaxRetries {
			return false
		}
		return filter.Priority == models.PriorityUnset || f.Priority == filter.Priority
	}, func(a, b *models.Fowl) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return byCreation(a, b)
	})
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func (l *fakeLocal) Upsert(_ context.Context, entities ...*models.Fowl) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	for _, f := range entities {
		l.rows[f.ID] = copyFowl(f)
	}
	return nil
}

func (l *fakeLocal) update(id string, fn func(f *models.Fowl)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	f, ok := l.rows[id]
	if !ok {
		return store.ErrEntityNotFound
	}
	fn(f)
	return nil
}

func (l *fakeLocal) Delete(_ context.Context, id string, deletedAt time.Time) error {
	return l.update(id, func(f *models.Fowl) {
		f.IsDeleted = true
		f.SyncStatus = models.SyncStatusPendingUpload
		f.RetryCount = 0
		f.ConflictVersion++
		f.UpdatedAt = deletedAt
	})
}

func (l *fakeLocal) MarkSynced(_ context.Context, id string, syncedAt time.Time, version int64) error {
	return l.update(id, func(f *models.Fowl) {
		f.MarkSynced(syncedAt, version)
	})
}

func (l *fakeLocal) IncrementRetryCount(_ context.Context, id string) error {
	return l.update(id, func(f *models.Fowl) { f.RetryCount++ })
}

func (l *fakeLocal) ClearRetryCount(_ context.Context, id string) error {
	return l.update(id, func(f *models.Fowl) { f.RetryCount = 0 })
}

func (l *fakeLocal) deleteWhere(keep func(*models.Fowl) bool) int64 {
	var n int64
	for id, f := range l.rows {
		if !keep(f) {
			delete(l.rows, id)
			n++
		}
	}
	return n
}

func (l *fakeLocal) ResetExhausted(_ context.Context, maxRetries int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, f := range l.rows {
		if isPendingStatus(f.SyncStatus) && f.RetryCount >= maxRetries {
			f.RetryCount = 0
			n++
		}
	}
	return n, nil
}

func (l *fakeLocal) DeleteOldSyncedItems(_ context.Context, olderThan time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteWhere(func(f *models.Fowl) bool {
		return f.SyncStatus != models.SyncStatusSynced || !f.UpdatedAt.Before(olderThan)
	}), nil
}

func (l *fakeLocal) DeleteLowPriorityItems(_ context.Context, limit int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		return 0, nil
	}
	victims := l.sorted(func(f *models.Fowl) bool {
		return f.SyncStatus == models.SyncStatusSynced && f.Priority == models.PriorityLow
	}, func(a, b *models.Fowl) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if len(victims) > limit {
		victims = victims[:limit]
	}
	for _, v := range victims {
		delete(l.rows, v.ID)
	}
	return int64(len(victims)), nil
}

func (l *fakeLocal) PurgeDeleted(_ context.Context, olderThan time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteWhere(func(f *models.Fowl) bool {
		return !f.IsDeleted || f.SyncStatus != models.SyncStatusSynced || !f.UpdatedAt.Before(olderThan)
	}), nil
}

func (l *fakeLocal) CountPending(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, f := range l.rows {
		if isPendingStatus(f.SyncStatus) {
			n++
		}
	}
	return n, nil
}

// ── outbox ───────────────────────────────────────────────────────────────────

type fakeOutbox struct {
	mu      sync.Mutex
	entries []*models.OutboxEntry
	seq     int
	now     func() time.Time
	err     error
}

func newFakeOutbox(now func() time.Time) *fakeOutbox {
	return &fakeOutbox{now: now}
}

func (o *fakeOutbox) snapshot() []models.OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.OutboxEntry, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, *e)
	}
	return out
}

func (o *fakeOutbox) Enqueue(_ context.Context, entry *models.OutboxEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.seq++
	entry.ID = "obx-" + strconv.Itoa(o.seq)
	entry.Status = models.OutboxStatusPending
	entry.CreatedAt = o.now()
	cp := *entry
	o.entries = append(o.entries, &cp)
	return nil
}

func (o *fakeOutbox) GetByStatus(_ context.Context, status models.OutboxStatus, limit int) ([]models.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.OutboxEntry
	for _, e := range o.entries {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (o *fakeOutbox) GetRetryable(_ context.Context, maxRetries, limit int) ([]models.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.OutboxEntry
	for _, e := range o.entries {
		if e.Status == models.OutboxStatusPending || (e.Status == models.OutboxStatusFailed && e.RetryCount < maxRetries) {
			out = append(out, *e)
		}
	}
	slices.SortStableFunc(out, func(a, b models.OutboxEntry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (o *fakeOutbox) find(id string) *models.OutboxEntry {
	for _, e := range o.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (o *fakeOutbox) MarkSuccess(_ context.Context, attemptAt time.Time, ids ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		if e := o.find(id); e != nil {
			e.Status = models.OutboxStatusSuccess
			e.LastAttemptAt = &attemptAt
			e.ErrorMessage = ""
		}
	}
	return nil
}

func (o *fakeOutbox) MarkFailed(_ context.Context, id, message string, attemptAt time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e := o.find(id)
	if e == nil {
		return store.ErrOutboxEntryNotFound
	}
	e.Status = models.OutboxStatusFailed
	e.RetryCount++
	e.LastAttemptAt = &attemptAt
	e.ErrorMessage = message
	return nil
}

func (o *fakeOutbox) filter(keep func(*models.OutboxEntry) bool) int64 {
	kept := o.entries[:0]
	var removed int64
	for _, e := range o.entries {
		if keep(e) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	o.entries = kept
	return removed
}

func (o *fakeOutbox) DeleteSucceeded(_ context.Context) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter(func(e *models.OutboxEntry) bool { return e.Status != models.OutboxStatusSuccess }), nil
}

func (o *fakeOutbox) DeleteExhausted(_ context.Context, maxRetries int, olderThan time.Time) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter(func(e *models.OutboxEntry) bool {
		return e.Status != models.OutboxStatusFailed || e.RetryCount < maxRetries || !e.CreatedAt.Before(olderThan)
	}), nil
}

func (o *fakeOutbox) ResetFailedToQueued(_ context.Context) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int64
	for _, e := range o.entries {
		if e.Status == models.OutboxStatusFailed {
			e.Status = models.OutboxStatusPending
			e.RetryCount = 0
			e.ErrorMessage = ""
			n++
		}
	}
	return n, nil
}

func (o *fakeOutbox) CountByStatus(_ context.Context) (models.OutboxStatusCounts, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	counts := make(models.OutboxStatusCounts)
	for _, e := range o.entries {
		counts[e.Status]++
	}
	return counts, nil
}

// ── remote store ─────────────────────────────────────────────────────────────

// fakeRemote is an in-memory document server for fowls. The server assigns
// versions: 1 on create, +1 on every update or delete.
type fakeRemote struct {
	mu    sync.Mutex
	docs  map[string]*models.Fowl
	order []string
	calls []string

	// fail, when set, is consulted before every call.
	fail func(op, id string) error
	// onCall runs before every call, outside the lock.
	onCall func(op, id string)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string]*models.Fowl)}
}

func (r *fakeRemote) begin(op, id string) error {
	if r.onCall != nil {
		r.onCall(op, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+":"+id)
	if r.fail != nil {
		return r.fail(op, id)
	}
	return nil
}

func (r *fakeRemote) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if len(c) > len(op) && c[:len(op)+1] == op+":" {
			n++
		}
	}
	return n
}

func (r *fakeRemote) doc(id string) *models.Fowl {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.docs[id]; ok {
		return copyFowl(f)
	}
	return nil
}

// seed stores f on the server as is.
func (r *fakeRemote) seed(f *models.Fowl) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[f.ID]; !ok {
		r.order = append(r.order, f.ID)
	}
	r.docs[f.ID] = copyFowl(f)
}

func (r *fakeRemote) out(f *models.Fowl) *models.Fowl {
	cp := copyFowl(f)
	cp.SyncStatus = models.SyncStatusSynced
	cp.RetryCount = 0
	return cp
}

func (r *fakeRemote) FetchByID(_ context.Context, id string) (*models.Fowl, error) {
	if err := r.begin("fetch", id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.docs[id]
	if !ok || f.IsDeleted {
		return nil, fmt.Errorf("%w: %s", adapter.ErrRemoteNotFound, id)
	}
	return r.out(f), nil
}

func (r *fakeRemote) live() []*models.Fowl {
	out := make([]*models.Fowl, 0, len(r.order))
	for _, id := range r.order {
		if f := r.docs[id]; !f.IsDeleted {
			out = append(out, r.out(f))
		}
	}
	return out
}

func (r *fakeRemote) FetchAll(_ context.Context, page models.Page) ([]*models.Fowl, error) {
	if err := r.begin("list", ""); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.live()
	if page.Offset >= len(items) {
		return []*models.Fowl{}, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items, nil
}

func (r *fakeRemote) Query(_ context.Context, q models.Query) ([]*models.Fowl, error) {
	if err := r.begin("query", ""); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.live()
	if len(q.Filters) == 0 {
		return items, nil
	}
	out := items[:0]
	for _, f := range items {
		if fl := q.Filters[0]; fl.Field == "name" && fl.Op == models.OpEqual && fl.Value == f.Name {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeRemote) Create(_ context.Context, entity *models.Fowl) (*models.Fowl, error) {
	if err := r.begin("create", entity.ID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.docs[entity.ID]
	if ok && !prev.IsDeleted {
		return nil, fmt.Errorf("%w: %s", adapter.ErrRemoteConflict, entity.ID)
	}
	stored := copyFowl(entity)
	stored.ConflictVersion = 1
	if ok {
		stored.ConflictVersion = prev.ConflictVersion + 1
	} else {
		r.order = append(r.order, entity.ID)
	}
	stored.IsDeleted = false
	r.docs[entity.ID] = stored
	return r.out(stored), nil
}

func (r *fakeRemote) Update(_ context.Context, entity *models.Fowl) (*models.Fowl, error) {
	if err := r.begin("update", entity.ID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.docs[entity.ID]
	if !ok || prev.IsDeleted {
		return nil, fmt.Errorf("%w: %s", adapter.ErrRemoteNotFound, entity.ID)
	}
	stored := copyFowl(entity)
	stored.ConflictVersion = prev.ConflictVersion + 1
	stored.IsDeleted = false
	r.docs[entity.ID] = stored
	return r.out(stored), nil
}

func (r *fakeRemote) Delete(_ context.Context, id string) (*models.Fowl, error) {
	if err := r.begin("delete", id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.docs[id]
	if !ok || prev.IsDeleted {
		return nil, fmt.Errorf("%w: %s", adapter.ErrRemoteNotFound, id)
	}
	prev.IsDeleted = true
	prev.ConflictVersion++
	return r.out(prev), nil
}
