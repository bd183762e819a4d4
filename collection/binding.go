// ABOUTME: Collection-bound state container over a remote record store
// ABOUTME: Tracks data, loading and error per binding and discards stale fetch results by request id
package collection

import (
	"context"
	"sync"

	"github.com/jstnrme77/reportcard-portal/models"
)

// Store is the remote record store a binding reads and writes through.
type Store interface {
	List(ctx context.Context, table string, q *models.Query) ([]models.Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (models.Record, error)
	Update(ctx context.Context, table, id string, fields map[string]any) (models.Record, error)
	Remove(ctx context.Context, table, id string) (bool, error)
}

// Entity is a typed view model with a record id.
type Entity interface {
	RecordID() string
}

// State is a point-in-time copy of a binding.
type State[T Entity] struct {
	Data      []T
	IsLoading bool
	Err       error
}

// Option configures a binding at construction.
type Option func(*options)

type options struct {
	query   *models.Query
	enabled bool
}

// WithQuery sets the initial query.
func WithQuery(q models.Query) Option {
	return func(o *options) {
		o.query = q.Clone()
	}
}

// WithEnabled sets the initial enabled flag. Bindings are enabled by default.
func WithEnabled(enabled bool) Option {
	return func(o *options) {
		o.enabled = enabled
	}
}

// Binding keeps an in-memory list in step with one collection.
//
// Each binding owns its data. Two bindings over the same table do not see each
// other's mutations; call Refetch on the other one when that matters.
type Binding[T Entity] struct {
	store  Store
	table  string
	decode func(models.Record) T

	mu        sync.Mutex
	query     *models.Query
	enabled   bool
	data      []T
	loading   bool
	err       error
	requestID uint64

	subs    map[int]chan struct{}
	nextSub int
}

// New binds a state container to table. Nothing is fetched until Fetch is called;
// an enabled binding reports IsLoading until its first fetch completes.
func New[T Entity](store Store, table string, decode func(models.Record) T, opts ...Option) *Binding[T] {
	o := options{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binding[T]{
		store:   store,
		table:   table,
		decode:  decode,
		query:   o.query,
		enabled: o.enabled,
		data:    []T{},
		loading: o.enabled,
		subs:    make(map[int]chan struct{}),
	}
}

// Table returns the bound collection name.
func (b *Binding[T]) Table() string {
	return b.table
}

// Snapshot returns a copy of the current state.
func (b *Binding[T]) Snapshot() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State[T]{
		Data:      append([]T(nil), b.data...),
		IsLoading: b.loading,
		Err:       b.err,
	}
}

// Query returns a copy of the current query.
func (b *Binding[T]) Query() *models.Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query.Clone()
}

// Enabled reports whether fetches are performed.
func (b *Binding[T]) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Fetch lists the collection and replaces data on success. On failure the error
// is recorded and data is left as it was. If another fetch starts before this one
// returns, this one's result is dropped. A fetch whose ctx is done when it fails
// only clears IsLoading; the caller gave up, so nothing is recorded.
func (b *Binding[T]) Fetch(ctx context.Context) {
	b.mu.Lock()
	if !b.enabled {
		b.loading = false
		b.mu.Unlock()
		b.notify()
		return
	}
	b.requestID++
	id := b.requestID
	q := b.query.Clone()
	b.loading = true
	b.mu.Unlock()
	b.notify()

	records, err := b.store.List(ctx, b.table, q)

	var items []T
	if err == nil {
		items = make([]T, 0, len(records))
		for _, r := range records {
			items = append(items, b.decode(r))
		}
	}

	b.mu.Lock()
	if id != b.requestID {
		b.mu.Unlock()
		return
	}
	switch {
	case err != nil && ctx.Err() != nil:
	case err != nil:
		b.err = err
	default:
		b.data = items
		b.err = nil
	}
	b.loading = false
	b.mu.Unlock()
	b.notify()
}

// Refetch is Fetch, for use after something else changed the collection.
func (b *Binding[T]) Refetch(ctx context.Context) {
	b.Fetch(ctx)
}

// SetQuery replaces the query and refetches when it actually changed.
func (b *Binding[T]) SetQuery(ctx context.Context, q models.Query) {
	b.mu.Lock()
	if b.query.Key() == q.Key() {
		b.mu.Unlock()
		return
	}
	b.query = q.Clone()
	b.mu.Unlock()
	b.Fetch(ctx)
}

// SetEnabled toggles fetching. Turning it on fetches; turning it off drops any
// fetch still in flight and clears IsLoading.
func (b *Binding[T]) SetEnabled(ctx context.Context, enabled bool) {
	b.mu.Lock()
	if b.enabled == enabled {
		b.mu.Unlock()
		return
	}
	b.enabled = enabled
	if !enabled {
		b.requestID++
		b.loading = false
	}
	b.mu.Unlock()

	if enabled {
		b.Fetch(ctx)
		return
	}
	b.notify()
}

// Create adds a record and appends it to data.
func (b *Binding[T]) Create(ctx context.Context, fields map[string]any) (T, error) {
	rec, err := b.store.Create(ctx, b.table, fields)
	if err != nil {
		var zero T
		b.fail(err)
		return zero, err
	}

	item := b.decode(rec)
	b.mu.Lock()
	b.data = append(b.data, item)
	b.mu.Unlock()
	b.notify()
	return item, nil
}

// Update applies a partial update and replaces the element with the same id.
func (b *Binding[T]) Update(ctx context.Context, id string, fields map[string]any) (T, error) {
	rec, err := b.store.Update(ctx, b.table, id, fields)
	if err != nil {
		var zero T
		b.fail(err)
		return zero, err
	}

	item := b.decode(rec)
	b.mu.Lock()
	next := make([]T, len(b.data))
	for i, existing := range b.data {
		if existing.RecordID() == id {
			next[i] = item
		} else {
			next[i] = existing
		}
	}
	b.data = next
	b.mu.Unlock()
	b.notify()
	return item, nil
}

// Remove deletes a record and filters it out of data.
func (b *Binding[T]) Remove(ctx context.Context, id string) error {
	deleted, err := b.store.Remove(ctx, b.table, id)
	if err == nil && !deleted {
		err = &models.RemoteError{Op: "remove", Collection: b.table, RecordID: id, Message: "record was not deleted"}
	}
	if err != nil {
		b.fail(err)
		return err
	}

	b.mu.Lock()
	next := make([]T, 0, len(b.data))
	for _, existing := range b.data {
		if existing.RecordID() != id {
			next = append(next, existing)
		}
	}
	b.data = next
	b.mu.Unlock()
	b.notify()
	return nil
}

func (b *Binding[T]) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	b.notify()
}

// Subscribe returns a channel that receives a value whenever state changes, and
// a function that ends the subscription. Notifications coalesce; a slow reader
// sees at least one pending signal, not one per change.
func (b *Binding[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Binding[T]) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
