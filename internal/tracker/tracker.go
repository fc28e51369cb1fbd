package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/state"
)

// ErrNotSynced is returned by mutations made before the first remote orders
// snapshot has been applied. Pushing earlier would overwrite the remote
// collection with only the local additions.
var ErrNotSynced = errors.New("orders not synced yet")

// Presenter redraws the board from the store.
type Presenter interface {
	Refresh()
}

// Syncer pushes local changes to the remote store.
type Syncer interface {
	PushOrders(ctx context.Context, orders map[string]order.Order) error
	AppendHistory(ctx context.Context, entry order.HistoryEntry) error
}

// HistoryMirror keeps a local copy of the history collection.
type HistoryMirror interface {
	Save(entries []order.HistoryEntry) error
}

// Options wires a Tracker. Store and Sync are required.
type Options struct {
	Store     *state.Store
	Sync      Syncer
	Presenter Presenter
	Mirror    HistoryMirror
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() (string, error)
}

// Tracker is the single writer for the order board. Every operator action and
// every remote update passes through it so store, remote, and screen stay in step.
type Tracker struct {
	mu     sync.Mutex
	store  *state.Store
	sync   Syncer
	mirror HistoryMirror
	logger *zap.Logger
	now    func() time.Time
	newID  func() (string, error)

	presenterMu sync.RWMutex
	presenter   Presenter
}

// New builds a Tracker, filling optional collaborators with defaults.
func New(opts Options) *Tracker {
	t := &Tracker{
		store:     opts.Store,
		sync:      opts.Sync,
		mirror:    opts.Mirror,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
		presenter: opts.Presenter,
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = newUUIDv7
	}
	return t
}

// SetPresenter replaces the presenter; the UI registers itself once it runs.
func (t *Tracker) SetPresenter(p Presenter) {
	t.presenterMu.Lock()
	defer t.presenterMu.Unlock()
	t.presenter = p
}

// Create adds a pending order and pushes the board.
func (t *Tracker) Create(ctx context.Context, in order.Input) (order.Order, error) {
	id, err := t.newID()
	if err != nil {
		return order.Order{}, fmt.Errorf("generate order id: %w", err)
	}

	t.mu.Lock()
	if !t.store.Loaded() {
		t.mu.Unlock()
		return order.Order{}, ErrNotSynced
	}
	o, err := order.Create(in, id, t.now())
	if err != nil {
		t.mu.Unlock()
		return order.Order{}, err
	}
	t.store.Upsert(o)
	pushErr := t.pushLocked(ctx)
	t.mu.Unlock()

	metrics.OrdersCreatedTotal.Inc()
	t.logger.Info("order created", zap.String("id", o.ID), zap.String("event", o.EventName), zap.Time("delivery", o.DeliveryTime))
	t.refresh()
	return o, pushErr
}

// ConfirmDelivery marks a pending order delivered, or schedules a return
// pickup at returnTime when hasReturn is set. Unknown ids are ignored.
func (t *Tracker) ConfirmDelivery(ctx context.Context, id string, hasReturn bool, returnTime time.Time) error {
	t.mu.Lock()
	o, ok := t.store.Get(id)
	if !ok {
		t.mu.Unlock()
		t.logger.Debug("confirm delivery for unknown order", zap.String("id", id))
		return nil
	}
	updated, entry, err := order.ConfirmDelivery(o, hasReturn, returnTime, t.now())
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.store.Upsert(updated)
	errs := []error{t.pushLocked(ctx)}
	if entry != nil {
		errs = append(errs, t.appendHistoryLocked(ctx, *entry))
	}
	t.mu.Unlock()

	metrics.DeliveriesConfirmedTotal.WithLabelValues(strconv.FormatBool(hasReturn)).Inc()
	t.logger.Info("delivery confirmed", zap.String("id", id), zap.Bool("return", hasReturn))
	t.refresh()
	return errors.Join(errs...)
}

// CompleteReturn finalizes a scheduled pickup and records it in history.
// Unknown ids are ignored.
func (t *Tracker) CompleteReturn(ctx context.Context, id string) error {
	t.mu.Lock()
	o, ok := t.store.Get(id)
	if !ok {
		t.mu.Unlock()
		t.logger.Debug("complete return for unknown order", zap.String("id", id))
		return nil
	}
	updated, entry, err := order.CompleteReturn(o, t.now())
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.store.Upsert(updated)
	err = errors.Join(t.pushLocked(ctx), t.appendHistoryLocked(ctx, entry))
	t.mu.Unlock()

	metrics.ReturnsCompletedTotal.Inc()
	t.logger.Info("return completed", zap.String("id", id))
	t.refresh()
	return err
}

// Edit rewrites the descriptive fields of an order whatever its status.
// Unknown ids are ignored.
func (t *Tracker) Edit(ctx context.Context, id string, in order.Input) error {
	t.mu.Lock()
	o, ok := t.store.Get(id)
	if !ok {
		t.mu.Unlock()
		t.logger.Debug("edit for unknown order", zap.String("id", id))
		return nil
	}
	updated, err := order.Edit(o, in)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.store.Upsert(updated)
	err = t.pushLocked(ctx)
	t.mu.Unlock()

	t.logger.Info("order edited", zap.String("id", id))
	t.refresh()
	return err
}

// Cancel removes an order without writing history. Unknown ids are ignored.
func (t *Tracker) Cancel(ctx context.Context, id string) error {
	t.mu.Lock()
	if !t.store.Remove(id) {
		t.mu.Unlock()
		t.logger.Debug("cancel for unknown order", zap.String("id", id))
		return nil
	}
	err := t.pushLocked(ctx)
	t.mu.Unlock()

	metrics.OrdersCancelledTotal.Inc()
	t.logger.Info("order cancelled", zap.String("id", id))
	t.refresh()
	return err
}

// ExpireDelivered drops delivered orders past the retention window, pushing
// only when something was removed, and always redraws.
func (t *Tracker) ExpireDelivered(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	expired := order.ExpireDelivered(t.store.Orders(), t.now())
	for _, id := range expired {
		t.store.Remove(id)
	}
	var err error
	if len(expired) > 0 {
		err = t.pushLocked(ctx)
	}
	t.mu.Unlock()

	if len(expired) > 0 {
		metrics.OrdersExpiredTotal.Add(float64(len(expired)))
		t.logger.Info("delivered orders expired", zap.Strings("ids", expired))
	}
	t.refresh()
	return expired, err
}

// ApplyOrders replaces the board with a remote snapshot.
func (t *Tracker) ApplyOrders(orders map[string]order.Order) {
	t.mu.Lock()
	t.store.ReplaceAll(orders)
	t.mu.Unlock()

	metrics.ActiveOrders.Set(float64(len(orders)))
	t.logger.Debug("orders snapshot applied", zap.Int("count", len(orders)))
	t.refresh()
}

// ApplyHistory caches a remote history snapshot and mirrors it locally.
func (t *Tracker) ApplyHistory(entries []order.HistoryEntry) {
	t.mu.Lock()
	t.store.SetHistory(entries)
	t.mu.Unlock()

	if t.mirror != nil {
		if err := t.mirror.Save(entries); err != nil {
			t.logger.Warn("history mirror write failed", zap.Error(err))
		}
	}
	t.logger.Debug("history snapshot applied", zap.Int("count", len(entries)))
	t.refresh()
}

// ApplyError records a watch or decode failure from the sync bridge.
func (t *Tracker) ApplyError(err error) {
	if err == nil {
		return
	}
	t.store.RecordSyncError(err)
	metrics.SyncErrorsTotal.WithLabelValues("watch").Inc()
	t.logger.Warn("remote sync failed", zap.Error(err))
	t.refresh()
}

// Snapshot returns the current board for rendering.
func (t *Tracker) Snapshot() state.Snapshot {
	return t.store.Snapshot()
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time {
	return t.now()
}

func (t *Tracker) pushLocked(ctx context.Context) error {
	orders := t.store.Orders()
	metrics.ActiveOrders.Set(float64(len(orders)))
	if !t.store.Loaded() {
		return ErrNotSynced
	}
	if err := t.sync.PushOrders(ctx, orders); err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("push_orders").Inc()
		t.logger.Error("push orders failed", zap.Error(err))
		return fmt.Errorf("push orders: %w", err)
	}
	return nil
}

func (t *Tracker) appendHistoryLocked(ctx context.Context, entry order.HistoryEntry) error {
	if err := t.sync.AppendHistory(ctx, entry); err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("append_history").Inc()
		t.logger.Error("append history failed", zap.String("id", entry.ID), zap.Error(err))
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (t *Tracker) refresh() {
	t.presenterMu.RLock()
	p := t.presenter
	t.presenterMu.RUnlock()
	if p != nil {
		p.Refresh()
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
