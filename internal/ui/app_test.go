package ui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
)

type confirmCall struct {
	id         string
	hasReturn  bool
	returnTime time.Time
}

type fakeTracker struct {
	mu        sync.Mutex
	now       time.Time
	orders    []order.Order
	history   []order.HistoryEntry
	created   []order.Input
	edited    map[string]order.Input
	confirmed []confirmCall
	completed []string
	cancelled []string
	expired   []string
	err       error
	unsynced  bool
}

func newFakeTracker(orders ...order.Order) *fakeTracker {
	return &fakeTracker{now: boardNow, orders: orders, edited: map[string]order.Input{}}
}

func (f *fakeTracker) Create(_ context.Context, in order.Input) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return order.Order{ID: "new"}, f.err
}

func (f *fakeTracker) ConfirmDelivery(_ context.Context, id string, hasReturn bool, returnTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, confirmCall{id: id, hasReturn: hasReturn, returnTime: returnTime})
	return f.err
}

func (f *fakeTracker) CompleteReturn(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return f.err
}

func (f *fakeTracker) Edit(_ context.Context, id string, in order.Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited[id] = in
	return f.err
}

func (f *fakeTracker) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return f.err
}

func (f *fakeTracker) ExpireDelivered(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired, f.err
}

func (f *fakeTracker) Snapshot() state.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return state.Snapshot{
		Orders:      append([]order.Order(nil), f.orders...),
		History:     f.history,
		HasOrders:   !f.unsynced,
		LastUpdated: f.now,
	}
}

func (f *fakeTracker) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTracker) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newTestModel returns a sized model that has already drawn tr's orders.
func newTestModel(t *testing.T, tr *fakeTracker) Model {
	t.Helper()
	m := New(Options{
		Tracker:   tr,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Location:  time.UTC,
		Clipboard: func(string) error { return nil },
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return update(t, m, refreshMsg{})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// send delivers msg and then feeds every message its command produces back
// into the model. Commands that do not answer promptly are timers or cursor
// blinks and are dropped.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range drain(cmd) {
		m = send(t, m, out)
	}
	return m
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := runPromptly(cmd).(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func runPromptly(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func pendingOrder(id, event string, in time.Duration) order.Order {
	return order.Order{
		ID:           id,
		EventName:    event,
		Address:      "12 Main St",
		Status:       order.StatusPending,
		DeliveryTime: boardNow.Add(in),
	}
}

func TestRefreshBuildsCardsAndTimers(t *testing.T) {
	tr := newFakeTracker(pendingOrder("b", "Gala", 2*time.Hour), pendingOrder("a", "Picnic", -time.Minute))
	m := newTestModel(t, tr)

	require.Len(t, m.cards, 2)
	assert.Equal(t, "a", m.cards[0].ID)
	assert.Equal(t, expiredLabel, m.countdowns["a"])
	assert.Equal(t, "2h 0m 0s", m.countdowns["b"])
	assert.NotContains(t, m.timerTargets, "a")
	assert.Contains(t, m.timerTargets, "b")
}

func TestCountdownDropsStaleGenerations(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)
	gen := m.timerGen

	m = update(t, m, refreshMsg{})
	require.Equal(t, gen+1, m.timerGen)

	tr.advance(time.Minute)
	next, cmd := m.Update(countdownMsg{key: "a", gen: gen})
	m = next.(Model)
	assert.Nil(t, cmd, "stale tick must not reschedule")
	assert.Equal(t, "1h 0m 0s", m.countdowns["a"], "stale tick must not update the text")

	next, cmd = m.Update(countdownMsg{key: "a", gen: m.timerGen})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, "0h 59m 0s", m.countdowns["a"])
}

func TestCountdownStopsAtTarget(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", 2*time.Second))
	m := newTestModel(t, tr)

	tr.advance(3 * time.Second)
	next, cmd := m.Update(countdownMsg{key: "a", gen: m.timerGen})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, expiredLabel, m.countdowns["a"])
	assert.NotContains(t, m.timerTargets, "a")
}

func TestAddOrderThroughForm(t *testing.T) {
	tr := newFakeTracker()
	m := newTestModel(t, tr)

	m = send(t, m, runes("a"))
	require.IsType(t, &orderForm{}, m.modal)

	for _, field := range []string{"Spring Gala", "12 Main St", "2025-06-02 18:30"} {
		m = send(t, m, runes(field))
		m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}

	assert.Nil(t, m.modal)
	require.Len(t, tr.created, 1)
	assert.Equal(t, order.Input{
		EventName:    "Spring Gala",
		Address:      "12 Main St",
		DeliveryTime: time.Date(2025, 6, 2, 18, 30, 0, 0, time.UTC),
	}, tr.created[0])
	assert.Equal(t, "Order added", m.notice)
	assert.False(t, m.noticeIsError)
}

func TestAddWaitsForFirstSnapshot(t *testing.T) {
	tr := newFakeTracker()
	tr.unsynced = true
	m := newTestModel(t, tr)

	m = send(t, m, runes("a"))
	assert.Nil(t, m.modal)
	assert.True(t, m.noticeIsError)
	assert.Contains(t, m.notice, "not synced")
	assert.Empty(t, tr.created)

	tr.mu.Lock()
	tr.unsynced = false
	tr.mu.Unlock()
	m = update(t, m, refreshMsg{})
	m = send(t, m, runes("a"))
	assert.IsType(t, &orderForm{}, m.modal)
}

func TestAddOrderFormKeepsInvalidInput(t *testing.T) {
	tr := newFakeTracker()
	m := newTestModel(t, tr)

	m = send(t, m, runes("a"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	form, ok := m.modal.(*orderForm)
	require.True(t, ok, "form should stay open")
	assert.Contains(t, form.err, "event name is required")
	assert.Empty(t, tr.created)
}

func TestDeliverWithoutPickup(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)

	m = send(t, m, runes("d"))
	require.IsType(t, &deliveryPrompt{}, m.modal)

	m = send(t, m, runes("n"))
	assert.Nil(t, m.modal)
	require.Len(t, tr.confirmed, 1)
	assert.Equal(t, confirmCall{id: "a"}, tr.confirmed[0])
}

func TestDeliverWithPickup(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)

	m = send(t, m, runes("d"))
	m = send(t, m, runes("p"))
	require.IsType(t, &returnForm{}, m.modal)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	form := m.modal.(*returnForm)
	assert.Equal(t, "pickup time is required", form.err)

	m = send(t, m, runes("2025-06-03 09:00"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, m.modal)
	require.Len(t, tr.confirmed, 1)
	assert.Equal(t, confirmCall{
		id:         "a",
		hasReturn:  true,
		returnTime: time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
	}, tr.confirmed[0])
}

func TestDeliverIgnoredForScheduledPickup(t *testing.T) {
	o := pendingOrder("a", "Gala", -time.Hour)
	o.Status = order.StatusReturnScheduled
	o.ReturnTime = boardNow.Add(time.Hour)
	tr := newFakeTracker(o)
	m := newTestModel(t, tr)

	m = send(t, m, runes("d"))
	assert.Nil(t, m.modal)

	m = send(t, m, runes("r"))
	assert.Equal(t, []string{"a"}, tr.completed)
	assert.Equal(t, "Pickup completed", m.notice)
}

func TestCancelAsksFirst(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)

	m = send(t, m, runes("x"))
	require.IsType(t, &confirmPrompt{}, m.modal)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.modal)
	assert.Empty(t, tr.cancelled)

	m = send(t, m, runes("x"))
	m = send(t, m, runes("y"))
	assert.Equal(t, []string{"a"}, tr.cancelled)
}

func TestEditPrefillsForm(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)

	m = send(t, m, runes("e"))
	form, ok := m.modal.(*orderForm)
	require.True(t, ok)
	assert.Equal(t, "Gala", form.inputs[0].Value())
	assert.Equal(t, "2025-06-01 13:00", form.inputs[2].Value())

	for range form.inputs {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	require.Contains(t, tr.edited, "a")
	assert.Equal(t, "12 Main St", tr.edited["a"].Address)
}

func TestActionErrorShowsOnStatusLine(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	tr.err = assert.AnError
	m := newTestModel(t, tr)

	m = send(t, m, runes("r"))
	assert.Empty(t, m.notice, "complete on a pending order does nothing")

	m = send(t, m, runes("d"))
	m = send(t, m, runes("n"))
	assert.True(t, m.noticeIsError)
	assert.Contains(t, m.notice, "Delivery confirmed failed")
}

func TestSelectionMovesAcrossGrid(t *testing.T) {
	var orders []order.Order
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		orders = append(orders, pendingOrder(id, "Event "+id, time.Hour))
	}
	m := newTestModel(t, newFakeTracker(orders...))

	m = send(t, m, runes("l"))
	assert.Equal(t, 1, m.selected)
	m = send(t, m, runes("j"))
	assert.Equal(t, 4, m.selected, "down moves one row of three")
	m = send(t, m, runes("j"))
	assert.Equal(t, 4, m.selected, "down stops at the last row")
	m = send(t, m, runes("g"))
	assert.Equal(t, 0, m.selected)
	m = send(t, m, runes("G"))
	assert.Equal(t, 4, m.selected)
}

func TestCopyID(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	var copied string
	m := New(Options{
		Tracker:   tr,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clipboard: func(s string) error {
			copied = s
			return nil
		},
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, refreshMsg{})

	m = send(t, m, runes("y"))
	assert.Equal(t, "a", copied)
	assert.Equal(t, "Copied a", m.notice)
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	m := newTestModel(t, newFakeTracker())

	m = send(t, m, runes("T"))
	assert.Equal(t, "Kanagawa", m.theme.Name)

	p, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Kanagawa", p.Theme)
}

func TestExpiredOrdersNotice(t *testing.T) {
	m := newTestModel(t, newFakeTracker())
	m = update(t, m, expiredMsg{ids: []string{"a", "b"}})
	assert.Equal(t, "Cleared 2 delivered order(s)", m.notice)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newFakeTracker())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewRendersBoard(t *testing.T) {
	tr := newFakeTracker(pendingOrder("a", "Gala", time.Hour))
	m := newTestModel(t, tr)

	out := m.View()
	assert.Contains(t, out, "courier")
	assert.Contains(t, out, "Gala")
	assert.Contains(t, out, "Pending:")
}

func TestHistoryModalUsesSyncedEntries(t *testing.T) {
	tr := newFakeTracker()
	tr.history = []order.HistoryEntry{{ID: "h1", EventName: "Old Gala"}}
	m := newTestModel(t, tr)

	m = send(t, m, runes("H"))
	h, ok := m.modal.(*historyModal)
	require.True(t, ok)
	assert.True(t, h.loaded)
	assert.Equal(t, 1, h.count)
	assert.Equal(t, "synced history", h.source)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.modal)
}

func TestLogViewRoundTrip(t *testing.T) {
	m := newTestModel(t, newFakeTracker())

	m = send(t, m, runes("L"))
	assert.Equal(t, ViewLogs, m.currentView)
	assert.NoError(t, m.logState.err)
	assert.Contains(t, m.View(), "Application Log")

	m = send(t, m, runes("/"))
	require.True(t, m.logState.searchActive)
	m = send(t, m, runes("q"))
	assert.Equal(t, ViewLogs, m.currentView, "typing in search must not quit or switch views")
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.logState.searchActive)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBoard, m.currentView)
}
