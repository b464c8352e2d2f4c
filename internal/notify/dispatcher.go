package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryMsg is a tea.Msg sent when a scheduled notification fires.
type DeliveryMsg struct {
	Request     Request
	DeliveredAt time.Time
}

// Dispatcher is an in-process Scheduler implementation. Pending
// requests are held in memory and fired by a single ticker goroutine
// that delivers them into the Bubble Tea runtime as DeliveryMsg values.
type Dispatcher struct {
	mu       sync.Mutex
	pending  map[string]Request
	handler  func(Response)
	running  bool
	stopCh   chan struct{}
	resultCh chan DeliveryMsg
	tick     time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher that checks for due notifications
// every tick.
func NewDispatcher(tick time.Duration, logger *zap.Logger) *Dispatcher {
	if tick <= 0 {
		tick = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pending:  make(map[string]Request),
		stopCh:   make(chan struct{}),
		resultCh: make(chan DeliveryMsg, 16),
		tick:     tick,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the dispatcher's time source. Test hook.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Schedule registers a notification for delivery at req.FireAt and
// returns its cancellation handle. A request with an empty ID gets a
// generated one; scheduling an existing ID replaces the pending entry.
func (d *Dispatcher) Schedule(_ context.Context, req Request) (string, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	d.mu.Lock()
	d.pending[req.ID] = req
	d.mu.Unlock()

	d.logger.Debug("notification scheduled",
		zap.String("id", req.ID),
		zap.String("channel", req.Channel),
		zap.Time("fire_at", req.FireAt),
	)
	return req.ID, nil
}

// Cancel removes a pending notification. Cancelling an unknown or
// already-fired handle is a no-op.
func (d *Dispatcher) Cancel(_ context.Context, handle string) error {
	d.mu.Lock()
	delete(d.pending, handle)
	d.mu.Unlock()
	return nil
}

// CancelAll removes every pending notification.
func (d *Dispatcher) CancelAll(_ context.Context) error {
	d.mu.Lock()
	d.pending = make(map[string]Request)
	d.mu.Unlock()
	return nil
}

// SetResponseHandler registers the callback invoked when the user
// interacts with a delivered notification.
func (d *Dispatcher) SetResponseHandler(fn func(Response)) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
}

// Respond reports a user interaction with a delivered notification and
// forwards it to the registered handler.
func (d *Dispatcher) Respond(resp Response) {
	d.mu.Lock()
	fn := d.handler
	d.mu.Unlock()
	if fn != nil {
		fn(resp)
	}
}

// Pending returns the pending requests sorted by fire time.
func (d *Dispatcher) Pending() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	reqs := make([]Request, 0, len(d.pending))
	for _, r := range d.pending {
		reqs = append(reqs, r)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].FireAt.Equal(reqs[j].FireAt) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].FireAt.Before(reqs[j].FireAt)
	})
	return reqs
}

// Start launches the delivery loop and returns a subscription command
// that feeds DeliveryMsg values to the Bubble Tea runtime.
func (d *Dispatcher) Start() tea.Cmd {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return d.waitForDelivery()
	}
	d.running = true
	d.mu.Unlock()

	go d.run()
	return d.waitForDelivery()
}

// Stop halts the delivery loop.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	close(d.stopCh)
	d.running = false
}

// run fires due notifications once per tick until stopped.
func (d *Dispatcher) run() {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.FireDue()
		}
	}
}

// FireDue delivers every pending notification whose fire time has
// passed. Exposed so tests and a manual refresh can trigger delivery
// without waiting for the ticker.
func (d *Dispatcher) FireDue() int {
	now := d.now()

	d.mu.Lock()
	var due []Request
	for id, req := range d.pending {
		if !req.FireAt.After(now) {
			due = append(due, req)
			delete(d.pending, id)
		}
	}
	d.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].FireAt.Equal(due[j].FireAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].FireAt.Before(due[j].FireAt)
	})

	for _, req := range due {
		msg := DeliveryMsg{Request: req, DeliveredAt: now}
		select {
		case d.resultCh <- msg:
			d.logger.Info("notification delivered",
				zap.String("id", req.ID),
				zap.String("channel", req.Channel),
				zap.String("title", req.Title),
			)
		default:
			// Drop if the channel is full to avoid blocking the loop.
			d.logger.Warn("notification dropped, delivery channel full",
				zap.String("id", req.ID),
			)
		}
	}
	return len(due)
}

// waitForDelivery returns a tea.Cmd that waits for the next delivery.
func (d *Dispatcher) waitForDelivery() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-d.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNext returns a tea.Cmd that waits for the next delivered
// notification. Call after processing a DeliveryMsg to keep listening.
func (d *Dispatcher) WaitForNext() tea.Cmd {
	return d.waitForDelivery()
}
