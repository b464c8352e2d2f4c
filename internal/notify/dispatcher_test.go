package notify

import (
	"context"
	"testing"
	"time"
)

func TestScheduleAndFireDue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	d := NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	id, err := d.Schedule(ctx, Request{
		Title:   "Time for Metformin",
		FireAt:  now.Add(-time.Minute),
		Channel: ChannelDoses,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated handle")
	}
	if _, err := d.Schedule(ctx, Request{
		Title:   "Later",
		FireAt:  now.Add(time.Hour),
		Channel: ChannelDoses,
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if fired := d.FireDue(); fired != 1 {
		t.Fatalf("FireDue = %d, want 1", fired)
	}

	select {
	case msg := <-d.resultCh:
		if msg.Request.ID != id {
			t.Errorf("delivered %s, want %s", msg.Request.ID, id)
		}
		if !msg.DeliveredAt.Equal(now) {
			t.Errorf("delivered at %v, want %v", msg.DeliveredAt, now)
		}
	default:
		t.Fatal("no delivery on the channel")
	}

	// The future request stays queued.
	if pending := d.Pending(); len(pending) != 1 || pending[0].Title != "Later" {
		t.Errorf("pending = %+v, want only the future request", pending)
	}
}

func TestCancelRemovesPending(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	d := NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	id, err := d.Schedule(ctx, Request{Title: "x", FireAt: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := d.Cancel(ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if fired := d.FireDue(); fired != 0 {
		t.Errorf("cancelled request fired: %d", fired)
	}

	// Cancelling an unknown handle is a no-op.
	if err := d.Cancel(ctx, "missing"); err != nil {
		t.Errorf("Cancel of unknown handle: %v", err)
	}
}

func TestScheduleReplacesExistingID(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	d := NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, err := d.Schedule(ctx, Request{ID: "r1", Title: "first", FireAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, err := d.Schedule(ctx, Request{ID: "r1", Title: "second", FireAt: now.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	pending := d.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending after replace, got %d", len(pending))
	}
	if pending[0].Title != "second" {
		t.Errorf("title = %q, want the replacement", pending[0].Title)
	}
}

func TestFireDueOrdersByFireTime(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	d := NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, err := d.Schedule(ctx, Request{ID: "b", FireAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, err := d.Schedule(ctx, Request{ID: "a", FireAt: now.Add(-2 * time.Minute)}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if fired := d.FireDue(); fired != 2 {
		t.Fatalf("FireDue = %d, want 2", fired)
	}

	first := <-d.resultCh
	second := <-d.resultCh
	if first.Request.ID != "a" || second.Request.ID != "b" {
		t.Errorf("delivery order %s, %s; want a, b", first.Request.ID, second.Request.ID)
	}
}

func TestRespondInvokesHandler(t *testing.T) {
	d := NewDispatcher(time.Hour, nil)

	var got Response
	d.SetResponseHandler(func(r Response) { got = r })
	d.Respond(Response{ID: "n1", Action: "taken"})

	if got.ID != "n1" || got.Action != "taken" {
		t.Errorf("handler saw %+v", got)
	}
}

func TestCancelAll(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	d := NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := d.Schedule(ctx, Request{FireAt: now.Add(time.Hour)}); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}
	if err := d.CancelAll(ctx); err != nil {
		t.Fatalf("CancelAll: %v", err)
	}
	if pending := d.Pending(); len(pending) != 0 {
		t.Errorf("pending after CancelAll: %d", len(pending))
	}
}
