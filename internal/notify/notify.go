package notify

import (
	"context"
	"time"
)

// Logical notification channels.
const (
	ChannelDoses     = "doses"
	ChannelMeals     = "meals"
	ChannelInventory = "inventory"
)

// Request describes one local notification to deliver at FireAt. The
// payload is opaque to the facility and comes back unchanged on the
// response.
type Request struct {
	ID      string
	Title   string
	Body    string
	FireAt  time.Time
	Payload map[string]string
	Channel string
}

// Response carries the user's interaction with a delivered notification
// back to the registered handler.
type Response struct {
	ID      string
	Action  string
	Payload map[string]string
}

// Scheduler is the notification facility contract. Schedule returns a
// handle usable for cancellation; the response handler is invoked when
// the user interacts with a delivered notification.
type Scheduler interface {
	Schedule(ctx context.Context, req Request) (string, error)
	Cancel(ctx context.Context, handle string) error
	CancelAll(ctx context.Context) error
	SetResponseHandler(fn func(Response))
}
