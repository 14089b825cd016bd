package events

import "context"

// Event notifies observers that a fee record transitioned to paid.
type Event struct {
	StudentFeeID string `json:"student_fee_id"`
	InstituteID  string `json:"institute_id"`
	Period       string `json:"period"`
}

// InstituteAll subscribes a handler to every institute's events.
const InstituteAll = "*"

// Handler consumes reconciliation events. Delivery is at-least-once, so
// handlers must be idempotent to duplicates.
type Handler func(Event)

// Bus is the live-update channel contract: fire-and-forget publication of
// reconciliation events and per-institute subscriptions. No ordering is
// guaranteed across different students.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, instituteID string, handler Handler) error
}
