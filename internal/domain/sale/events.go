package sale

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a domain notification emitted after a successful sale mutation.
// Publication is fire-and-forget: consumers must never roll back the
// originating mutation.
type Event interface {
	EventName() string
}

// Publisher delivers domain events to external collaborators. Implementations
// must not return errors to the mutation path.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// eventMeta carries the fields every sale event shares: a generated id and a
// UTC timestamp.
type eventMeta struct {
	EventID    uuid.UUID `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newEventMeta() eventMeta {
	return eventMeta{EventID: uuid.New(), OccurredAt: time.Now().UTC()}
}

// CreatedEvent is emitted when a sale is created.
type CreatedEvent struct {
	eventMeta
	Sale *Sale `json:"sale"`
}

// NewCreatedEvent builds a CreatedEvent for the given sale snapshot.
func NewCreatedEvent(s *Sale) CreatedEvent {
	return CreatedEvent{eventMeta: newEventMeta(), Sale: s}
}

func (CreatedEvent) EventName() string { return "SaleCreated" }

// ModifiedEvent is emitted when a sale's items change.
type ModifiedEvent struct {
	eventMeta
	Sale        *Sale  `json:"sale"`
	Description string `json:"description"`
}

// NewModifiedEvent builds a ModifiedEvent describing what changed.
func NewModifiedEvent(s *Sale, description string) ModifiedEvent {
	if description == "" {
		description = "sale updated"
	}
	return ModifiedEvent{eventMeta: newEventMeta(), Sale: s, Description: description}
}

func (ModifiedEvent) EventName() string { return "SaleModified" }

// CancelledEvent is emitted when a whole sale is cancelled.
type CancelledEvent struct {
	eventMeta
	Sale   *Sale  `json:"sale"`
	Reason string `json:"reason"`
}

// NewCancelledEvent builds a CancelledEvent with the cancellation reason.
func NewCancelledEvent(s *Sale, reason string) CancelledEvent {
	if reason == "" {
		reason = "sale cancelled by user"
	}
	return CancelledEvent{eventMeta: newEventMeta(), Sale: s, Reason: reason}
}

func (CancelledEvent) EventName() string { return "SaleCancelled" }

// ItemCancelledEvent is emitted when a single item is cancelled.
type ItemCancelledEvent struct {
	eventMeta
	Sale   *Sale  `json:"sale"`
	Item   *Item  `json:"item"`
	Reason string `json:"reason"`
}

// NewItemCancelledEvent builds an ItemCancelledEvent with the reason.
func NewItemCancelledEvent(s *Sale, item *Item, reason string) ItemCancelledEvent {
	if reason == "" {
		reason = "item cancelled by user"
	}
	return ItemCancelledEvent{eventMeta: newEventMeta(), Sale: s, Item: item, Reason: reason}
}

func (ItemCancelledEvent) EventName() string { return "ItemCancelled" }
