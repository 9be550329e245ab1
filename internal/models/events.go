package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a product lifecycle event. The value doubles as the AMQP routing key.
type EventType string

const (
	EventProductCreated EventType = "product.created"
	EventProductUpdated EventType = "product.updated"
	EventProductDeleted EventType = "product.deleted"
	EventStockChanged   EventType = "product.stock_changed"
)

// ProductEvent is the message published after a product change is stored.
type ProductEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ProductID  int64     `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	Price      string    `json:"price,omitempty"`
	Changes    []string  `json:"changes,omitempty"`
	OldStock   *int      `json:"old_stock,omitempty"`
	NewStock   *int      `json:"new_stock,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEvent(t EventType, id ProductID, at time.Time) ProductEvent {
	return ProductEvent{
		ID:         uuid.NewString(),
		Type:       t,
		ProductID:  id.Value(),
		OccurredAt: at.UTC(),
	}
}

// ProductCreated describes a freshly inserted product.
func ProductCreated(p Product) ProductEvent {
	e := newEvent(EventProductCreated, p.ID(), p.CreatedAt())
	e.Name = p.Name().Value()
	e.Price = p.Price().String()
	return e
}

// ProductDeleted describes a removed product.
func ProductDeleted(id ProductID, at time.Time) ProductEvent {
	return newEvent(EventProductDeleted, id, at)
}

// ProductChanged compares two versions of the same product. It returns a
// ProductUpdated event listing the changed attributes, followed by a
// StockChanged event when the quantity moved. No events are returned when
// nothing changed.
func ProductChanged(before, after Product) []ProductEvent {
	var changes []string
	if !before.Name().Equal(after.Name()) {
		changes = append(changes, "name")
	}
	if !equalStrings(before.description, after.description) {
		changes = append(changes, "description")
	}
	if !before.Price().Equal(after.Price()) {
		changes = append(changes, "price")
	}
	stockMoved := !before.Stock().Equal(after.Stock())
	if stockMoved {
		changes = append(changes, "stock")
	}
	if len(changes) == 0 {
		return nil
	}

	updated := newEvent(EventProductUpdated, after.ID(), after.UpdatedAt())
	updated.Name = after.Name().Value()
	updated.Changes = changes
	events := []ProductEvent{updated}

	if stockMoved {
		oldStock, newStock := before.Stock().Value(), after.Stock().Value()
		stock := newEvent(EventStockChanged, after.ID(), after.UpdatedAt())
		stock.OldStock = &oldStock
		stock.NewStock = &newStock
		events = append(events, stock)
	}
	return events
}
