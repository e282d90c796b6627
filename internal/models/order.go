// internal/models/order.go
package models

import "time"

// Status is the order lifecycle status as reported by the backend.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusOnHold,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// MetaEntry is a single order metadata key/value pair. Keys are not unique;
// the backend sends them as an ordered list.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is the ordered metadata list attached to an order.
type Metadata []MetaEntry

// Get returns the value for key with last-match-wins semantics, matching how
// the backend resolves duplicate keys.
func (m Metadata) Get(key string) (string, bool) {
	value := ""
	found := false
	for _, entry := range m {
		if entry.Key == key {
			value = entry.Value
			found = true
		}
	}
	return value, found
}

// LineItem is one ordered product line.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// Billing is the order's billing contact.
type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Order is a read snapshot of a backend order. The agent never owns order
// state; it issues status-update requests and re-reads.
type Order struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"date_created"`
	Metadata  Metadata   `json:"meta_data,omitempty"`
	LineItems []LineItem `json:"line_items,omitempty"`
	Billing   Billing    `json:"billing"`
}
