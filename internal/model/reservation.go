package model

import "time"

// Reservation is a user's request to borrow specific items for a date range.
type Reservation struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ProjectName string    `json:"project_name"`
	ProjectID   string    `json:"project_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Reservation statuses.
const (
	StatusPending   = "pending"   // created, waiting for admin confirmation
	StatusActive    = "active"    // confirmed, items are out
	StatusReturned  = "returned"  // items came back
	StatusRejected  = "rejected"  // admin rejected
	StatusCancelled = "cancelled" // owner cancelled before confirmation
)

// transitions is the full set of allowed status changes. Anything not
// listed here is a lifecycle bug, not a user error.
var transitions = map[string][]string{
	StatusPending:   {StatusActive, StatusRejected, StatusCancelled},
	StatusActive:    {StatusReturned, StatusRejected},
	StatusReturned:  {},
	StatusRejected:  {},
	StatusCancelled: {},
}

// CanTransition reports whether a reservation may move from one status
// to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// FinishedReservation is an append-only audit record linking a historical
// reservation to one released item. Item identity for terminal
// reservations comes from here, since the live item relation is cleared
// when items are released.
type FinishedReservation struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	ItemID        int64     `json:"item_id"`
	CreatedAt     time.Time `json:"created_at"`
}
