package model

import "time"

// ItemParent is a pooled equipment model (e.g. a camera type). Quantity
// counts units that are currently available: not taken by a reservation
// and not blocked.
type ItemParent struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	ImageMime   string    `json:"image_mime,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Child units (not always populated).
	Items []Item `json:"items,omitempty"`
}

// Item is one physical unit belonging to an ItemParent. Units are created
// in a batch when their parent is created and are never created
// individually afterward; they only change soft state.
type Item struct {
	ID            int64     `json:"id"`
	ParentID      int64     `json:"parent_id"`
	IsDeleted     bool      `json:"is_deleted"`
	Taken         bool      `json:"taken"`
	ReservationID *int64    `json:"reservation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
