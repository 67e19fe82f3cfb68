package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/antoniwrobel/sprzet/internal/model"
)

// createTestUser inserts a user with a throwaway password hash.
func createTestUser(t *testing.T, database *sql.DB, email string, isAdmin bool) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), database, email, "x", isAdmin)
	if err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

// mustCreateReservation creates a week-long reservation for the given
// item selection.
func mustCreateReservation(t *testing.T, database *sql.DB, userID int64, itemIDsByParent map[int64][]int64) *model.Reservation {
	t.Helper()
	start := time.Now()
	reservation, err := CreateReservation(context.Background(), database, userID,
		start, start.AddDate(0, 0, 7), "Test shoot", "P-1", itemIDsByParent)
	if err != nil {
		t.Fatalf("creating test reservation: %v", err)
	}
	return reservation
}

// parentQuantity reads the current availability counter.
func parentQuantity(t *testing.T, database *sql.DB, parentID int64) int {
	t.Helper()
	parent, err := GetItemParent(context.Background(), database, parentID)
	if err != nil {
		t.Fatalf("getting parent %d: %v", parentID, err)
	}
	return parent.Quantity
}

// countFinished counts audit rows for a reservation.
func countFinished(t *testing.T, database *sql.DB, reservationID int64) int {
	t.Helper()
	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM finished_reservations WHERE reservation_id = ?`,
		reservationID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting finished reservations: %v", err)
	}
	return n
}
