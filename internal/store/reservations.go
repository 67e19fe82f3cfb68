package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/antoniwrobel/sprzet/internal/model"
)

// ReservationItem is one borrowed unit resolved to its equipment pool,
// as shown on a reservation's detail view.
type ReservationItem struct {
	ItemID            int64  `json:"item_id"`
	ParentID          int64  `json:"parent_id"`
	ParentName        string `json:"parent_name"`
	ParentDescription string `json:"parent_description,omitempty"`
}

// ReservationDetail is a reservation with its borrowed items resolved.
type ReservationDetail struct {
	Reservation model.Reservation `json:"reservation"`
	Items       []ReservationItem `json:"items"`
}

// CreateReservation creates a pending reservation and takes the selected
// items, grouped by their owning parent. The whole operation is one
// transaction: either every item is taken and every parent counter
// decremented by its per-parent item count, or nothing changes.
func CreateReservation(ctx context.Context, db *sql.DB, userID int64, start, end time.Time, projectName, projectID string, itemIDsByParent map[int64][]int64) (*model.Reservation, error) {
	if projectName == "" || projectID == "" {
		return nil, fmt.Errorf("project name and id required: %w", ErrValidation)
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("invalid date range: %w", ErrValidation)
	}
	total := 0
	for _, ids := range itemIDsByParent {
		total += len(ids)
	}
	if total == 0 {
		return nil, fmt.Errorf("no items selected: %w", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, project_name, project_id, start_date, end_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, projectName, projectID, start, end, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	reservationID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reservation id: %w", err)
	}

	for parentID, itemIDs := range itemIDsByParent {
		if len(itemIDs) == 0 {
			continue
		}
		for _, itemID := range itemIDs {
			// The guard loses gracefully in a race: whoever commits the
			// item first wins, the other reservation rolls back here.
			res, err := tx.ExecContext(ctx,
				`UPDATE items SET taken = 1, reservation_id = ?
				 WHERE id = ? AND parent_id = ? AND taken = 0 AND is_deleted = 0`,
				reservationID, itemID, parentID,
			)
			if err != nil {
				return nil, fmt.Errorf("taking item %d: %w", itemID, err)
			}
			if rows, _ := res.RowsAffected(); rows == 0 {
				return nil, fmt.Errorf("item %d under parent %d is not available: %w", itemID, parentID, ErrValidation)
			}
		}
		if err := takeQuantity(ctx, tx, parentID, len(itemIDs)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	return GetReservation(ctx, db, reservationID)
}

// ConfirmReservation moves a pending reservation to active. Only admins
// may confirm; the flag is checked against the database before anything
// is written. Items stay taken, so no counters move.
func ConfirmReservation(ctx context.Context, db *sql.DB, id, actingUserID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var isAdmin bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_admin FROM users WHERE id = ? AND deleted_at IS NULL`, actingUserID,
	).Scan(&isAdmin)
	if err == sql.ErrNoRows || (err == nil && !isAdmin) {
		return fmt.Errorf("user %d may not confirm reservations: %w", actingUserID, ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("checking admin flag: %w", err)
	}

	if err := transition(ctx, tx, id, model.StatusActive); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing confirmation: %w", err)
	}
	return nil
}

// ReturnReservation moves an active reservation to returned, releases
// every attached item, restocks each parent by the exact count of its
// released items, and writes one audit row per item.
func ReturnReservation(ctx context.Context, db *sql.DB, id int64) error {
	return finishReservation(ctx, db, id, model.StatusReturned)
}

// RejectReservation moves a non-terminal reservation to rejected with
// the same release and restock as a return.
func RejectReservation(ctx context.Context, db *sql.DB, id int64) error {
	return finishReservation(ctx, db, id, model.StatusRejected)
}

// CancelReservation lets the owner withdraw a pending reservation. Items
// are released and audited the same way as a return, so every terminal
// reservation resolves its item details from the audit trail.
func CancelReservation(ctx context.Context, db *sql.DB, id, actingUserID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	reservation, err := getReservationTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if reservation.UserID != actingUserID {
		return fmt.Errorf("reservation %d is not owned by user %d: %w", id, actingUserID, ErrUnauthorized)
	}

	if err := terminate(ctx, tx, reservation, model.StatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cancellation: %w", err)
	}
	return nil
}

// finishReservation applies a terminal transition with item release.
func finishReservation(ctx context.Context, db *sql.DB, id int64, to string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	reservation, err := getReservationTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := terminate(ctx, tx, reservation, to); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transition to %s: %w", to, err)
	}
	return nil
}

// terminate moves a reservation to a terminal status and releases its
// items inside the caller's transaction.
func terminate(ctx context.Context, tx *sql.Tx, reservation *model.Reservation, to string) error {
	if !model.CanTransition(reservation.Status, to) {
		return fmt.Errorf("reservation %d cannot go from %s to %s: %w",
			reservation.ID, reservation.Status, to, ErrInvariant)
	}

	if err := releaseItems(ctx, tx, reservation.ID); err != nil {
		return err
	}

	return setStatus(ctx, tx, reservation.ID, reservation.Status, to)
}

// transition moves a reservation between statuses without touching
// items. Used for confirm, the only non-terminal transition.
func transition(ctx context.Context, tx *sql.Tx, id int64, to string) error {
	reservation, err := getReservationTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if !model.CanTransition(reservation.Status, to) {
		return fmt.Errorf("reservation %d cannot go from %s to %s: %w",
			id, reservation.Status, to, ErrInvariant)
	}
	return setStatus(ctx, tx, id, reservation.Status, to)
}

// setStatus writes the new status, guarded on the status read earlier in
// the same transaction.
func setStatus(ctx context.Context, tx *sql.Tx, id int64, from, to string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("reservation %d left status %s concurrently: %w", id, from, ErrInvariant)
	}
	return nil
}

// releaseItems clears every item attached to a reservation, restocks
// each owning parent by its per-parent released count, and writes the
// audit rows. Restocking a flat +1 per reservation here would silently
// shrink the pool, so the count is always scaled per parent.
func releaseItems(ctx context.Context, tx *sql.Tx, reservationID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, parent_id FROM items WHERE reservation_id = ?`, reservationID,
	)
	if err != nil {
		return fmt.Errorf("listing reservation items: %w", err)
	}

	type borrowed struct{ itemID, parentID int64 }
	var items []borrowed
	for rows.Next() {
		var b borrowed
		if err := rows.Scan(&b.itemID, &b.parentID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning reservation item: %w", err)
		}
		items = append(items, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing reservation items: %w", err)
	}

	countByParent := make(map[int64]int)
	for _, b := range items {
		countByParent[b.parentID]++
	}

	for parentID, count := range countByParent {
		if err := addQuantity(ctx, tx, parentID, count); err != nil {
			return err
		}
	}

	for _, b := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO finished_reservations (reservation_id, item_id) VALUES (?, ?)`,
			reservationID, b.itemID,
		); err != nil {
			return fmt.Errorf("recording finished reservation for item %d: %w", b.itemID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET taken = 0, reservation_id = NULL WHERE reservation_id = ?`,
		reservationID,
	); err != nil {
		return fmt.Errorf("releasing items: %w", err)
	}
	return nil
}

// GetReservation returns a reservation by ID.
func GetReservation(ctx context.Context, db *sql.DB, id int64) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, project_name, project_id, start_date, end_date, status, created_at, updated_at
		 FROM reservations WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.ProjectName, &r.ProjectID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return r, nil
}

// getReservationTx is GetReservation inside a transaction.
func getReservationTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, project_name, project_id, start_date, end_date, status, created_at, updated_at
		 FROM reservations WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.ProjectName, &r.ProjectID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return r, nil
}

// GetReservationDetail returns a reservation with its items resolved to
// their equipment pools. Item identity comes from the live relation
// while the reservation is pending or active, and from the audit trail
// once terminal, since releasing items clears the live relation.
func GetReservationDetail(ctx context.Context, db *sql.DB, id int64) (*ReservationDetail, error) {
	reservation, err := GetReservation(ctx, db, id)
	if err != nil {
		return nil, err
	}

	var query string
	if model.IsTerminal(reservation.Status) {
		query = `SELECT i.id, p.id, p.name, p.description
		         FROM finished_reservations fr
		         JOIN items i ON i.id = fr.item_id
		         JOIN item_parents p ON p.id = i.parent_id
		         WHERE fr.reservation_id = ?
		         ORDER BY fr.id ASC`
	} else {
		query = `SELECT i.id, p.id, p.name, p.description
		         FROM items i
		         JOIN item_parents p ON p.id = i.parent_id
		         WHERE i.reservation_id = ?
		         ORDER BY i.id ASC`
	}

	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting reservation items: %w", err)
	}
	defer rows.Close()

	var items []ReservationItem
	for rows.Next() {
		var item ReservationItem
		var description sql.NullString
		if err := rows.Scan(&item.ItemID, &item.ParentID, &item.ParentName, &description); err != nil {
			return nil, fmt.Errorf("scanning reservation item: %w", err)
		}
		item.ParentDescription = description.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting reservation items: %w", err)
	}

	return &ReservationDetail{Reservation: *reservation, Items: items}, nil
}

// ListReservationsForUser returns a user's reservations, most recently
// touched first.
func ListReservationsForUser(ctx context.Context, db *sql.DB, userID int64) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, project_name, project_id, start_date, end_date, status, created_at, updated_at
		 FROM reservations WHERE user_id = ? ORDER BY updated_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservations for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListAllReservations returns every reservation, for the admin view.
func ListAllReservations(ctx context.Context, db *sql.DB) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, project_name, project_id, start_date, end_date, status, created_at, updated_at
		 FROM reservations ORDER BY updated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProjectName, &r.ProjectID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
