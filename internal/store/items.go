package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/antoniwrobel/sprzet/internal/model"
)

// GetItem returns a single item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx,
		`SELECT id, parent_id, is_deleted, taken, reservation_id, created_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.ParentID, &item.IsDeleted, &item.Taken, &item.ReservationID, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all untaken items plus every parent, backing the
// admin equipment view.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, []model.ItemParent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, parent_id, is_deleted, taken, reservation_id, created_at
		 FROM items WHERE taken = 0 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, nil, err
	}

	parents, err := ListItemParents(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	return items, parents, nil
}

// BlockItem marks a unit out of service and reduces its parent's
// availability by one. Blocking always costs one from the displayed
// availability, even for a unit that is currently taken. When every
// unit is out the counter guard refuses rather than going negative.
func BlockItem(ctx context.Context, db *sql.DB, itemID, parentID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET is_deleted = 1 WHERE id = ? AND parent_id = ? AND is_deleted = 0`,
		itemID, parentID,
	)
	if err != nil {
		return fmt.Errorf("blocking item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d under parent %d not found or already blocked: %w", itemID, parentID, ErrNotFound)
	}

	if err := takeQuantity(ctx, tx, parentID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item block: %w", err)
	}
	return nil
}

// RestoreItem puts a blocked unit back in service and restores one to
// its parent's availability. Paired with BlockItem.
func RestoreItem(ctx context.Context, db *sql.DB, itemID, parentID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET is_deleted = 0 WHERE id = ? AND parent_id = ? AND is_deleted = 1`,
		itemID, parentID,
	)
	if err != nil {
		return fmt.Errorf("restoring item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %d under parent %d not found or not blocked: %w", itemID, parentID, ErrNotFound)
	}

	if err := addQuantity(ctx, tx, parentID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item restore: %w", err)
	}
	return nil
}

// listItemsForParent returns all items belonging to a parent.
func listItemsForParent(ctx context.Context, db *sql.DB, parentID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, parent_id, is_deleted, taken, reservation_id, created_at
		 FROM items WHERE parent_id = ? ORDER BY id ASC`, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items for parent %d: %w", parentID, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.ParentID, &item.IsDeleted, &item.Taken, &item.ReservationID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
