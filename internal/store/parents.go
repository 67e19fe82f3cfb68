package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/antoniwrobel/sprzet/internal/model"
)

// CreateItemParent creates an equipment pool and exactly quantity child
// items in a single transaction.
func CreateItemParent(ctx context.Context, db *sql.DB, name, description string, quantity int) (*model.ItemParent, error) {
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO item_parents (name, description, quantity) VALUES (?, ?, ?)`,
		name, description, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item parent: %w", err)
	}

	parentID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting parent id: %w", err)
	}

	for i := 0; i < quantity; i++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (parent_id) VALUES (?)`, parentID,
		); err != nil {
			return nil, fmt.Errorf("creating item %d of %d: %w", i+1, quantity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item parent: %w", err)
	}

	return GetItemParent(ctx, db, parentID)
}

// GetItemParent returns a parent with its child items attached.
func GetItemParent(ctx context.Context, db *sql.DB, id int64) (*model.ItemParent, error) {
	p := &model.ItemParent{}
	var description, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, quantity, image_mime, created_at, updated_at
		 FROM item_parents WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &description, &p.Quantity, &imageMime, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item parent %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item parent: %w", err)
	}
	p.Description = description.String
	p.ImageMime = imageMime.String

	items, err := listItemsForParent(ctx, db, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

// ListAvailableParents returns parents that still have available units,
// ordered by creation time, each with its child items attached.
func ListAvailableParents(ctx context.Context, db *sql.DB) ([]model.ItemParent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, quantity, image_mime, created_at, updated_at
		 FROM item_parents WHERE quantity > 0 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing available parents: %w", err)
	}
	defer rows.Close()

	parents, err := scanParents(rows)
	if err != nil {
		return nil, err
	}

	for i := range parents {
		items, err := listItemsForParent(ctx, db, parents[i].ID)
		if err != nil {
			return nil, err
		}
		parents[i].Items = items
	}
	return parents, nil
}

// ListItemParents returns every parent without items attached.
func ListItemParents(ctx context.Context, db *sql.DB) ([]model.ItemParent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, quantity, image_mime, created_at, updated_at
		 FROM item_parents ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item parents: %w", err)
	}
	defer rows.Close()

	return scanParents(rows)
}

// DeleteItemParent removes a parent and its items. Deletion is refused
// while any unit is out on a reservation or appears in the audit trail,
// so historical reservations always resolve their item details.
func DeleteItemParent(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM item_parents WHERE id = ?`, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item parent %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking item parent: %w", err)
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE parent_id = ? AND taken = 1`, id,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("checking taken items: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("parent has %d items out on reservations: %w", taken, ErrValidation)
	}

	var history int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM finished_reservations fr
		 JOIN items i ON i.id = fr.item_id
		 WHERE i.parent_id = ?`, id,
	).Scan(&history)
	if err != nil {
		return fmt.Errorf("checking reservation history: %w", err)
	}
	if history > 0 {
		return fmt.Errorf("parent has reservation history: %w", ErrValidation)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM item_parents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item parent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing parent deletion: %w", err)
	}
	return nil
}

// SetParentImage sets a parent's photo data.
func SetParentImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE item_parents SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting parent image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item parent %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetParentImage returns a parent's photo data and MIME type.
func GetParentImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM item_parents WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("item parent %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting parent image: %w", err)
	}
	return image, mime.String, nil
}

// addQuantity restocks a parent counter by n inside a transaction. The
// guard keeps quantity from exceeding the number of unblocked units.
func addQuantity(ctx context.Context, tx *sql.Tx, parentID int64, n int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE item_parents
		 SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		   AND quantity + ? <= (SELECT COUNT(*) FROM items
		                        WHERE parent_id = item_parents.id AND is_deleted = 0)`,
		n, parentID, n,
	)
	if err != nil {
		return fmt.Errorf("restocking parent %d: %w", parentID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("restocking parent %d by %d would exceed unit count: %w", parentID, n, ErrInvariant)
	}
	return nil
}

// takeQuantity decrements a parent counter by n inside a transaction,
// refusing to go negative.
func takeQuantity(ctx context.Context, tx *sql.Tx, parentID int64, n int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE item_parents
		 SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity >= ?`,
		n, parentID, n,
	)
	if err != nil {
		return fmt.Errorf("decrementing parent %d: %w", parentID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("decrementing parent %d by %d would go negative: %w", parentID, n, ErrInvariant)
	}
	return nil
}

func scanParents(rows *sql.Rows) ([]model.ItemParent, error) {
	var parents []model.ItemParent
	for rows.Next() {
		var p model.ItemParent
		var description, imageMime sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Quantity, &imageMime, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item parent: %w", err)
		}
		p.Description = description.String
		p.ImageMime = imageMime.String
		parents = append(parents, p)
	}
	return parents, rows.Err()
}
