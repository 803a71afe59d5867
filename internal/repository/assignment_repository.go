package repository

import (
	"context"
	"database/sql"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// AssignmentRepo persists the guest assignment index.  One row per
// guest per layout; the unique key on (layout_id, guest_id) backs the
// "a guest appears in at most one assignment" invariant at the store
// level, and the upsert gives assignGuest its move semantics.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo constructs an AssignmentRepo bound to the given DB.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// GetByLayout retrieves all assignments of a layout ordered by guest id.
func (r *AssignmentRepo) GetByLayout(ctx context.Context, layoutID uint64) ([]model.Assignment, error) {
	const q = `SELECT guest_id, layout_id, table_id, seat
	           FROM assignments
	           WHERE layout_id = ?
	           ORDER BY guest_id`
	rows, err := r.db.QueryContext(ctx, q, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Assignment
	for rows.Next() {
		var a model.Assignment
		var seat sql.NullInt32
		if err := rows.Scan(&a.GuestID, &a.LayoutID, &a.TableID, &seat); err != nil {
			return nil, err
		}
		if seat.Valid {
			s := uint32(seat.Int32)
			a.Seat = &s
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert writes an assignment, replacing any prior row for the same
// guest in the same layout.
func (r *AssignmentRepo) Upsert(ctx context.Context, a model.Assignment) error {
	const q = `INSERT INTO assignments (guest_id, layout_id, table_id, seat)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE table_id = VALUES(table_id), seat = VALUES(seat)`
	_, err := r.db.ExecContext(ctx, q, a.GuestID, a.LayoutID, a.TableID, seatArg(a.Seat))
	return err
}

// Delete removes a guest's assignment row.  Deleting a row that is
// already gone is not an error; the chart has already decided whether
// the unassign was valid.
func (r *AssignmentRepo) Delete(ctx context.Context, layoutID, guestID uint64) error {
	const q = `DELETE FROM assignments WHERE layout_id = ? AND guest_id = ?`
	_, err := r.db.ExecContext(ctx, q, layoutID, guestID)
	return err
}

// DeleteByTable removes every assignment row for a table.  Used by the
// delete-table cascade when the store schema runs without the foreign
// key (e.g. test databases).
func (r *AssignmentRepo) DeleteByTable(ctx context.Context, layoutID, tableID uint64) error {
	const q = `DELETE FROM assignments WHERE layout_id = ? AND table_id = ?`
	_, err := r.db.ExecContext(ctx, q, layoutID, tableID)
	return err
}

// SwapTx writes both halves of a swap inside one transaction so a crash
// between the two updates can never leave a half-swapped store.
func (r *AssignmentRepo) SwapTx(ctx context.Context, a, b model.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const q = `UPDATE assignments SET table_id = ?, seat = ? WHERE layout_id = ? AND guest_id = ?`
	if _, err := tx.ExecContext(ctx, q, a.TableID, seatArg(a.Seat), a.LayoutID, a.GuestID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, q, b.TableID, seatArg(b.Seat), b.LayoutID, b.GuestID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// seatArg converts an optional seat index into a driver argument.
func seatArg(seat *uint32) any {
	if seat == nil {
		return nil
	}
	return *seat
}
