package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// PreferenceRepo persists seating preferences.  A preference row holds
// the type; its guest members live in preference_guests so pruning a
// deleted guest is a row delete, not a blob rewrite.  Preferences are
// always read back ordered by id, which is the creation order the
// constraint engine groups violations by.
type PreferenceRepo struct {
	db *sql.DB
}

// NewPreferenceRepo constructs a PreferenceRepo bound to the given DB.
func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Create validates and inserts a preference with its guest members in a
// single transaction.  Relational types need at least two guests,
// proximity types at least one.
func (r *PreferenceRepo) Create(ctx context.Context, p *model.SeatingPreference) error {
	if !model.ValidPreferenceType(p.Type) || len(p.GuestIDs) == 0 {
		return ErrInvalidPreference
	}
	if model.RelationalPreference(p.Type) && len(p.GuestIDs) < 2 {
		return ErrInvalidPreference
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO preferences (layout_id, pref_type) VALUES (?, ?)`,
		p.LayoutID, p.Type)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, gid := range p.GuestIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO preference_guests (preference_id, guest_id) VALUES (?, ?)`,
			id, gid); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByLayout retrieves all preferences of a layout in creation order,
// with their guest members.
func (r *PreferenceRepo) GetByLayout(ctx context.Context, layoutID uint64) ([]model.SeatingPreference, error) {
	const q = `SELECT id, layout_id, pref_type, created_at
	           FROM preferences
	           WHERE layout_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SeatingPreference
	for rows.Next() {
		var p model.SeatingPreference
		if err := rows.Scan(&p.ID, &p.LayoutID, &p.Type, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		gids, err := r.guestIDs(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].GuestIDs = gids
	}
	return result, nil
}

// GetByID retrieves one preference with its guest members.
func (r *PreferenceRepo) GetByID(ctx context.Context, id uint64) (*model.SeatingPreference, error) {
	const q = `SELECT id, layout_id, pref_type, created_at FROM preferences WHERE id = ?`
	var p model.SeatingPreference
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.LayoutID, &p.Type, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPreferenceNotFound
		}
		return nil, err
	}
	p.GuestIDs, err = r.guestIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a preference and its guest member rows.
func (r *PreferenceRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM preference_guests WHERE preference_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM preferences WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrPreferenceNotFound
	}
	return tx.Commit()
}

// PruneGuest removes a deleted guest from every preference of a layout.
// Preferences left below their minimum membership (two for relational
// types, one for proximity types) are deleted outright rather than kept
// as dangling rules.  The ids of the removed preferences are returned
// so the caller can surface a hygiene warning to planners.
func (r *PreferenceRepo) PruneGuest(ctx context.Context, layoutID, guestID uint64) ([]uint64, error) {
	prefs, err := r.GetByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	var removed []uint64
	for _, p := range prefs {
		member := false
		for _, gid := range p.GuestIDs {
			if gid == guestID {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		remaining := len(p.GuestIDs) - 1
		min := 1
		if model.RelationalPreference(p.Type) {
			min = 2
		}
		if remaining < min {
			if err := r.Delete(ctx, p.ID); err != nil {
				return nil, err
			}
			removed = append(removed, p.ID)
			continue
		}
		if _, err := r.db.ExecContext(ctx,
			`DELETE FROM preference_guests WHERE preference_id = ? AND guest_id = ?`,
			p.ID, guestID); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

func (r *PreferenceRepo) guestIDs(ctx context.Context, prefID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guest_id FROM preference_guests WHERE preference_id = ? ORDER BY guest_id`, prefID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var gid uint64
		if err := rows.Scan(&gid); err != nil {
			return nil, err
		}
		out = append(out, gid)
	}
	return out, rows.Err()
}
