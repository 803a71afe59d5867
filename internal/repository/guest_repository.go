package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// GuestRepo is a read-only view over the guests table, which is owned
// and written by the Guest Directory subsystem.  This core never
// creates, renames or deletes guests; it only resolves ids for display
// and filters stale references out of constraint validation.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo constructs a GuestRepo bound to the given DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

// GetByID retrieves a guest by its id.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (*model.Guest, error) {
	const q = `SELECT id, name, group_tag FROM guests WHERE id = ?`
	var g model.Guest
	err := r.db.QueryRowContext(ctx, q, id).Scan(&g.ID, &g.Name, &g.Group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	return &g, nil
}

// KnownIDs returns the set of guest ids currently present in the
// directory.  The constraint engine uses it to skip dangling guest
// references instead of failing on them.
func (r *GuestRepo) KnownIDs(ctx context.Context) (map[uint64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM guests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// Exists reports whether a guest id is present in the directory.
func (r *GuestRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM guests WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
