package repository // repository defines data access for layouts and their tables

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel comparisons
	"strings"      // strings joins and splits the zone tag CSV column

	"github.com/seatsmith/wedding-seating/internal/model" // model defines layout entities
)

// LayoutRepo provides durable storage for layouts and the tables placed
// on them.  The in-memory chart is loaded from here on room start and
// every applied mutation is written back through before broadcast, so a
// snapshot read after a crash is authoritative.
type LayoutRepo struct {
	db *sql.DB
}

// NewLayoutRepo constructs a LayoutRepo with the given DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo {
	return &LayoutRepo{db: db}
}

// CreateLayout inserts a layout record. On success the layout's ID is populated.
func (r *LayoutRepo) CreateLayout(ctx context.Context, l *model.Layout) error {
	const q = `INSERT INTO layouts (event_id, name) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.EventID, l.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// GetLayout retrieves a layout by its id.
func (r *LayoutRepo) GetLayout(ctx context.Context, id uint64) (*model.Layout, error) {
	const q = `SELECT id, event_id, name, created_at, updated_at FROM layouts WHERE id = ?`
	var l model.Layout
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&l.ID, &l.EventID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, err
	}
	return &l, nil
}

// CreateTable inserts a table record for a layout. On success the
// table's ID is populated from the auto-increment column; the chart
// then adopts that id as the table's identity everywhere.
func (r *LayoutRepo) CreateTable(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO layout_tables
	           (layout_id, shape, x, y, rotation, width, height, capacity, label, zone_tags)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.LayoutID, t.Shape, t.X, t.Y, t.Rotation, t.Width, t.Height,
		t.Capacity, t.Label, joinZones(t.ZoneTags))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetTablesByLayout retrieves all tables of a layout ordered by id.
func (r *LayoutRepo) GetTablesByLayout(ctx context.Context, layoutID uint64) ([]model.Table, error) {
	const q = `SELECT id, layout_id, shape, x, y, rotation, width, height, capacity, label, zone_tags, created_at, updated_at
	           FROM layout_tables
	           WHERE layout_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTablePosition persists the outcome of a move. Last write wins;
// there is no version column because position carries no correctness
// constraint.
func (r *LayoutRepo) UpdateTablePosition(ctx context.Context, id uint64, x, y float64) error {
	const q = `UPDATE layout_tables
	           SET x = ?, y = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, x, y, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// UpdateTable persists the full attribute set of a table after a patch
// was applied in memory.
func (r *LayoutRepo) UpdateTable(ctx context.Context, t *model.Table) error {
	const q = `UPDATE layout_tables
	           SET shape = ?, x = ?, y = ?, rotation = ?, width = ?, height = ?,
	               capacity = ?, label = ?, zone_tags = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		t.Shape, t.X, t.Y, t.Rotation, t.Width, t.Height,
		t.Capacity, t.Label, joinZones(t.ZoneTags), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// DeleteTable removes a table and, through the assignments foreign key,
// its assignment rows. The in-memory cascade reports the unassigned
// guests; here the ON DELETE CASCADE keeps the store consistent.
func (r *LayoutRepo) DeleteTable(ctx context.Context, id uint64) error {
	const q = `DELETE FROM layout_tables WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(rs rowScanner) (model.Table, error) {
	var t model.Table
	var zones sql.NullString
	if err := rs.Scan(
		&t.ID, &t.LayoutID, &t.Shape, &t.X, &t.Y, &t.Rotation,
		&t.Width, &t.Height, &t.Capacity, &t.Label, &zones,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return model.Table{}, err
	}
	t.ZoneTags = splitZones(zones.String)
	return t, nil
}

// joinZones serializes zone tags into the CSV column format.
func joinZones(tags []string) string {
	return strings.Join(tags, ",")
}

// splitZones parses the CSV column back into a tag slice, dropping
// empty entries so a NULL or "" column yields nil.
func splitZones(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
