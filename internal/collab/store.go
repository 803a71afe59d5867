package collab

import (
	"context"

	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/repository"
	"github.com/seatsmith/wedding-seating/internal/rules"
)

// Store is the durable backing a room loads from and writes through to.
// The room is the only writer for its layout; the store never has to
// arbitrate concurrent mutations of the same layout.
type Store interface {
	GetLayout(ctx context.Context, layoutID uint64) (*model.Layout, error)
	TablesByLayout(ctx context.Context, layoutID uint64) ([]model.Table, error)
	AssignmentsByLayout(ctx context.Context, layoutID uint64) ([]model.Assignment, error)
	PreferencesByLayout(ctx context.Context, layoutID uint64) ([]model.SeatingPreference, error)
	KnownGuests(ctx context.Context) (rules.GuestSet, error)

	CreateTable(ctx context.Context, t *model.Table) error
	UpdateTable(ctx context.Context, t *model.Table) error
	UpdateTablePosition(ctx context.Context, tableID uint64, x, y float64) error
	DeleteTable(ctx context.Context, layoutID, tableID uint64) error

	UpsertAssignment(ctx context.Context, a model.Assignment) error
	DeleteAssignment(ctx context.Context, layoutID, guestID uint64) error
	SwapAssignments(ctx context.Context, a, b model.Assignment) error
}

// RepoStore adapts the repository layer to the Store interface.
type RepoStore struct {
	Layouts     *repository.LayoutRepo
	Assignments *repository.AssignmentRepo
	Preferences *repository.PreferenceRepo
	Guests      *repository.GuestRepo
}

func (s *RepoStore) GetLayout(ctx context.Context, layoutID uint64) (*model.Layout, error) {
	return s.Layouts.GetLayout(ctx, layoutID)
}

func (s *RepoStore) TablesByLayout(ctx context.Context, layoutID uint64) ([]model.Table, error) {
	return s.Layouts.GetTablesByLayout(ctx, layoutID)
}

func (s *RepoStore) AssignmentsByLayout(ctx context.Context, layoutID uint64) ([]model.Assignment, error) {
	return s.Assignments.GetByLayout(ctx, layoutID)
}

func (s *RepoStore) PreferencesByLayout(ctx context.Context, layoutID uint64) ([]model.SeatingPreference, error) {
	return s.Preferences.GetByLayout(ctx, layoutID)
}

func (s *RepoStore) KnownGuests(ctx context.Context) (rules.GuestSet, error) {
	ids, err := s.Guests.KnownIDs(ctx)
	if err != nil {
		return nil, err
	}
	return rules.GuestSet(ids), nil
}

func (s *RepoStore) CreateTable(ctx context.Context, t *model.Table) error {
	return s.Layouts.CreateTable(ctx, t)
}

func (s *RepoStore) UpdateTable(ctx context.Context, t *model.Table) error {
	return s.Layouts.UpdateTable(ctx, t)
}

func (s *RepoStore) UpdateTablePosition(ctx context.Context, tableID uint64, x, y float64) error {
	return s.Layouts.UpdateTablePosition(ctx, tableID, x, y)
}

func (s *RepoStore) DeleteTable(ctx context.Context, layoutID, tableID uint64) error {
	if err := s.Layouts.DeleteTable(ctx, tableID); err != nil {
		return err
	}
	// Schemas without the assignments FK still need the cascade.
	return s.Assignments.DeleteByTable(ctx, layoutID, tableID)
}

func (s *RepoStore) UpsertAssignment(ctx context.Context, a model.Assignment) error {
	return s.Assignments.Upsert(ctx, a)
}

func (s *RepoStore) DeleteAssignment(ctx context.Context, layoutID, guestID uint64) error {
	return s.Assignments.Delete(ctx, layoutID, guestID)
}

func (s *RepoStore) SwapAssignments(ctx context.Context, a, b model.Assignment) error {
	return s.Assignments.SwapTx(ctx, a, b)
}
