package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/repository"
	"github.com/seatsmith/wedding-seating/internal/rules"
)

// fakeStore is an in-memory Store for room tests.  It hands out table
// ids the way the SQL layer does (insert first, id back) and records
// every write so tests can assert the write-through happened.
type fakeStore struct {
	mu          sync.Mutex
	layouts     map[uint64]*model.Layout
	tables      map[uint64]model.Table
	assignments map[uint64]model.Assignment // by guest id
	prefs       []model.SeatingPreference
	known       rules.GuestSet
	nextTableID uint64
}

func newFakeStore(layoutID uint64) *fakeStore {
	return &fakeStore{
		layouts:     map[uint64]*model.Layout{layoutID: {ID: layoutID, EventID: 1, Name: "reception"}},
		tables:      make(map[uint64]model.Table),
		assignments: make(map[uint64]model.Assignment),
		nextTableID: 100,
	}
}

func (s *fakeStore) GetLayout(_ context.Context, id uint64) (*model.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layouts[id]
	if !ok {
		return nil, repository.ErrLayoutNotFound
	}
	return l, nil
}

func (s *fakeStore) TablesByLayout(_ context.Context, id uint64) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Table
	for _, t := range s.tables {
		if t.LayoutID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) AssignmentsByLayout(_ context.Context, id uint64) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.LayoutID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) PreferencesByLayout(_ context.Context, _ uint64) ([]model.SeatingPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SeatingPreference(nil), s.prefs...), nil
}

func (s *fakeStore) KnownGuests(_ context.Context) (rules.GuestSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known, nil
}

func (s *fakeStore) CreateTable(_ context.Context, t *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTableID
	s.nextTableID++
	s.tables[t.ID] = *t
	return nil
}

func (s *fakeStore) UpdateTable(_ context.Context, t *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = *t
	return nil
}

func (s *fakeStore) UpdateTablePosition(_ context.Context, id uint64, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[id]
	t.X, t.Y = x, y
	s.tables[id] = t
	return nil
}

func (s *fakeStore) DeleteTable(_ context.Context, _ uint64, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, id)
	for gid, a := range s.assignments {
		if a.TableID == id {
			delete(s.assignments, gid)
		}
	}
	return nil
}

func (s *fakeStore) UpsertAssignment(_ context.Context, a model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.GuestID] = a
	return nil
}

func (s *fakeStore) DeleteAssignment(_ context.Context, _ uint64, guestID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, guestID)
	return nil
}

func (s *fakeStore) SwapAssignments(_ context.Context, a, b model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.GuestID] = a
	s.assignments[b.GuestID] = b
	return nil
}

func (s *fakeStore) tableByID(id uint64) (model.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	return t, ok
}

func dispatchOK(t *testing.T, h *Hub, layoutID uint64, typ string, payload interface{}) Envelope {
	t.Helper()
	out, err := h.Dispatch(context.Background(), layoutID, NewEnvelope(typ, payload))
	require.NoError(t, err)
	require.NotEqual(t, EvtError, out.Type, "unexpected error event: %s", out.Payload)
	return out
}

func dispatchErr(t *testing.T, h *Hub, layoutID uint64, typ string, payload interface{}) ErrorPayload {
	t.Helper()
	out, err := h.Dispatch(context.Background(), layoutID, NewEnvelope(typ, payload))
	require.NoError(t, err)
	require.Equal(t, EvtError, out.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(out.Payload, &p))
	return p
}

func createTable(t *testing.T, h *Hub, layoutID uint64, capacity uint32) model.Table {
	t.Helper()
	out := dispatchOK(t, h, layoutID, EvtTableCreate, TableCreatePayload{
		Shape: model.ShapeRound, X: 10, Y: 10, Capacity: capacity,
	})
	var tbl model.Table
	require.NoError(t, json.Unmarshal(out.Payload, &tbl))
	return tbl
}

// TestDispatch_TableCreate_StoreAllocatesID verifies table ids come from
// the store and are echoed back in the broadcast payload.
func TestDispatch_TableCreate_StoreAllocatesID(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)

	tbl := createTable(t, h, 1, 8)
	assert.Equal(t, uint64(100), tbl.ID)
	assert.Equal(t, uint64(1), tbl.LayoutID)

	_, ok := store.tableByID(tbl.ID)
	assert.True(t, ok, "table must be persisted")
}

// TestDispatch_UnknownLayout verifies dispatching against a missing
// layout surfaces the repository sentinel instead of creating a room.
func TestDispatch_UnknownLayout(t *testing.T) {
	h := NewHub(newFakeStore(1), nil, 0)
	_, err := h.Dispatch(context.Background(), 42, NewEnvelope(EvtSync, nil))
	assert.ErrorIs(t, err, repository.ErrLayoutNotFound)
}

// TestDispatch_MoveLastWriterWins verifies sequential moves resolve to
// the most recent position, in memory and in the store.
func TestDispatch_MoveLastWriterWins(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	tbl := createTable(t, h, 1, 8)

	dispatchOK(t, h, 1, EvtTableMove, TableMovePayload{TableID: tbl.ID, X: 50, Y: 50})
	out := dispatchOK(t, h, 1, EvtTableMove, TableMovePayload{TableID: tbl.ID, X: 200, Y: 300})

	var moved model.Table
	require.NoError(t, json.Unmarshal(out.Payload, &moved))
	assert.Equal(t, 200.0, moved.X)
	assert.Equal(t, 300.0, moved.Y)

	persisted, ok := store.tableByID(tbl.ID)
	require.True(t, ok)
	assert.Equal(t, 200.0, persisted.X)
	assert.Equal(t, 300.0, persisted.Y)
}

// TestDispatch_MoveSnapsToGrid verifies positions are rounded to the
// configured grid unit before the move is applied.
func TestDispatch_MoveSnapsToGrid(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 20)
	tbl := createTable(t, h, 1, 8)

	out := dispatchOK(t, h, 1, EvtTableMove, TableMovePayload{TableID: tbl.ID, X: 117, Y: 43})
	var moved model.Table
	require.NoError(t, json.Unmarshal(out.Payload, &moved))
	assert.Equal(t, 120.0, moved.X)
	assert.Equal(t, 40.0, moved.Y)
}

// TestDispatch_CapacityRejection verifies a full table answers the
// requester with a capacity error and leaves state untouched.
func TestDispatch_CapacityRejection(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	tbl := createTable(t, h, 1, 1)

	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: tbl.ID})
	p := dispatchErr(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tbl.ID})
	assert.Equal(t, CodeCapacityExceeded, p.Code)

	store.mu.Lock()
	_, seated := store.assignments[2]
	store.mu.Unlock()
	assert.False(t, seated)
}

// TestDispatch_SeatTaken verifies duplicate seat indices answer with the
// seat conflict code.
func TestDispatch_SeatTaken(t *testing.T) {
	h := NewHub(newFakeStore(1), nil, 0)
	tbl := createTable(t, h, 1, 8)

	s3 := uint32(3)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: tbl.ID, Seat: &s3})
	p := dispatchErr(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tbl.ID, Seat: &s3})
	assert.Equal(t, CodeSeatTaken, p.Code)
}

// TestDispatch_DeleteCascade verifies the delete result names every
// displaced guest and the store loses their assignments.
func TestDispatch_DeleteCascade(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	tbl := createTable(t, h, 1, 8)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: tbl.ID})
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tbl.ID})

	out := dispatchOK(t, h, 1, EvtTableDelete, TableDeletePayload{TableID: tbl.ID})
	var res TableDeleteResult
	require.NoError(t, json.Unmarshal(out.Payload, &res))
	assert.Equal(t, tbl.ID, res.TableID)
	assert.Equal(t, []uint64{1, 2}, res.UnassignedGuestIDs)

	store.mu.Lock()
	assert.Empty(t, store.assignments)
	store.mu.Unlock()
}

// TestDispatch_Swap verifies the swap result carries both new slots.
func TestDispatch_Swap(t *testing.T) {
	h := NewHub(newFakeStore(1), nil, 0)
	ta := createTable(t, h, 1, 1)
	tb := createTable(t, h, 1, 1)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: ta.ID})
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tb.ID})

	out := dispatchOK(t, h, 1, EvtGuestsSwap, GuestsSwapPayload{GuestIDA: 1, GuestIDB: 2})
	var res GuestsSwapResult
	require.NoError(t, json.Unmarshal(out.Payload, &res))
	assert.Equal(t, tb.ID, res.A.TableID)
	assert.Equal(t, ta.ID, res.B.TableID)
}

// TestDispatch_SwapUnassigned verifies swapping with an unseated guest
// is answered not_found and moves nobody.
func TestDispatch_SwapUnassigned(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	tbl := createTable(t, h, 1, 8)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: tbl.ID})

	p := dispatchErr(t, h, 1, EvtGuestsSwap, GuestsSwapPayload{GuestIDA: 1, GuestIDB: 9})
	assert.Equal(t, CodeNotFound, p.Code)

	store.mu.Lock()
	a := store.assignments[1]
	store.mu.Unlock()
	assert.Equal(t, tbl.ID, a.TableID)
}

// TestDispatch_SyncSnapshot verifies a sync request answers with the
// full current state.
func TestDispatch_SyncSnapshot(t *testing.T) {
	store := newFakeStore(1)
	store.prefs = []model.SeatingPreference{
		{ID: 7, LayoutID: 1, Type: model.PrefMustSitTogether, GuestIDs: []uint64{1, 2}},
	}
	h := NewHub(store, nil, 0)
	ta := createTable(t, h, 1, 8)
	tb := createTable(t, h, 1, 8)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: ta.ID})
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tb.ID})

	out := dispatchOK(t, h, 1, EvtSync, nil)
	require.Equal(t, EvtSnapshot, out.Type)
	var snap SnapshotPayload
	require.NoError(t, json.Unmarshal(out.Payload, &snap))
	assert.Equal(t, uint64(1), snap.LayoutID)
	assert.Len(t, snap.Tables, 2)
	assert.Len(t, snap.Assignments, 2)
	assert.Len(t, snap.Preferences, 1)
	require.Len(t, snap.Violations, 1, "the split pair must show up in the snapshot")
	assert.Equal(t, uint64(7), snap.Violations[0].PreferenceID)
}

// TestDispatch_BadPayload verifies malformed and unknown events answer
// bad_request instead of crashing the room.
func TestDispatch_BadPayload(t *testing.T) {
	h := NewHub(newFakeStore(1), nil, 0)

	out, err := h.Dispatch(context.Background(), 1, Envelope{Type: EvtTableCreate, Payload: json.RawMessage(`{"shape":"trapezoid","capacity":4}`)})
	require.NoError(t, err)
	require.Equal(t, EvtError, out.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(out.Payload, &p))
	assert.Equal(t, CodeBadRequest, p.Code)

	out, err = h.Dispatch(context.Background(), 1, Envelope{Type: "no:such:event", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, EvtError, out.Type)
}

// TestNotifyPreferencesChanged_Reload verifies a live room picks up new
// preferences and reflects them in the next snapshot.
func TestNotifyPreferencesChanged_Reload(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	ta := createTable(t, h, 1, 8)
	tb := createTable(t, h, 1, 8)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: ta.ID})
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tb.ID})

	// Rooms are refcounted; REST dispatches release theirs, so a fresh
	// room would reload anyway.  Hold a reference to keep it live and
	// make NotifyPreferencesChanged do the work.
	room, err := h.acquire(context.Background(), 1)
	require.NoError(t, err)
	defer h.release(room)

	store.mu.Lock()
	store.prefs = []model.SeatingPreference{
		{ID: 9, LayoutID: 1, Type: model.PrefMustSitTogether, GuestIDs: []uint64{1, 2}},
	}
	store.mu.Unlock()
	h.NotifyPreferencesChanged(1)

	require.Eventually(t, func() bool {
		out, err := h.Dispatch(context.Background(), 1, NewEnvelope(EvtSync, nil))
		if err != nil || out.Type != EvtSnapshot {
			return false
		}
		var snap SnapshotPayload
		if json.Unmarshal(out.Payload, &snap) != nil {
			return false
		}
		return len(snap.Violations) == 1
	}, time.Second, 10*time.Millisecond, "reload must refresh the violation set")
}

// TestDispatch_StaleGuestsFiltered verifies a known-guest set trims
// deleted guests out of validation instead of failing.
func TestDispatch_StaleGuestsFiltered(t *testing.T) {
	store := newFakeStore(1)
	store.known = rules.GuestSet{2: {}}
	store.prefs = []model.SeatingPreference{
		{ID: 3, LayoutID: 1, Type: model.PrefMustSitTogether, GuestIDs: []uint64{1, 2}},
	}
	h := NewHub(store, nil, 0)
	ta := createTable(t, h, 1, 8)
	tb := createTable(t, h, 1, 8)
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 1, TableID: ta.ID})
	dispatchOK(t, h, 1, EvtGuestAssign, GuestAssignPayload{GuestID: 2, TableID: tb.ID})

	out := dispatchOK(t, h, 1, EvtSync, nil)
	var snap SnapshotPayload
	require.NoError(t, json.Unmarshal(out.Payload, &snap))
	assert.Empty(t, snap.Violations, "guest 1 is gone from the directory, so the pair cannot be split")
}

// TestHub_RoomLifecycle verifies the last released reference stops the
// room and a later dispatch builds a fresh one from the store.
func TestHub_RoomLifecycle(t *testing.T) {
	store := newFakeStore(1)
	h := NewHub(store, nil, 0)
	tbl := createTable(t, h, 1, 8)

	h.mu.Lock()
	assert.Empty(t, h.rooms, "REST dispatch must not leak room references")
	h.mu.Unlock()

	// A new room loads the table the previous one persisted.
	out := dispatchOK(t, h, 1, EvtSync, nil)
	var snap SnapshotPayload
	require.NoError(t, json.Unmarshal(out.Payload, &snap))
	require.Len(t, snap.Tables, 1)
	assert.Equal(t, tbl.ID, snap.Tables[0].ID)
}
