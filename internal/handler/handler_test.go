package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatsmith/wedding-seating/internal/collab"
	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/repository"
	"github.com/seatsmith/wedding-seating/internal/rules"
)

// memStore is a minimal in-memory collab.Store for exercising the REST
// dispatch path without a database.
type memStore struct {
	layout model.Layout
	tables map[uint64]model.Table
	seats  map[uint64]model.Assignment
	nextID uint64
}

func newMemStore() *memStore {
	return &memStore{
		layout: model.Layout{ID: 1, EventID: 1, Name: "reception"},
		tables: make(map[uint64]model.Table),
		seats:  make(map[uint64]model.Assignment),
		nextID: 1,
	}
}

func (s *memStore) GetLayout(_ context.Context, id uint64) (*model.Layout, error) {
	if id != s.layout.ID {
		return nil, repository.ErrLayoutNotFound
	}
	return &s.layout, nil
}

func (s *memStore) TablesByLayout(_ context.Context, _ uint64) ([]model.Table, error) {
	var out []model.Table
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) AssignmentsByLayout(_ context.Context, _ uint64) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range s.seats {
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) PreferencesByLayout(_ context.Context, _ uint64) ([]model.SeatingPreference, error) {
	return nil, nil
}

func (s *memStore) KnownGuests(_ context.Context) (rules.GuestSet, error) { return nil, nil }

func (s *memStore) CreateTable(_ context.Context, t *model.Table) error {
	t.ID = s.nextID
	s.nextID++
	s.tables[t.ID] = *t
	return nil
}

func (s *memStore) UpdateTable(_ context.Context, t *model.Table) error {
	s.tables[t.ID] = *t
	return nil
}

func (s *memStore) UpdateTablePosition(_ context.Context, id uint64, x, y float64) error {
	t := s.tables[id]
	t.X, t.Y = x, y
	s.tables[id] = t
	return nil
}

func (s *memStore) DeleteTable(_ context.Context, _ uint64, id uint64) error {
	delete(s.tables, id)
	return nil
}

func (s *memStore) UpsertAssignment(_ context.Context, a model.Assignment) error {
	s.seats[a.GuestID] = a
	return nil
}

func (s *memStore) DeleteAssignment(_ context.Context, _ uint64, guestID uint64) error {
	delete(s.seats, guestID)
	return nil
}

func (s *memStore) SwapAssignments(_ context.Context, a, b model.Assignment) error {
	s.seats[a.GuestID] = a
	s.seats[b.GuestID] = b
	return nil
}

func dispatchRequest(t *testing.T, h *SeatingHandler, layoutParam string, env collab.Envelope, okStatus int) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(layoutParam)
	layoutID, err := pathID(c, "id")
	require.NoError(t, err)
	require.NoError(t, h.dispatch(c, layoutID, env, okStatus))
	return rec
}

// TestDispatch_SuccessReturnsBroadcastPayload verifies the REST surface
// answers with the same payload the room broadcasts.
func TestDispatch_SuccessReturnsBroadcastPayload(t *testing.T) {
	h := &SeatingHandler{Hub: collab.NewHub(newMemStore(), nil, 0)}
	env := collab.NewEnvelope(collab.EvtTableCreate, collab.TableCreatePayload{
		Shape: model.ShapeRound, Capacity: 8,
	})
	rec := dispatchRequest(t, h, "1", env, http.StatusCreated)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tbl model.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	assert.Equal(t, uint64(1), tbl.ID)
	assert.Equal(t, model.ShapeRound, tbl.Shape)
}

// TestDispatch_ErrorStatusMapping verifies protocol error codes become
// the right HTTP statuses: missing things 404, conflicts 409, bad
// payloads 400.
func TestDispatch_ErrorStatusMapping(t *testing.T) {
	store := newMemStore()
	h := &SeatingHandler{Hub: collab.NewHub(store, nil, 0)}

	// Unknown layout: repository sentinel, 404.
	env := collab.NewEnvelope(collab.EvtSync, nil)
	rec := dispatchRequest(t, h, "42", env, http.StatusOK)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown table: protocol not_found, 404.
	env = collab.NewEnvelope(collab.EvtTableMove, collab.TableMovePayload{TableID: 99, X: 1, Y: 1})
	rec = dispatchRequest(t, h, "1", env, http.StatusOK)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Full table: 409.
	createEnv := collab.NewEnvelope(collab.EvtTableCreate, collab.TableCreatePayload{Shape: model.ShapeRound, Capacity: 1})
	rec = dispatchRequest(t, h, "1", createEnv, http.StatusCreated)
	var tbl model.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	assign := func(guestID uint64) *httptest.ResponseRecorder {
		return dispatchRequest(t, h, "1",
			collab.NewEnvelope(collab.EvtGuestAssign, collab.GuestAssignPayload{GuestID: guestID, TableID: tbl.ID}),
			http.StatusOK)
	}
	require.Equal(t, http.StatusOK, assign(1).Code)
	rec = assign(2)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, collab.CodeCapacityExceeded, body["code"])

	// Invalid shape: 400.
	env = collab.NewEnvelope(collab.EvtTableCreate, collab.TableCreatePayload{Shape: "triangle", Capacity: 4})
	rec = dispatchRequest(t, h, "1", env, http.StatusCreated)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errorStatus(collab.CodeNotFound))
	assert.Equal(t, http.StatusConflict, errorStatus(collab.CodeCapacityExceeded))
	assert.Equal(t, http.StatusConflict, errorStatus(collab.CodeSeatTaken))
	assert.Equal(t, http.StatusBadRequest, errorStatus(collab.CodeBadRequest))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(collab.CodeInternal))
	assert.Equal(t, http.StatusInternalServerError, errorStatus("something-else"))
}
