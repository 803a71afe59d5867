package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/repository"
	"github.com/seatsmith/wedding-seating/internal/rules"
	"github.com/seatsmith/wedding-seating/internal/seating"
)

// storeTimeout bounds each write-through to the durable store.
const storeTimeout = 5 * time.Second

// command is one unit of work for the room loop: an event from a
// connected client or a dispatched REST mutation.  Exactly one of
// client/reply is set; errors go back through whichever it is.
type command struct {
	client *Client
	env    Envelope
	reply  chan Envelope
}

// Room is the single logical authority for one layout.  It owns the
// chart, the connected clients and the preference cache, and processes
// every command in strict arrival order on one goroutine.  Different
// layouts are fully independent rooms and run in parallel.
type Room struct {
	layoutID uint64
	store    Store
	presence Presence
	gridUnit float64

	chart *seating.Chart
	prefs []model.SeatingPreference
	known rules.GuestSet

	clients map[*Client]struct{}

	cmds   chan command
	attach chan *Client
	detach chan *Client
	reload chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// newRoom loads a room's state from the store and starts its loop.
func newRoom(ctx context.Context, layoutID uint64, store Store, presence Presence, gridUnit float64) (*Room, error) {
	if _, err := store.GetLayout(ctx, layoutID); err != nil {
		return nil, err
	}
	tables, err := store.TablesByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	assignments, err := store.AssignmentsByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	prefs, err := store.PreferencesByLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	known, err := store.KnownGuests(ctx)
	if err != nil {
		return nil, err
	}
	r := &Room{
		layoutID: layoutID,
		store:    store,
		presence: presence,
		gridUnit: gridUnit,
		chart:    seating.NewChart(layoutID, tables, assignments),
		prefs:    prefs,
		known:    known,
		clients:  make(map[*Client]struct{}),
		cmds:     make(chan command, 64),
		attach:   make(chan *Client),
		detach:   make(chan *Client),
		reload:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// LayoutID returns the layout this room coordinates.
func (r *Room) LayoutID() uint64 { return r.layoutID }

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case c := <-r.attach:
			r.handleAttach(c)
		case c := <-r.detach:
			r.handleDetach(c)
		case cmd := <-r.cmds:
			r.handleCommand(cmd)
		case <-r.reload:
			r.reloadPreferences()
		case <-r.quit:
			for c := range r.clients {
				r.dropClient(c)
			}
			return
		}
	}
}

// stop shuts the loop down and waits for it to drain.
func (r *Room) stop() {
	close(r.quit)
	<-r.done
}

// handleAttach registers a client, sends it the full snapshot before
// any further events, and announces the join to everyone else.
func (r *Room) handleAttach(c *Client) {
	r.clients[c] = struct{}{}
	c.trySend(r.snapshot())
	r.broadcastExcept(c, NewEnvelope(EvtUserJoined, PresencePayload{
		UserID:    c.userID,
		Timestamp: time.Now().UnixMilli(),
	}))
	if r.presence != nil {
		r.presence.Set(context.Background(), r.layoutID, c.userID)
	}
}

func (r *Room) handleDetach(c *Client) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	r.dropClient(c)
	r.broadcastExcept(nil, NewEnvelope(EvtUserLeft, PresencePayload{
		UserID:    c.userID,
		Timestamp: time.Now().UnixMilli(),
	}))
	if r.presence != nil {
		r.presence.Clear(context.Background(), r.layoutID, c.userID)
	}
}

func (r *Room) dropClient(c *Client) {
	delete(r.clients, c)
	c.drop()
}

// handleCommand routes one event.  Mutations are applied against the
// chart, written through to the store and re-broadcast to the whole
// room including the sender; failures are answered to the requester
// only and nothing is broadcast.
func (r *Room) handleCommand(cmd command) {
	switch cmd.env.Type {
	case EvtCursorMove:
		// Ephemeral relay: everyone but the sender, no ack, droppable.
		if cmd.client != nil {
			r.broadcastExcept(cmd.client, cmd.env)
		}
		return
	case EvtSync:
		r.respond(cmd, r.snapshot())
		return
	}

	result, affectsSeating, err := r.applyMutation(cmd.env)
	if err != nil {
		r.respond(cmd, errorEnvelope(err))
		return
	}
	r.broadcastExcept(nil, result)
	if cmd.reply != nil {
		r.respond(cmd, result)
	}
	if affectsSeating {
		r.broadcastExcept(nil, NewEnvelope(EvtViolations, ViolationsPayload{Violations: r.validate()}))
	}
}

// applyMutation performs a mutation event against the chart and the
// store.  It returns the broadcast envelope and whether the mutation
// can change the validation result.
func (r *Room) applyMutation(env Envelope) (Envelope, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	switch env.Type {
	case EvtTableCreate:
		var p TableCreatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		if !model.ValidShape(p.Shape) || p.Capacity == 0 {
			return Envelope{}, false, errBadPayload
		}
		t := model.Table{
			LayoutID: r.layoutID,
			Shape:    p.Shape,
			X:        seating.Snap(p.X, r.gridUnit),
			Y:        seating.Snap(p.Y, r.gridUnit),
			Rotation: p.Rotation,
			Width:    p.Width,
			Height:   p.Height,
			Capacity: p.Capacity,
			Label:    p.Label,
			ZoneTags: p.ZoneTags,
		}
		if err := r.store.CreateTable(ctx, &t); err != nil {
			return Envelope{}, false, err
		}
		if err := r.chart.AddTable(t); err != nil {
			return Envelope{}, false, err
		}
		return NewEnvelope(EvtTableCreate, t), false, nil

	case EvtTableMove:
		var p TableMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		// Snap-to-grid is presentation configuration applied before
		// the move, never a chart invariant.
		x := seating.Snap(p.X, r.gridUnit)
		y := seating.Snap(p.Y, r.gridUnit)
		t, err := r.chart.MoveTable(p.TableID, x, y)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.UpdateTablePosition(ctx, p.TableID, x, y) })
		return NewEnvelope(EvtTableMove, t), false, nil

	case EvtTableUpdate:
		var p TableUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		if p.Patch.Shape != nil && !model.ValidShape(*p.Patch.Shape) {
			return Envelope{}, false, errBadPayload
		}
		t, err := r.chart.PatchTable(p.TableID, p.Patch)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.UpdateTable(ctx, &t) })
		// Zone tag edits can change proximity results.
		return NewEnvelope(EvtTableUpdate, t), true, nil

	case EvtTableDelete:
		var p TableDeletePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		unassigned, err := r.chart.RemoveTable(p.TableID)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.DeleteTable(ctx, r.layoutID, p.TableID) })
		if unassigned == nil {
			unassigned = []uint64{}
		}
		return NewEnvelope(EvtTableDelete, TableDeleteResult{
			TableID:            p.TableID,
			UnassignedGuestIDs: unassigned,
		}), true, nil

	case EvtGuestAssign:
		var p GuestAssignPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		a, err := r.chart.Assign(p.GuestID, p.TableID, p.Seat)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.UpsertAssignment(ctx, a) })
		return NewEnvelope(EvtGuestAssign, a), true, nil

	case EvtGuestUnassign:
		var p GuestUnassignPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		a, err := r.chart.Unassign(p.GuestID)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.DeleteAssignment(ctx, r.layoutID, a.GuestID) })
		return NewEnvelope(EvtGuestUnassign, GuestUnassignPayload{GuestID: p.GuestID}), true, nil

	case EvtGuestsSwap:
		var p GuestsSwapPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Envelope{}, false, errBadPayload
		}
		a, b, err := r.chart.Swap(p.GuestIDA, p.GuestIDB)
		if err != nil {
			return Envelope{}, false, err
		}
		r.persist(func() error { return r.store.SwapAssignments(ctx, a, b) })
		return NewEnvelope(EvtGuestsSwap, GuestsSwapResult{A: a, B: b}), true, nil
	}
	return Envelope{}, false, errBadPayload
}

// persist runs a write-through.  The chart already accepted the
// mutation, so a store failure is logged and the broadcast still goes
// out: the in-memory state stays authoritative for the room's lifetime
// and clients would diverge if a confirmed edit were silently dropped.
func (r *Room) persist(fn func() error) {
	if err := fn(); err != nil {
		log.Printf("collab: layout %d: write-through failed: %v", r.layoutID, err)
	}
}

// reloadPreferences refreshes the preference cache and the known-guest
// set, then pushes a fresh validation result to the room.  Triggered
// by the REST surface after preference or guest-directory changes.
func (r *Room) reloadPreferences() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	prefs, err := r.store.PreferencesByLayout(ctx, r.layoutID)
	if err != nil {
		log.Printf("collab: layout %d: reload preferences failed: %v", r.layoutID, err)
		return
	}
	known, err := r.store.KnownGuests(ctx)
	if err != nil {
		log.Printf("collab: layout %d: reload guests failed: %v", r.layoutID, err)
		return
	}
	r.prefs = prefs
	r.known = known
	r.broadcastExcept(nil, NewEnvelope(EvtViolations, ViolationsPayload{Violations: r.validate()}))
}

func (r *Room) validate() []model.Violation {
	v := rules.Validate(r.chart.Tables(), r.chart.Assignments(), r.prefs, r.known)
	if v == nil {
		v = []model.Violation{}
	}
	return v
}

func (r *Room) snapshot() Envelope {
	return NewEnvelope(EvtSnapshot, SnapshotPayload{
		LayoutID:    r.layoutID,
		Tables:      r.chart.Tables(),
		Assignments: r.chart.Assignments(),
		Preferences: r.prefs,
		Violations:  r.validate(),
	})
}

// respond answers the requester: the reply channel for dispatched
// commands, the client's send queue for socket commands.
func (r *Room) respond(cmd command, env Envelope) {
	if cmd.reply != nil {
		cmd.reply <- env
		return
	}
	if cmd.client != nil {
		cmd.client.trySend(env)
	}
}

// broadcastExcept sends an envelope to every client except skip.  A
// client whose send queue is full is dropped; it is expected to notice
// the closed connection and resync with a fresh snapshot.
func (r *Room) broadcastExcept(skip *Client, env Envelope) {
	var slow []*Client
	for c := range r.clients {
		if c == skip {
			continue
		}
		if !c.trySend(env) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		log.Printf("collab: layout %d: dropping slow client %s", r.layoutID, c.id)
		r.dropClient(c)
	}
}

var errBadPayload = errors.New("bad payload")

// errorEnvelope maps domain errors onto protocol error events.
func errorEnvelope(err error) Envelope {
	code := CodeInternal
	switch {
	case errors.Is(err, seating.ErrTableNotFound),
		errors.Is(err, seating.ErrGuestNotAssigned),
		errors.Is(err, repository.ErrLayoutNotFound),
		errors.Is(err, repository.ErrTableNotFound):
		code = CodeNotFound
	case errors.Is(err, seating.ErrCapacityExceeded):
		code = CodeCapacityExceeded
	case errors.Is(err, seating.ErrSeatTaken):
		code = CodeSeatTaken
	case errors.Is(err, errBadPayload), errors.Is(err, seating.ErrInvalidPosition):
		code = CodeBadRequest
	}
	return NewEnvelope(EvtError, ErrorPayload{Code: code, Message: err.Error()})
}
