// Package waypoint holds the two-point selection state machine.
//
// The store owns the selected points; map markers are only a mirror that the
// session keeps in sync from the emitted events.
package waypoint

import "trip-route-service/internal/domain"

type Phase int

const (
	Empty Phase = iota
	HasOrigin
	Ready
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case HasOrigin:
		return "has_origin"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// State is the tagged selection state: Empty | HasOrigin(origin) | Ready(origin, destination).
type State struct {
	phase       Phase
	origin      domain.Point
	destination domain.Point
}

func (s State) Phase() Phase { return s.phase }

// Len is the number of selected points (0, 1 or 2).
func (s State) Len() int { return int(s.phase) }

func (s State) Origin() (domain.Point, bool) {
	return s.origin, s.phase != Empty
}

// Pair returns the completed selection. ok is false unless the state is Ready.
func (s State) Pair() (domain.Pair, bool) {
	if s.phase != Ready {
		return domain.Pair{}, false
	}
	return domain.Pair{Origin: s.origin, Destination: s.destination}, true
}

// Event is emitted by a transition.
type Event interface{ isEvent() }

// Cleared signals that every stored point, marker and drawn route must go.
type Cleared struct{}

type OriginSet struct{ Point domain.Point }

type DestinationSet struct{ Point domain.Point }

type SelectionComplete struct{ Pair domain.Pair }

func (Cleared) isEvent()           {}
func (OriginSet) isEvent()         {}
func (DestinationSet) isEvent()    {}
func (SelectionComplete) isEvent() {}

// Transition applies a pick to s. A pick in the Ready state clears the cycle
// and starts a new one with p as the origin.
func Transition(s State, p domain.Point) (State, []Event) {
	switch s.phase {
	case Empty:
		return State{phase: HasOrigin, origin: p}, []Event{OriginSet{Point: p}}
	case HasOrigin:
		next := State{phase: Ready, origin: s.origin, destination: p}
		pair, _ := next.Pair()
		return next, []Event{DestinationSet{Point: p}, SelectionComplete{Pair: pair}}
	default:
		return State{phase: HasOrigin, origin: p}, []Event{Cleared{}, OriginSet{Point: p}}
	}
}

// Store holds the live selection. It is not safe for concurrent use; the
// session drives it from a single goroutine.
type Store struct {
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Select(p domain.Point) []Event {
	next, events := Transition(s.state, p)
	s.state = next
	return events
}

// Reset clears unconditionally. It reports Cleared only when something was held.
func (s *Store) Reset() []Event {
	if s.state.phase == Empty {
		return nil
	}
	s.state = State{}
	return []Event{Cleared{}}
}

func (s *Store) State() State { return s.state }

func (s *Store) Pair() (domain.Pair, bool) { return s.state.Pair() }
