// Package inventory holds the per-session machine list and the transitions
// that edit it. Every transition is a pure function of the previous state.
package inventory

import (
	"errors"

	"github.com/google/uuid"

	"github.com/erazemk/onboard/internal/model"
)

var (
	// ErrNotFound is returned when an action names a machine that is not in the list.
	ErrNotFound = errors.New("machine not found")
	// ErrNoActiveEdit is returned when an edit action arrives with no machine being edited.
	ErrNoActiveEdit = errors.New("no machine is being edited")
)

// ValidationError reports rejected user input. The state is left unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// State is the inventory of one session.
type State struct {
	Machines []model.Machine `json:"machines"`

	// EditingID is the machine currently open for editing, empty if none.
	EditingID string `json:"editing_id,omitempty"`
	// EditSnapshot is the machine as it was when editing began.
	EditSnapshot *model.Machine `json:"edit_snapshot,omitempty"`

	ShowAddForm      bool `json:"show_add_form"`
	CelebrationIndex int  `json:"celebration_index"`
}

// TotalQuantity is the sum of all machine quantities.
func (s State) TotalQuantity() int {
	return model.TotalQuantity(s.Machines)
}

// Find returns the position of the machine with the given ID.
func (s State) Find(id string) (int, bool) {
	for i, m := range s.Machines {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Editing returns the machine open for editing.
func (s State) Editing() (model.Machine, bool) {
	if s.EditingID == "" {
		return model.Machine{}, false
	}
	i, ok := s.Find(s.EditingID)
	if !ok {
		return model.Machine{}, false
	}
	return s.Machines[i], true
}

// PhotoIDs lists every photo referenced by the state, including the edit snapshot.
func (s State) PhotoIDs() []string {
	var ids []string
	for _, m := range s.Machines {
		if m.PhotoID != "" {
			ids = append(ids, m.PhotoID)
		}
	}
	if s.EditSnapshot != nil && s.EditSnapshot.PhotoID != "" {
		if i, ok := s.Find(s.EditingID); !ok || s.Machines[i].PhotoID != s.EditSnapshot.PhotoID {
			ids = append(ids, s.EditSnapshot.PhotoID)
		}
	}
	return ids
}

func (s State) clone() State {
	c := s
	c.Machines = append([]model.Machine(nil), s.Machines...)
	if s.EditSnapshot != nil {
		snap := *s.EditSnapshot
		c.EditSnapshot = &snap
	}
	return c
}

// Outcome describes side effects of a transition for the caller to act on.
type Outcome struct {
	// Celebration is the message to show, empty when the action does not celebrate.
	Celebration string
	// Added is the machine appended by the action, if any.
	Added *model.Machine
	// Released lists photo IDs no longer referenced by the state.
	Released []string
}

func (o *Outcome) release(photoID string) {
	if photoID != "" {
		o.Released = append(o.Released, photoID)
	}
}

// Action is a transition of the inventory state.
type Action interface {
	apply(r *Reducer, s *State, out *Outcome) error
}

// Reducer applies actions to states.
type Reducer struct {
	// NewID generates machine IDs.
	NewID func() string
}

// NewReducer returns a reducer that assigns random UUIDs to new machines.
func NewReducer() *Reducer {
	return &Reducer{NewID: uuid.NewString}
}

// Apply returns the state that results from applying a to s. The input state
// is never modified. On error the original state is returned unchanged.
func (r *Reducer) Apply(s State, a Action) (State, Outcome, error) {
	next := s.clone()
	var out Outcome
	if err := a.apply(r, &next, &out); err != nil {
		return s, Outcome{}, err
	}
	return next, out, nil
}

func (r *Reducer) newMachine(t model.Template, photoID string) model.Machine {
	return model.Machine{
		ID:       r.NewID(),
		Type:     t.Type,
		Model:    t.Model,
		Info:     t.Info,
		Quantity: model.NormalizeQuantity(t.Quantity),
		PhotoID:  photoID,
	}
}

// finishEdit closes the edit slot keeping the record's current values.
func finishEdit(s *State, out *Outcome) {
	if s.EditSnapshot != nil {
		if i, ok := s.Find(s.EditingID); !ok || s.Machines[i].PhotoID != s.EditSnapshot.PhotoID {
			out.release(s.EditSnapshot.PhotoID)
		}
	}
	s.EditingID = ""
	s.EditSnapshot = nil
}
