package inventory

import "github.com/erazemk/onboard/internal/model"

// AddMachine appends a machine built from Template. A zero template adds a
// blank entry with quantity one.
type AddMachine struct {
	Template model.Template
}

func (a AddMachine) apply(r *Reducer, s *State, out *Outcome) error {
	m := r.newMachine(a.Template, "")
	s.Machines = append(s.Machines, m)
	out.Added = &m
	celebrate(s, out)
	return nil
}

// AddManual appends a machine entered in the manual-add panel. The type is
// required. KeepOpen leaves the panel open for another entry.
type AddManual struct {
	Fields   model.Template
	PhotoID  string
	KeepOpen bool
}

func (a AddManual) apply(r *Reducer, s *State, out *Outcome) error {
	fields := a.Fields.Trimmed()
	if fields.Type == "" {
		return &ValidationError{Field: "type", Message: "Please enter a machine type"}
	}

	m := r.newMachine(fields, a.PhotoID)
	s.Machines = append(s.Machines, m)
	s.ShowAddForm = a.KeepOpen
	out.Added = &m
	celebrate(s, out)
	return nil
}

// BeginEdit opens a machine for editing. An edit already in progress on
// another machine is closed with its current values.
type BeginEdit struct {
	ID string
}

func (a BeginEdit) apply(_ *Reducer, s *State, out *Outcome) error {
	i, ok := s.Find(a.ID)
	if !ok {
		return ErrNotFound
	}
	if s.EditingID == a.ID {
		return nil
	}
	if s.EditingID != "" {
		finishEdit(s, out)
	}

	snap := s.Machines[i]
	s.EditingID = a.ID
	s.EditSnapshot = &snap
	return nil
}

// UpdateEdit overwrites the fields of the machine being edited. When
// ReplacePhoto is set the photo becomes PhotoID.
type UpdateEdit struct {
	Fields       model.Template
	PhotoID      string
	ReplacePhoto bool
}

func (a UpdateEdit) apply(_ *Reducer, s *State, out *Outcome) error {
	if s.EditingID == "" {
		return ErrNoActiveEdit
	}
	i, ok := s.Find(s.EditingID)
	if !ok {
		return ErrNotFound
	}

	m := &s.Machines[i]
	m.Type = a.Fields.Type
	m.Model = a.Fields.Model
	m.Info = a.Fields.Info
	m.Quantity = model.NormalizeQuantity(a.Fields.Quantity)

	if a.ReplacePhoto && a.PhotoID != m.PhotoID {
		old := m.PhotoID
		m.PhotoID = a.PhotoID
		// The snapshot photo is kept until the edit ends so cancel can restore it.
		if s.EditSnapshot == nil || old != s.EditSnapshot.PhotoID {
			out.release(old)
		}
	}
	return nil
}

// CommitEdit closes the edit slot keeping the edited values.
type CommitEdit struct{}

func (CommitEdit) apply(_ *Reducer, s *State, out *Outcome) error {
	if s.EditingID == "" {
		return ErrNoActiveEdit
	}
	finishEdit(s, out)
	celebrate(s, out)
	return nil
}

// CancelEdit closes the edit slot and restores the machine as it was when
// editing began.
type CancelEdit struct{}

func (CancelEdit) apply(_ *Reducer, s *State, out *Outcome) error {
	if s.EditingID == "" {
		return ErrNoActiveEdit
	}
	if i, ok := s.Find(s.EditingID); ok && s.EditSnapshot != nil {
		if s.Machines[i].PhotoID != s.EditSnapshot.PhotoID {
			out.release(s.Machines[i].PhotoID)
		}
		s.Machines[i] = *s.EditSnapshot
	}
	s.EditingID = ""
	s.EditSnapshot = nil
	return nil
}

// RemoveMachine deletes a machine. The order of the remaining machines is kept.
type RemoveMachine struct {
	ID string
}

func (a RemoveMachine) apply(_ *Reducer, s *State, out *Outcome) error {
	i, ok := s.Find(a.ID)
	if !ok {
		return ErrNotFound
	}

	removed := s.Machines[i]
	s.Machines = append(s.Machines[:i], s.Machines[i+1:]...)
	out.release(removed.PhotoID)

	if s.EditingID == a.ID {
		if s.EditSnapshot != nil && s.EditSnapshot.PhotoID != removed.PhotoID {
			out.release(s.EditSnapshot.PhotoID)
		}
		s.EditingID = ""
		s.EditSnapshot = nil
	}
	return nil
}

// BulkReplace replaces the whole inventory with new machines built from
// Templates.
type BulkReplace struct {
	Templates []model.Template
}

func (a BulkReplace) apply(r *Reducer, s *State, out *Outcome) error {
	if s.EditingID != "" {
		finishEdit(s, out)
	}
	for _, m := range s.Machines {
		out.release(m.PhotoID)
	}

	machines := make([]model.Machine, 0, len(a.Templates))
	for _, t := range a.Templates {
		machines = append(machines, r.newMachine(t, ""))
	}
	s.Machines = machines
	return nil
}

// OpenAddForm shows the manual-add panel. Opening a closed panel celebrates.
type OpenAddForm struct{}

func (OpenAddForm) apply(_ *Reducer, s *State, out *Outcome) error {
	if s.ShowAddForm {
		return nil
	}
	s.ShowAddForm = true
	celebrate(s, out)
	return nil
}

// CloseAddForm hides the manual-add panel.
type CloseAddForm struct{}

func (CloseAddForm) apply(_ *Reducer, s *State, _ *Outcome) error {
	s.ShowAddForm = false
	return nil
}

// Celebrate advances the celebration rotation without touching the inventory.
type Celebrate struct{}

func (Celebrate) apply(_ *Reducer, s *State, out *Outcome) error {
	celebrate(s, out)
	return nil
}
