package model

import (
	"fmt"
	"time"
)

// Submission holds the final form fields sent with the onboarding form.
// Photo fields hold stored photo IDs.
type Submission struct {
	Notes          string
	ContactName    string
	ContactEmail   string
	Layout         string
	LayoutFiles    []string
	OtherPhotos    []string
	InviteTeammate bool
	TeammateName   string
	TeammateEmail  string
}

// Teammate is an invited colleague.
type Teammate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary is the read-only result shown after submission.
type Summary struct {
	ContactName   string    `json:"contact_name"`
	ContactEmail  string    `json:"contact_email"`
	Teammate      *Teammate `json:"teammate,omitempty"`
	Machines      []Machine `json:"machines"`
	RecordCount   int       `json:"record_count"`
	TotalUnits    int       `json:"total_units"`
	TotalMachines int       `json:"total_machines"`
	CountMode     CountMode `json:"count_mode"`
	Notes         string    `json:"notes,omitempty"`
	Layout        string    `json:"layout"`
	LayoutSummary string    `json:"layout_summary"`

	MachinePhotoCount int `json:"machine_photo_count"`
	LayoutFileCount   int `json:"layout_file_count"`
	OtherPhotoCount   int `json:"other_photo_count"`
	TotalAssets       int `json:"total_assets"`

	OtherPhotoIDs  []string `json:"-"`
	LayoutPhotoIDs []string `json:"-"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// BuildSummary derives the submission summary from the inventory and the form.
func BuildSummary(machines []Machine, sub Submission, mode CountMode, now time.Time) *Summary {
	s := &Summary{
		ContactName:  sub.ContactName,
		ContactEmail: sub.ContactEmail,
		Machines:     append([]Machine(nil), machines...),
		RecordCount:  len(machines),
		TotalUnits:   TotalQuantity(machines),
		CountMode:    mode,
		Notes:        sub.Notes,
		Layout:       sub.Layout,
		SubmittedAt:  now,
	}

	if mode == CountRecords {
		s.TotalMachines = s.RecordCount
	} else {
		s.CountMode = CountUnits
		s.TotalMachines = s.TotalUnits
	}

	if sub.InviteTeammate {
		s.Teammate = &Teammate{Name: sub.TeammateName, Email: sub.TeammateEmail}
	}

	// Sketches only count when the upload option is selected.
	if sub.Layout == LayoutUpload {
		s.LayoutPhotoIDs = append([]string(nil), sub.LayoutFiles...)
	}
	s.OtherPhotoIDs = append([]string(nil), sub.OtherPhotos...)
	s.LayoutFileCount = len(s.LayoutPhotoIDs)

	s.LayoutSummary = sub.Layout
	if sub.Layout == LayoutUpload && s.LayoutFileCount > 0 {
		s.LayoutSummary += fmt.Sprintf(" (%d files)", s.LayoutFileCount)
	}

	for _, m := range machines {
		if m.HasPhoto() {
			s.MachinePhotoCount++
		}
	}
	s.OtherPhotoCount = len(s.OtherPhotoIDs) + s.LayoutFileCount
	s.TotalAssets = s.MachinePhotoCount + s.OtherPhotoCount

	return s
}

// MachineLine formats one machine for the summary list.
func MachineLine(m Machine) string {
	line := m.Type
	if m.Model != "" {
		line += " (" + m.Model + ")"
	}
	line += fmt.Sprintf(": %d", m.Quantity)
	if m.Info != "" {
		line += " - " + m.Info
	}
	return line
}

// PhotoMachines returns the machines that have a photo attached.
func (s *Summary) PhotoMachines() []Machine {
	var out []Machine
	for _, m := range s.Machines {
		if m.HasPhoto() {
			out = append(out, m)
		}
	}
	return out
}
