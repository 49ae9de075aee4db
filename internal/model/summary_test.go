package model

import (
	"testing"
	"time"
)

func TestBuildSummaryCountModes(t *testing.T) {
	machines := []Machine{
		{ID: "a", Type: "Lathe", Quantity: 2},
		{ID: "b", Type: "Drill Press", Quantity: 1},
	}
	sub := Submission{ContactName: "Ana", ContactEmail: "ana@example.com", Layout: LayoutSkip}

	tests := []struct {
		mode CountMode
		want int
	}{
		{CountUnits, 3},
		{CountRecords, 2},
	}

	for _, tt := range tests {
		s := BuildSummary(machines, sub, tt.mode, time.Now())
		if s.TotalMachines != tt.want {
			t.Errorf("mode %s: TotalMachines = %d, want %d", tt.mode, s.TotalMachines, tt.want)
		}
		if s.MachinePhotoCount != 0 {
			t.Errorf("mode %s: MachinePhotoCount = %d, want 0", tt.mode, s.MachinePhotoCount)
		}
		if s.RecordCount != 2 || s.TotalUnits != 3 {
			t.Errorf("mode %s: got records=%d units=%d, want 2 and 3", tt.mode, s.RecordCount, s.TotalUnits)
		}
	}
}

func TestBuildSummaryAssets(t *testing.T) {
	machines := []Machine{
		{ID: "a", Type: "Lathe", Quantity: 1, PhotoID: "p1"},
		{ID: "b", Type: "Saw", Quantity: 1},
	}
	sub := Submission{
		Layout:      LayoutUpload,
		LayoutFiles: []string{"l1", "l2"},
		OtherPhotos: []string{"o1"},
	}

	s := BuildSummary(machines, sub, CountUnits, time.Now())
	if s.MachinePhotoCount != 1 {
		t.Errorf("MachinePhotoCount = %d, want 1", s.MachinePhotoCount)
	}
	if s.OtherPhotoCount != 3 {
		t.Errorf("OtherPhotoCount = %d, want 3", s.OtherPhotoCount)
	}
	if s.TotalAssets != 4 {
		t.Errorf("TotalAssets = %d, want 4", s.TotalAssets)
	}
	if s.LayoutSummary != LayoutUpload+" (2 files)" {
		t.Errorf("LayoutSummary = %q", s.LayoutSummary)
	}
	if got := s.PhotoMachines(); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("PhotoMachines = %+v", got)
	}
}

func TestBuildSummaryIgnoresSketchesWithoutUploadChoice(t *testing.T) {
	sub := Submission{Layout: LayoutWhiteboard, LayoutFiles: []string{"l1"}}
	s := BuildSummary(nil, sub, CountUnits, time.Now())
	if s.LayoutFileCount != 0 || s.OtherPhotoCount != 0 {
		t.Errorf("expected sketches to be ignored, got %d layout files", s.LayoutFileCount)
	}
	if s.LayoutSummary != LayoutWhiteboard {
		t.Errorf("LayoutSummary = %q", s.LayoutSummary)
	}
}

func TestBuildSummaryTeammate(t *testing.T) {
	sub := Submission{TeammateName: "Bo", TeammateEmail: "bo@example.com"}
	if s := BuildSummary(nil, sub, CountUnits, time.Now()); s.Teammate != nil {
		t.Error("teammate should be omitted when the invite box is unchecked")
	}

	sub.InviteTeammate = true
	s := BuildSummary(nil, sub, CountUnits, time.Now())
	if s.Teammate == nil || s.Teammate.Name != "Bo" || s.Teammate.Email != "bo@example.com" {
		t.Errorf("Teammate = %+v", s.Teammate)
	}
}

func TestMachineLine(t *testing.T) {
	tests := []struct {
		m    Machine
		want string
	}{
		{Machine{Type: "Lathe", Quantity: 2}, "Lathe: 2"},
		{Machine{Type: "Lathe", Model: "Haas ST-10", Quantity: 1}, "Lathe (Haas ST-10): 1"},
		{Machine{Type: "Lathe", Info: "2019", Quantity: 3}, "Lathe: 3 - 2019"},
		{Machine{Type: "Mill", Model: "VF-2", Info: "SN 42", Quantity: 1}, "Mill (VF-2): 1 - SN 42"},
	}

	for _, tt := range tests {
		if got := MachineLine(tt.m); got != tt.want {
			t.Errorf("MachineLine(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestParseCountMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CountMode
		wantErr bool
	}{
		{"units", CountUnits, false},
		{"records", CountRecords, false},
		{"", "", true},
		{"machines", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCountMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCountMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCountMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeQuantity(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 7: 7} {
		if got := NormalizeQuantity(in); got != want {
			t.Errorf("NormalizeQuantity(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestValidChoices(t *testing.T) {
	if !ValidIndustry("Automotive") || ValidIndustry("Mining") {
		t.Error("ValidIndustry mismatch")
	}
	if !ValidLayout(LayoutSkip) || ValidLayout("Fax it") {
		t.Error("ValidLayout mismatch")
	}
}
