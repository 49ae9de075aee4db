package model

import "fmt"

// Industries selectable for machine suggestions, in display order.
var Industries = []string{
	"General Manufacturing",
	"Automotive",
	"Aerospace",
	"Electronics",
	"Food & Beverage",
	"Pharmaceutical",
}

// DefaultIndustry is used when an industry is unknown.
const DefaultIndustry = "General Manufacturing"

// Line layout choices.
const (
	LayoutWhiteboard = "I'll sketch it on a whiteboard"
	LayoutUpload     = "I have existing sketches to upload"
	LayoutSkip       = "Skip for now"
)

// LayoutChoices lists the layout options in display order.
var LayoutChoices = []string{LayoutWhiteboard, LayoutUpload, LayoutSkip}

// ValidIndustry reports whether name is one of Industries.
func ValidIndustry(name string) bool {
	for _, i := range Industries {
		if i == name {
			return true
		}
	}
	return false
}

// ValidLayout reports whether choice is one of LayoutChoices.
func ValidLayout(choice string) bool {
	for _, c := range LayoutChoices {
		if c == choice {
			return true
		}
	}
	return false
}

// CountMode selects how the summary counts machines.
type CountMode string

// Count modes.
const (
	// CountUnits sums quantities.
	CountUnits CountMode = "units"
	// CountRecords counts inventory entries.
	CountRecords CountMode = "records"
)

// ParseCountMode parses a count mode name.
func ParseCountMode(s string) (CountMode, error) {
	switch CountMode(s) {
	case CountUnits, CountRecords:
		return CountMode(s), nil
	default:
		return "", fmt.Errorf("invalid count mode %q (want %q or %q)", s, CountUnits, CountRecords)
	}
}
