package model

import "strings"

// Machine is one physical machine entry in a session's inventory.
type Machine struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Model    string `json:"model"`
	Info     string `json:"info"`
	Quantity int    `json:"quantity"`
	PhotoID  string `json:"photo_id,omitempty"`
}

// Template is a machine without identity or photo, as produced by
// suggestions and the common-machines fill.
type Template struct {
	Type     string `json:"type"`
	Model    string `json:"model"`
	Info     string `json:"info"`
	Quantity int    `json:"quantity"`
}

// HasPhoto reports whether a photo is attached to the machine.
func (m Machine) HasPhoto() bool {
	return m.PhotoID != ""
}

// Trimmed returns a copy with surrounding whitespace removed from the text
// fields and the quantity normalized.
func (t Template) Trimmed() Template {
	return Template{
		Type:     strings.TrimSpace(t.Type),
		Model:    strings.TrimSpace(t.Model),
		Info:     strings.TrimSpace(t.Info),
		Quantity: NormalizeQuantity(t.Quantity),
	}
}

// NormalizeQuantity enforces the minimum quantity of one.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// TotalQuantity sums the quantity of all machines.
func TotalQuantity(machines []Machine) int {
	total := 0
	for _, m := range machines {
		total += m.Quantity
	}
	return total
}
