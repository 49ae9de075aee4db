package suggest

import "github.com/erazemk/onboard/internal/model"

// fallbackTable maps each industry to its built-in machine suggestions.
var fallbackTable = map[string][]model.Template{
	"Automotive": {
		{Type: "CNC Lathe", Info: "Precision turning for automotive parts", Quantity: 2},
		{Type: "Milling Machine", Info: "Complex machining operations", Quantity: 1},
		{Type: "Welding Station", Info: "Metal joining and fabrication", Quantity: 2},
		{Type: "Press Brake", Info: "Sheet metal bending", Quantity: 1},
		{Type: "Laser Cutter", Info: "Precision cutting of metal sheets", Quantity: 1},
		{Type: "Quality Control Station", Info: "Measurement and inspection", Quantity: 1},
	},
	"Aerospace": {
		{Type: "5-Axis CNC Mill", Info: "Complex aerospace component machining", Quantity: 1},
		{Type: "EDM Machine", Info: "Precision electrical discharge machining", Quantity: 1},
		{Type: "Coordinate Measuring Machine", Info: "High-precision measurement", Quantity: 1},
		{Type: "Composite Layup Station", Info: "Composite material processing", Quantity: 1},
		{Type: "Heat Treatment Oven", Info: "Material hardening and tempering", Quantity: 1},
		{Type: "Ultrasonic Testing Station", Info: "Non-destructive testing", Quantity: 1},
	},
	"Electronics": {
		{Type: "PCB Assembly Line", Info: "Circuit board assembly", Quantity: 1},
		{Type: "SMT Machine", Info: "Surface mount technology placement", Quantity: 1},
		{Type: "Reflow Oven", Info: "PCB component soldering", Quantity: 1},
		{Type: "Testing Station", Info: "Electronic component testing", Quantity: 2},
		{Type: "3D Printer", Info: "Prototype and enclosure printing", Quantity: 1},
		{Type: "Laser Marking System", Info: "Component identification", Quantity: 1},
	},
	"Food & Beverage": {
		{Type: "Filling Machine", Info: "Product packaging and filling", Quantity: 1},
		{Type: "Conveyor System", Info: "Product movement and sorting", Quantity: 2},
		{Type: "Pasteurization Unit", Info: "Food safety processing", Quantity: 1},
		{Type: "Packaging Machine", Info: "Product sealing and labeling", Quantity: 1},
		{Type: "Quality Control Lab", Info: "Food safety testing", Quantity: 1},
		{Type: "Cleaning Station", Info: "Equipment sanitization", Quantity: 1},
	},
	"Pharmaceutical": {
		{Type: "Tablet Press", Info: "Pharmaceutical tablet manufacturing", Quantity: 1},
		{Type: "Capsule Filling Machine", Info: "Capsule production", Quantity: 1},
		{Type: "Coating Machine", Info: "Tablet coating and finishing", Quantity: 1},
		{Type: "Blending Station", Info: "Powder mixing and blending", Quantity: 1},
		{Type: "Quality Control Lab", Info: "Product testing and validation", Quantity: 1},
		{Type: "Clean Room Equipment", Info: "Sterile manufacturing environment", Quantity: 1},
	},
	"General Manufacturing": {
		{Type: "CNC Lathe", Info: "General purpose turning operations", Quantity: 2},
		{Type: "Milling Machine", Info: "Versatile machining operations", Quantity: 1},
		{Type: "Drill Press", Info: "Hole drilling and tapping", Quantity: 1},
		{Type: "Band Saw", Info: "Material cutting and shaping", Quantity: 1},
		{Type: "Welding Station", Info: "Metal joining and fabrication", Quantity: 1},
		{Type: "Quality Control Station", Info: "Measurement and inspection", Quantity: 1},
	},
}

var commonMachines = []model.Template{
	{Type: "Lathe", Quantity: 2},
	{Type: "Milling Machine", Quantity: 1},
	{Type: "Drill Press", Quantity: 1},
	{Type: "CNC Router", Quantity: 1},
	{Type: "Band Saw", Quantity: 1},
	{Type: "Welding Station", Quantity: 1},
}

// Fallback returns the built-in suggestions for industry. Unknown industries
// get the General Manufacturing list. The returned slice is a copy.
func Fallback(industry string) []model.Template {
	list, ok := fallbackTable[industry]
	if !ok {
		list = fallbackTable[model.DefaultIndustry]
	}
	return append([]model.Template(nil), list...)
}

// CommonMachines returns the machines found in most shops, used by the magic fill.
func CommonMachines() []model.Template {
	return append([]model.Template(nil), commonMachines...)
}
