package core

// Line describes one Underground line: identity, render colour and the
// heuristic tunnel depth used when no curated anchor is available.
type Line struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Colour       string  `json:"colour"`
	DefaultDepth float64 `json:"defaultDepth"`
}

// Lines is the curated table of London Underground lines. Depths are
// rough per-line running depths in metres; deep-tube lines sit well
// below the cut-and-cover subsurface lines.
var Lines = []Line{
	{ID: "bakerloo", Name: "Bakerloo", Colour: "#B36305", DefaultDepth: 22},
	{ID: "central", Name: "Central", Colour: "#E32017", DefaultDepth: 25},
	{ID: "circle", Name: "Circle", Colour: "#FFD300", DefaultDepth: 8},
	{ID: "district", Name: "District", Colour: "#00782A", DefaultDepth: 8},
	{ID: "hammersmith-city", Name: "Hammersmith & City", Colour: "#F3A9BB", DefaultDepth: 8},
	{ID: "jubilee", Name: "Jubilee", Colour: "#A0A5A9", DefaultDepth: 25},
	{ID: "metropolitan", Name: "Metropolitan", Colour: "#9B0056", DefaultDepth: 10},
	{ID: "northern", Name: "Northern", Colour: "#000000", DefaultDepth: 30},
	{ID: "piccadilly", Name: "Piccadilly", Colour: "#003688", DefaultDepth: 25},
	{ID: "victoria", Name: "Victoria", Colour: "#0098D4", DefaultDepth: 20},
	{ID: "waterloo-city", Name: "Waterloo & City", Colour: "#95CDBA", DefaultDepth: 20},
}

// LineByID returns the curated line entry, or false if unknown.
func LineByID(id string) (Line, bool) {
	for _, l := range Lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// LineIDs returns the curated line ids in table order. The network
// builder relies on this being a stable ordering.
func LineIDs() []string {
	ids := make([]string, len(Lines))
	for i, l := range Lines {
		ids[i] = l.ID
	}
	return ids
}
