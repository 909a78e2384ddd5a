package models

import "fmt"

// Color is an opaque RGB color
type Color struct {
	R, G, B uint8
}

// RGB packs the color as a signed 32-bit ARGB value with full alpha, the
// form colors take in saved files
func (c Color) RGB() int32 {
	return int32(uint32(0xFF)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B))
}

// ColorFromRGB unpacks a signed ARGB value, ignoring alpha
func ColorFromRGB(v int32) Color {
	u := uint32(v)
	return Color{R: uint8(u >> 16), G: uint8(u >> 8), B: uint8(u)}
}

// Hex returns the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	Black = Color{0, 0, 0}
	Blue  = Color{0, 0, 255}
)

// ColorEntry is a named palette color with its allocation flag. Top level
// entries carry five sub-shades for subtasks.
type ColorEntry struct {
	Color     Color
	Name      string
	InUse     bool
	SubColors []*ColorEntry
}

type shade struct {
	name    string
	r, g, b uint8
}

var paletteTable = []struct {
	top  shade
	subs [5]shade
}{
	{shade{"Black", 0, 0, 0}, [5]shade{
		{"Very Dark Grey", 32, 32, 32},
		{"Dark Grey", 88, 88, 88},
		{"Grey", 136, 136, 136},
		{"Light Grey", 184, 184, 184},
		{"Very Light Grey", 232, 232, 232},
	}},
	{shade{"Blue", 0, 0, 255}, [5]shade{
		{"Navy Blue", 0, 0, 128},
		{"Blue", 100, 149, 237},
		{"Cobolt Blue", 61, 89, 171},
		{"Light Blue", 30, 144, 255},
		{"very Light Blue", 135, 206, 250},
	}},
	{shade{"Green", 0, 255, 0}, [5]shade{
		{"Dark Green", 0, 100, 0},
		{"Olive Green", 162, 205, 90},
		{"Pale Green", 152, 251, 152},
		{"Light Green", 124, 252, 0},
		{"Green-Blue", 69, 139, 116},
	}},
	{shade{"Yellow", 255, 255, 0}, [5]shade{
		{"Pale Yellow", 238, 238, 0},
		{"Dark Yellow", 205, 205, 0},
		{"Gold Yellow", 139, 139, 0},
		{"Olive", 128, 128, 0},
		{"Light Yellow", 255, 246, 143},
	}},
	{shade{"Red", 255, 0, 0}, [5]shade{
		{"Maroon Red", 128, 0, 0},
		{"Dull Red", 238, 0, 0},
		{"Pale Red", 255, 48, 48},
		{"Light Red", 255, 99, 71},
		{"Very Light Red", 240, 128, 128},
	}},
	{shade{"Pink", 255, 175, 175}, [5]shade{
		{"Very Light Pink", 255, 182, 193},
		{"Dark Pink", 139, 95, 101},
		{"Bright Pink", 255, 62, 150},
		{"Deep Pink", 139, 10, 80},
		{"Light Pink", 255, 131, 250},
	}},
	{shade{"Orange", 255, 200, 0}, [5]shade{
		{"Very Dark Orange", 139, 69, 0},
		{"Dark Orange", 205, 102, 0},
		{"Pale Orange", 255, 165, 79},
		{"Sienne Orange", 255, 130, 71},
		{"Bright Orange", 255, 97, 3},
	}},
}

// Palette is the pool of task colors. In-use flags are paired by the
// caller: Claim after picking, Release when the task or subtask goes away
// or changes color.
type Palette struct {
	entries []*ColorEntry
}

// NewPalette builds the fixed 7x5 palette with every entry free
func NewPalette() *Palette {
	p := &Palette{}
	for _, row := range paletteTable {
		top := &ColorEntry{Color: Color{row.top.r, row.top.g, row.top.b}, Name: row.top.name}
		for _, s := range row.subs {
			top.SubColors = append(top.SubColors, &ColorEntry{Color: Color{s.r, s.g, s.b}, Name: s.name})
		}
		p.entries = append(p.entries, top)
	}
	return p
}

// Entries returns the top level entries
func (p *Palette) Entries() []*ColorEntry {
	return p.entries
}

func (p *Palette) list(parent *ColorEntry) []*ColorEntry {
	if parent == nil {
		return p.entries
	}
	return parent.SubColors
}

// Available lists the free entries at top level (parent nil) or under parent
func (p *Palette) Available(parent *ColorEntry) []*ColorEntry {
	var out []*ColorEntry
	for _, e := range p.list(parent) {
		if !e.InUse {
			out = append(out, e)
		}
	}
	return out
}

// Allocate returns the first free entry at top level (parent nil) or under
// parent, or nil when all are taken. The entry is not marked; call Claim.
func (p *Palette) Allocate(parent *ColorEntry) *ColorEntry {
	for _, e := range p.list(parent) {
		if !e.InUse {
			return e
		}
	}
	return nil
}

// Claim marks e as in use
func (p *Palette) Claim(e *ColorEntry) {
	if e != nil {
		e.InUse = true
	}
}

// Release clears the in-use flag of e
func (p *Palette) Release(e *ColorEntry) {
	if e != nil {
		e.InUse = false
	}
}

// Lookup finds the top level entry with color c
func (p *Palette) Lookup(c Color) *ColorEntry {
	for _, e := range p.entries {
		if e.Color == c {
			return e
		}
	}
	return nil
}

// LookupName finds a top level entry by name
func (p *Palette) LookupName(name string) *ColorEntry {
	for _, e := range p.entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// LookupSub finds the sub-shade of parent with color c
func (p *Palette) LookupSub(parent *ColorEntry, c Color) *ColorEntry {
	if parent == nil {
		return nil
	}
	for _, e := range parent.SubColors {
		if e.Color == c {
			return e
		}
	}
	return nil
}

// LookupSubName finds a sub-shade of parent by name
func (p *Palette) LookupSubName(parent *ColorEntry, name string) *ColorEntry {
	if parent == nil {
		return nil
	}
	for _, e := range parent.SubColors {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Known reports whether c appears anywhere in the palette
func (p *Palette) Known(c Color) bool {
	for _, e := range p.entries {
		if e.Color == c || p.LookupSub(e, c) != nil {
			return true
		}
	}
	return false
}

// Reset frees every entry
func (p *Palette) Reset() {
	for _, e := range p.entries {
		e.InUse = false
		for _, s := range e.SubColors {
			s.InUse = false
		}
	}
}
