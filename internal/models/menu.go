package models

import (
	"fmt"
	"math"
	"sort"
)

// MenuItem is a dish on the menu, addressed by its index on the dish
// output universe.
type MenuItem struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

// Menu is a fixed list of dishes with contiguous indices starting at 0.
type Menu struct {
	items []MenuItem
}

// NewMenu validates a mapping of index to dish name.
func NewMenu(dishes map[int]string) (*Menu, error) {
	if len(dishes) == 0 {
		return nil, fmt.Errorf("menu must have at least one dish")
	}

	items := make([]MenuItem, 0, len(dishes))
	names := make(map[string]int, len(dishes))
	for idx, name := range dishes {
		if name == "" {
			return nil, fmt.Errorf("menu item %d has no name", idx)
		}
		if prev, dup := names[name]; dup {
			return nil, fmt.Errorf("menu items %d and %d share the name %q", prev, idx, name)
		}
		names[name] = idx
		items = append(items, MenuItem{Index: idx, Name: name})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })

	for i, item := range items {
		if item.Index != i {
			return nil, fmt.Errorf("menu indices must be contiguous from 0: missing index %d", i)
		}
	}
	return &Menu{items: items}, nil
}

// Len returns the number of dishes.
func (m *Menu) Len() int {
	return len(m.items)
}

// Items returns the dishes ordered by index.
func (m *Menu) Items() []MenuItem {
	return append([]MenuItem(nil), m.items...)
}

// Item returns the dish at index i.
func (m *Menu) Item(i int) (MenuItem, bool) {
	if i < 0 || i >= len(m.items) {
		return MenuItem{}, false
	}
	return m.items[i], true
}

// Decode snaps a continuous dish index to the nearest menu item. Ties go
// to the smallest index, and NaN decodes to index 0.
func (m *Menu) Decode(x float64) MenuItem {
	best := m.items[0]
	bestDist := math.Abs(float64(best.Index) - x)
	for _, item := range m.items[1:] {
		if d := math.Abs(float64(item.Index) - x); d < bestDist {
			best, bestDist = item, d
		}
	}
	return best
}

// Dishes returns the menu as an index to name mapping.
func (m *Menu) Dishes() map[int]string {
	out := make(map[int]string, len(m.items))
	for _, item := range m.items {
		out[item.Index] = item.Name
	}
	return out
}
