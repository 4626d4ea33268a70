package mapview

import "slices"

// SelectionMode is the state of the selection machine.
type SelectionMode int

const (
	Unselected SelectionMode = iota
	SingleSelected
	MultiSelected
)

func (m SelectionMode) String() string {
	switch m {
	case Unselected:
		return "unselected"
	case SingleSelected:
		return "single"
	case MultiSelected:
		return "multi"
	default:
		return "unknown"
	}
}

// Selection tracks selected ids plus independent hover and focus.
//
// A plain click replaces the selection, or clears it when the clicked id was
// already the only member. A modifier click toggles membership and always
// leaves the machine in MultiSelected (or Unselected once empty). Only plain
// clicks and Escape report through the route-select callback, and only when
// the single-selected id actually changes; the empty string means none.
type Selection struct {
	mode     SelectionMode
	ids      []string
	hovered  string
	focused  string
	onSelect func(routeID string)
}

// NewSelection returns an empty selection. onRouteSelect may be nil.
func NewSelection(onRouteSelect func(routeID string)) Selection {
	return Selection{onSelect: onRouteSelect}
}

// Mode returns the current machine state.
func (s Selection) Mode() SelectionMode {
	return s.mode
}

// Selected returns selected ids in the order they were added.
func (s Selection) Selected() []string {
	return slices.Clone(s.ids)
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s.ids)
}

// IsSelected reports whether id is selected.
func (s Selection) IsSelected(id string) bool {
	return id != "" && slices.Contains(s.ids, id)
}

// SingleID returns the id when exactly one item was selected by a plain click.
func (s Selection) SingleID() (string, bool) {
	if s.mode != SingleSelected || len(s.ids) != 1 {
		return "", false
	}
	return s.ids[0], true
}

// Click applies a pointer click on id. modifier is true for shift-click.
func (s *Selection) Click(id string, modifier bool) {
	if id == "" {
		return
	}
	if modifier {
		s.toggle(id)
		return
	}

	prev, _ := s.SingleID()
	if len(s.ids) == 1 && s.ids[0] == id {
		s.clear()
	} else {
		s.mode = SingleSelected
		s.ids = []string{id}
	}
	s.notify(prev)
}

func (s *Selection) toggle(id string) {
	// Models are copied by value; never write through a shared backing array.
	s.ids = slices.Clone(s.ids)
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	} else {
		s.ids = append(s.ids, id)
	}
	if len(s.ids) == 0 {
		s.clear()
		return
	}
	s.mode = MultiSelected
}

// SelectAll replaces the selection with ids as a multi-selection. Empty
// input clears the selection. The callback only hears about it when a
// single selection is replaced, and then receives "".
func (s *Selection) SelectAll(ids []string) {
	prev, _ := s.SingleID()
	defer s.notify(prev)

	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.ids = next
	if len(s.ids) == 0 {
		s.clear()
		return
	}
	s.mode = MultiSelected
}

// Escape clears the selection and focus from any state.
func (s *Selection) Escape() {
	prev, _ := s.SingleID()
	s.clear()
	s.focused = ""
	s.notify(prev)
}

func (s *Selection) clear() {
	s.mode = Unselected
	s.ids = nil
}

func (s *Selection) notify(prev string) {
	cur, _ := s.SingleID()
	if cur != prev && s.onSelect != nil {
		s.onSelect(cur)
	}
}

// Hovered returns the hovered id, or "".
func (s Selection) Hovered() string {
	return s.hovered
}

// SetHover records pointer-enter on id; "" means pointer-leave.
func (s *Selection) SetHover(id string) {
	s.hovered = id
}

// Focused returns the keyboard-focused id, or "".
func (s Selection) Focused() string {
	return s.focused
}

// Focus records keyboard focus on id.
func (s *Selection) Focus(id string) {
	s.focused = id
}

// Blur clears keyboard focus.
func (s *Selection) Blur() {
	s.focused = ""
}

// Retain drops ids for which exists returns false, keeping hover and focus
// pointing at live entities. Used after the entity set changes.
func (s *Selection) Retain(exists func(id string) bool) {
	prev, _ := s.SingleID()
	s.ids = slices.DeleteFunc(slices.Clone(s.ids), func(id string) bool { return !exists(id) })
	if len(s.ids) == 0 {
		s.clear()
	}
	if s.hovered != "" && !exists(s.hovered) {
		s.hovered = ""
	}
	if s.focused != "" && !exists(s.focused) {
		s.focused = ""
	}
	s.notify(prev)
}
