package mapview

import (
	"slices"
	"testing"
)

type selectRecorder struct {
	calls []string
}

func (r *selectRecorder) record(id string) {
	r.calls = append(r.calls, id)
}

func TestSelectionPlainClicks(t *testing.T) {
	rec := &selectRecorder{}
	s := NewSelection(rec.record)

	s.Click("r1", false)
	if id, ok := s.SingleID(); !ok || id != "r1" || s.Mode() != SingleSelected {
		t.Fatalf("after click r1: mode = %v id = %q", s.Mode(), id)
	}

	s.Click("r2", false)
	if id, _ := s.SingleID(); id != "r2" {
		t.Errorf("after click r2: single = %q, want r2", id)
	}
	if s.IsSelected("r1") {
		t.Error("r1 should be deselected after clicking r2")
	}

	s.Click("r2", false)
	if s.Mode() != Unselected || s.Len() != 0 {
		t.Errorf("clicking the sole selection again: mode = %v len = %d", s.Mode(), s.Len())
	}

	want := []string{"r1", "r2", ""}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("callback calls = %q, want %q", rec.calls, want)
	}
}

func TestSelectionModifierToggle(t *testing.T) {
	rec := &selectRecorder{}
	s := NewSelection(rec.record)

	s.Click("r1", true)
	s.Click("r2", true)
	s.Click("r1", true)

	if s.Mode() != MultiSelected {
		t.Errorf("mode = %v, want multi", s.Mode())
	}
	if got := s.Selected(); !slices.Equal(got, []string{"r2"}) {
		t.Errorf("selected = %v, want [r2]", got)
	}

	s.Click("r2", true)
	if s.Mode() != Unselected {
		t.Errorf("mode after removing last = %v, want unselected", s.Mode())
	}
	if len(rec.calls) != 0 {
		t.Errorf("modifier clicks fired callback %q", rec.calls)
	}
}

func TestSelectionPlainClickFromMulti(t *testing.T) {
	s := NewSelection(nil)
	s.Click("r1", true)
	s.Click("r2", true)

	s.Click("r1", false)
	if id, ok := s.SingleID(); !ok || id != "r1" {
		t.Errorf("plain click in multi: single = %q ok = %v, want r1", id, ok)
	}

	// A single member reached by toggling is still multi; a plain click on
	// it clears.
	s.Escape()
	s.Click("r3", true)
	s.Click("r3", false)
	if s.Mode() != Unselected {
		t.Errorf("mode = %v, want unselected", s.Mode())
	}
}

func TestSelectionEscape(t *testing.T) {
	setups := map[string]func(*Selection){
		"unselected": func(*Selection) {},
		"single":     func(s *Selection) { s.Click("r1", false) },
		"multi":      func(s *Selection) { s.Click("r1", true); s.Click("r2", true) },
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			s := NewSelection(nil)
			setup(&s)
			s.Focus("r9")
			s.Escape()
			if s.Mode() != Unselected || s.Len() != 0 {
				t.Errorf("mode = %v len = %d, want unselected", s.Mode(), s.Len())
			}
			if s.Focused() != "" {
				t.Errorf("focused = %q, want none", s.Focused())
			}
		})
	}
}

func TestSelectionCopiesDoNotShareState(t *testing.T) {
	s := NewSelection(nil)
	s.Click("r1", true)
	s.Click("r2", true)

	snapshot := s
	s.Click("r1", true)

	if !snapshot.IsSelected("r1") || snapshot.Len() != 2 {
		t.Errorf("copy changed: %v", snapshot.Selected())
	}
}

func TestSelectionSelectAll(t *testing.T) {
	rec := &selectRecorder{}
	s := NewSelection(rec.record)

	s.SelectAll([]string{"r1", "", "r2", "r1"})
	if got := s.Selected(); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Errorf("selected = %v, want [r1 r2]", got)
	}
	if s.Mode() != MultiSelected {
		t.Errorf("mode = %v, want multi", s.Mode())
	}

	s.SelectAll(nil)
	if s.Mode() != Unselected {
		t.Errorf("mode = %v, want unselected", s.Mode())
	}
	if len(rec.calls) != 0 {
		t.Errorf("SelectAll fired callback %q", rec.calls)
	}
}

func TestSelectionSelectAllReplacesSingle(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"multi", []string{"r2", "r3"}, []string{"r1", ""}},
		{"same id", []string{"r1"}, []string{"r1", ""}},
		{"empty", nil, []string{"r1", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &selectRecorder{}
			s := NewSelection(rec.record)
			s.Click("r1", false)
			s.SelectAll(tt.ids)
			if !slices.Equal(rec.calls, tt.want) {
				t.Errorf("callback calls = %q, want %q", rec.calls, tt.want)
			}
			if _, ok := s.SingleID(); ok {
				t.Error("single selection survived SelectAll")
			}
		})
	}
}

func TestSelectionBlur(t *testing.T) {
	s := NewSelection(nil)
	s.Click("r1", false)
	s.Focus("cp-1")
	s.Blur()
	if s.Focused() != "" {
		t.Errorf("focused = %q after blur, want empty", s.Focused())
	}
	if id, ok := s.SingleID(); !ok || id != "r1" {
		t.Errorf("blur changed selection to %q, %v", id, ok)
	}
}

func TestSelectionRetain(t *testing.T) {
	rec := &selectRecorder{}
	s := NewSelection(rec.record)
	s.Click("r1", false)
	s.SetHover("r1")
	s.Focus("cp-1")

	live := map[string]bool{"cp-1": true}
	s.Retain(func(id string) bool { return live[id] })

	if s.Mode() != Unselected {
		t.Errorf("mode = %v, want unselected", s.Mode())
	}
	if s.Hovered() != "" {
		t.Errorf("hovered = %q, want cleared", s.Hovered())
	}
	if s.Focused() != "cp-1" {
		t.Errorf("focused = %q, want cp-1", s.Focused())
	}
	if want := []string{"r1", ""}; !slices.Equal(rec.calls, want) {
		t.Errorf("callback calls = %q, want %q", rec.calls, want)
	}
}

func TestSelectionHoverIndependent(t *testing.T) {
	s := NewSelection(nil)
	s.Click("r1", false)
	s.SetHover("r2")
	if s.Hovered() != "r2" || !s.IsSelected("r1") {
		t.Errorf("hover changed selection: hovered = %q selected = %v", s.Hovered(), s.Selected())
	}
	s.SetHover("")
	if s.Hovered() != "" {
		t.Errorf("hovered = %q after leave", s.Hovered())
	}
}
