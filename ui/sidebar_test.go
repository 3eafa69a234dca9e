package ui

import (
	"testing"
	"time"

	"orchat/storage"
)

func testConversations(titles ...string) []*storage.Conversation {
	list := make([]*storage.Conversation, len(titles))
	for i, title := range titles {
		list[i] = &storage.Conversation{ID: title, Title: title}
	}
	return list
}

func TestSidebarSelection(t *testing.T) {
	s := NewSidebar()
	s.conversations = testConversations("a", "b", "c")

	if got := s.selected(); got == nil || got.ID != "a" {
		t.Fatalf("selected() = %v, want a", got)
	}

	s.moveSelection(1)
	if got := s.selected(); got.ID != "b" {
		t.Errorf("selected() = %q, want b", got.ID)
	}

	// Clamp at both ends
	s.moveSelection(10)
	if got := s.selected(); got.ID != "c" {
		t.Errorf("selected() = %q, want c", got.ID)
	}
	s.moveSelection(-10)
	if got := s.selected(); got.ID != "a" {
		t.Errorf("selected() = %q, want a", got.ID)
	}
}

func TestSidebarReorder(t *testing.T) {
	s := NewSidebar()
	s.conversations = testConversations("a", "b", "c")

	// Moving the top entry up is a no-op
	s.reorder(-1)
	if s.conversations[0].ID != "a" || s.selectedIdx != 0 {
		t.Errorf("reorder(-1) at top changed state: %v idx=%d", s.conversations[0].ID, s.selectedIdx)
	}

	// Swap down and follow the entry
	s.reorder(1)
	if s.conversations[0].ID != "b" || s.conversations[1].ID != "a" {
		t.Errorf("order after reorder = %s,%s, want b,a", s.conversations[0].ID, s.conversations[1].ID)
	}
	if s.selectedIdx != 1 {
		t.Errorf("selectedIdx = %d, want 1", s.selectedIdx)
	}
}

func TestSidebarRemoveByID(t *testing.T) {
	s := NewSidebar()
	s.conversations = testConversations("a", "b", "c")
	s.results = testConversations("b", "c")
	s.selectedIdx = 1

	s.removeByID("c")

	if len(s.conversations) != 2 {
		t.Errorf("conversations = %d, want 2", len(s.conversations))
	}
	if len(s.results) != 1 {
		t.Errorf("results = %d, want 1", len(s.results))
	}
	// Cursor clamps into the shrunken result list
	if got := s.selected(); got == nil || got.ID != "b" {
		t.Errorf("selected() after remove = %v, want b", got)
	}
}

func TestSidebarDisplayList(t *testing.T) {
	s := NewSidebar()
	s.conversations = testConversations("a", "b", "c")

	if len(s.displayList()) != 3 {
		t.Errorf("displayList() without search = %d entries, want 3", len(s.displayList()))
	}

	// A live search shows results, even empty ones
	s.results = []*storage.Conversation{}
	if len(s.displayList()) != 0 {
		t.Error("displayList() should show empty search results")
	}

	s.results = nil
	if len(s.displayList()) != 3 {
		t.Error("clearing results should restore the full list")
	}
}

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name                 string
		length, cursor, half int
		wantStart, wantEnd   int
	}{
		{"fits entirely", 5, 2, 10, 0, 5},
		{"cursor at top", 20, 0, 3, 0, 6},
		{"cursor centered", 20, 10, 3, 7, 13},
		{"cursor at bottom", 20, 19, 3, 14, 20},
		{"degenerate window", 4, 1, 0, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := scrollWindow(tt.length, tt.cursor, tt.half)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("scrollWindow(%d, %d, %d) = %d..%d, want %d..%d",
					tt.length, tt.cursor, tt.half, start, end, tt.wantStart, tt.wantEnd)
			}
			if tt.cursor < start || tt.cursor >= end {
				t.Errorf("cursor %d outside window %d..%d", tt.cursor, start, end)
			}
		})
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{2 * 7 * 24 * time.Hour, "2w ago"},
		{70 * 24 * time.Hour, "2mo ago"},
	}

	for _, tt := range tests {
		if got := formatTimeAgo(now.Add(-tt.age)); got != tt.want {
			t.Errorf("formatTimeAgo(-%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a very long conversation title", 10, "a very lo…"},
		{"exact fit!", 10, "exact fit!"},
	}

	for _, tt := range tests {
		if got := truncateTitle(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateTitle(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[32;1mgreen\x1b[0m plain"
	if got := stripANSI(in); got != "green plain" {
		t.Errorf("stripANSI() = %q", got)
	}
}
