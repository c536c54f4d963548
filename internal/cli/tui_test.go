package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shelfworks/planogram/pkg/store"
)

func testVersions(n int) []store.VersionInfo {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := make([]store.VersionInfo, n)
	for i := range out {
		out[i] = store.VersionInfo{Version: i + 1, SavedAt: base.Add(time.Duration(i) * time.Hour), Size: 100 * (i + 1)}
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestVersionListNewestFirst(t *testing.T) {
	m := NewVersionListModel(testVersions(3))
	if got := m.Versions[0].Version; got != 3 {
		t.Errorf("Versions[0].Version = %d, want 3", got)
	}
	if got := m.Versions[2].Version; got != 1 {
		t.Errorf("Versions[2].Version = %d, want 1", got)
	}
}

func TestVersionListNavigation(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantCursor int
		wantPicked int
	}{
		{"enter picks newest", []string{"enter"}, 0, 3},
		{"down then enter", []string{"down", "enter"}, 1, 2},
		{"j moves down", []string{"j", "j", "enter"}, 2, 1},
		{"down clamps at end", []string{"down", "down", "down", "down", "enter"}, 2, 1},
		{"up clamps at start", []string{"up", "k", "enter"}, 0, 3},
		{"quit picks nothing", []string{"down", "q"}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = NewVersionListModel(testVersions(3))
			for _, k := range tt.keys {
				m, _ = m.Update(key(k))
			}
			got := m.(VersionListModel)
			if got.Cursor != tt.wantCursor {
				t.Errorf("Cursor = %d, want %d", got.Cursor, tt.wantCursor)
			}
			picked := 0
			if got.Selected != nil {
				picked = got.Selected.Version
			}
			if picked != tt.wantPicked {
				t.Errorf("Selected version = %d, want %d", picked, tt.wantPicked)
			}
		})
	}
}

func TestVersionListScrolls(t *testing.T) {
	var m tea.Model = NewVersionListModel(testVersions(10))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 9})
	if got := m.(VersionListModel).Height; got != 5 {
		t.Fatalf("Height = %d, want 5", got)
	}
	for range 6 {
		m, _ = m.Update(key("down"))
	}
	got := m.(VersionListModel)
	if got.Offset != 2 {
		t.Errorf("Offset = %d, want 2", got.Offset)
	}
	if view := got.View(); !strings.Contains(view, "[7/10]") {
		t.Errorf("View() missing position indicator, got %q", view)
	}
}

func TestVersionListEmpty(t *testing.T) {
	var m tea.Model = NewVersionListModel(nil)
	m, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Error("enter on empty list should quit")
	}
	if m.(VersionListModel).Selected != nil {
		t.Error("Selected should be nil for an empty list")
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8, 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("formatRelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{2560, "2.5 KiB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
