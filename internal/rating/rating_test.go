package rating

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{-1, "☆☆☆☆☆"},
		{0, "☆☆☆☆☆"},
		{1, "★☆☆☆☆"},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
		{9, "★★★★★"},
	}
	for _, tt := range tests {
		if got := Plain(tt.rating); got != tt.want {
			t.Errorf("Plain(%d) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestRenderMatchesPlainText(t *testing.T) {
	for r := 0; r <= Max; r++ {
		if got := ansi.Strip(Render(r)); got != Plain(r) {
			t.Errorf("Render(%d) stripped = %q, want %q", r, got, Plain(r))
		}
	}
}
