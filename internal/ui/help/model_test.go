package help

import (
	"strings"
	"testing"

	"github.com/nhle/epaper/internal/keys"
)

func TestView_ListsSectionsAndPalette(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 160, 40)
	m.SetSize(160, 40)

	out := m.View()
	for _, want := range []string{"Folders & pages", "Preview", "Palette (:)", "folder <name|id>", "esc cancels"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in help view", want)
		}
	}
}
