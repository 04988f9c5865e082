package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
)

// TestParseBindingKeys verifies key parsing behavior for configured overrides.
func TestParseBindingKeys(t *testing.T) {
	t.Run("space aliases", func(t *testing.T) {
		keys, help := parseBindingKeys("space", "x")
		if len(keys) != 2 || keys[0] != " " || keys[1] != "space" {
			t.Fatalf("unexpected parsed space keys %#v", keys)
		}
		if help != "space" {
			t.Fatalf("unexpected space help text %q", help)
		}
		keys, _ = parseBindingKeys(" ", "x")
		if len(keys) != 2 || keys[0] != " " {
			t.Fatalf("expected literal space to parse as space, got %#v", keys)
		}
	})

	t.Run("uppercase rune includes shift alias", func(t *testing.T) {
		keys, help := parseBindingKeys("N", "n")
		if len(keys) != 2 || keys[0] != "N" || keys[1] != "shift+n" {
			t.Fatalf("unexpected uppercase parsed keys %#v", keys)
		}
		if help != "N" {
			t.Fatalf("unexpected uppercase help text %q", help)
		}
	})

	t.Run("multi rune lowercases key matcher", func(t *testing.T) {
		keys, help := parseBindingKeys("Ctrl+D", "d")
		if len(keys) != 1 || keys[0] != "ctrl+d" {
			t.Fatalf("unexpected multi-rune parsed keys %#v", keys)
		}
		if help != "Ctrl+D" {
			t.Fatalf("unexpected multi-rune help text %q", help)
		}
	})

	t.Run("blank uses fallback", func(t *testing.T) {
		keys, help := parseBindingKeys("", "y")
		if len(keys) != 1 || keys[0] != "y" {
			t.Fatalf("unexpected fallback parsed keys %#v", keys)
		}
		if help != "y" {
			t.Fatalf("unexpected fallback help text %q", help)
		}
	})
}

// TestConfigureBinding verifies binding override application behavior.
func TestConfigureBinding(t *testing.T) {
	b := key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "old"))
	configureBinding(&b, "L", "g", "activity log")
	keys := b.Keys()
	if len(keys) != 2 || keys[0] != "L" || keys[1] != "shift+l" {
		t.Fatalf("unexpected configured keys %#v", keys)
	}
	if b.Help().Key != "L" || b.Help().Desc != "activity log" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}
}

// TestKeyMapApplyConfig verifies dynamic key map override behavior.
func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{
		NewRecord:      "c",
		ToggleSelect:   "x",
		OpenDetail:     "o",
		CopyAction:     "ctrl+y",
		DeleteSelected: "D",
	})

	assertKeys := func(name string, binding key.Binding, expected ...string) {
		t.Helper()
		got := binding.Keys()
		if len(got) != len(expected) {
			t.Fatalf("%s key count mismatch got=%#v expected=%#v", name, got, expected)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("%s key mismatch got=%#v expected=%#v", name, got, expected)
			}
		}
	}

	assertKeys("new record", k.newRecord, "c")
	assertKeys("toggle select", k.toggleSelect, "x")
	assertKeys("open detail", k.openDetail, "o")
	assertKeys("copy action", k.copyAction, "ctrl+y")
	assertKeys("delete selected", k.deleteSelected, "D", "shift+d")
	assertKeys("activity log", k.activityLog, "g")
	assertKeys("play", k.play, "p")
}
