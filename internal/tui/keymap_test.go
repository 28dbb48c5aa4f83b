package tui

import (
	"slices"
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// TestParseBindingKeys verifies key parsing behavior for configured overrides.
func TestParseBindingKeys(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		fallback  string
		wantKeys  []string
		wantLabel string
	}{
		{name: "space name", raw: "space", fallback: "x", wantKeys: []string{" ", "space"}, wantLabel: "space"},
		{name: "literal space", raw: " ", fallback: "x", wantKeys: []string{" ", "space"}, wantLabel: "space"},
		{name: "uppercase rune includes shift alias", raw: "Z", fallback: "z", wantKeys: []string{"Z", "shift+z"}, wantLabel: "Z"},
		{name: "multi rune lowercases key matcher", raw: "Ctrl+R", fallback: "r", wantKeys: []string{"ctrl+r"}, wantLabel: "Ctrl+R"},
		{name: "empty uses fallback", raw: "  ", fallback: "e", wantKeys: []string{"e"}, wantLabel: "e"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys, label := parseBindingKeys(tc.raw, tc.fallback)
			if !slices.Equal(keys, tc.wantKeys) {
				t.Fatalf("keys = %#v, want %#v", keys, tc.wantKeys)
			}
			if label != tc.wantLabel {
				t.Fatalf("label = %q, want %q", label, tc.wantLabel)
			}
		})
	}
}

// TestNewKeyMapAppliesConfig verifies configured keys replace the defaults.
func TestNewKeyMapAppliesConfig(t *testing.T) {
	keys := newKeyMap(KeyConfig{AddWidget: "n", Grab: "m"})

	if !key.Matches(tea.KeyPressMsg{Code: 'n', Text: "n"}, keys.addWidget) {
		t.Fatal("expected n to add a widget")
	}
	if key.Matches(tea.KeyPressMsg{Code: 'a', Text: "a"}, keys.addWidget) {
		t.Fatal("expected default add key to be replaced")
	}
	if !key.Matches(tea.KeyPressMsg{Code: 'm', Text: "m"}, keys.grab) {
		t.Fatal("expected m to grab")
	}
	if !key.Matches(tea.KeyPressMsg{Code: 'e', Text: "e"}, keys.toggleEdit) {
		t.Fatal("expected unset keys to keep defaults")
	}
	if got := keys.addWidget.Help().Key; got != "n" {
		t.Fatalf("help label = %q, want n", got)
	}
}

// TestDefaultGrabMatchesSpace verifies the default grab key matches a space press.
func TestDefaultGrabMatchesSpace(t *testing.T) {
	keys := newKeyMap(DefaultKeyConfig())
	if !key.Matches(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}, keys.grab) {
		t.Fatal("expected space to grab")
	}
}

// TestKeyMapHelpGroups verifies help output lists the bindings.
func TestKeyMapHelpGroups(t *testing.T) {
	keys := newKeyMap(DefaultKeyConfig())
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
	groups := keys.FullHelp()
	if len(groups) != 3 {
		t.Fatalf("expected 3 help groups, got %d", len(groups))
	}
	for _, group := range groups {
		if len(group) == 0 {
			t.Fatal("expected non-empty help group")
		}
	}
}
