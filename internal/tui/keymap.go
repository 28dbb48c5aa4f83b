package tui

import (
	"strings"
	"unicode"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds the rebindable keys. Fixed navigation keys are not listed.
type KeyConfig struct {
	ToggleEdit string
	AddWidget  string
	Grab       string
	Activity   string
	Export     string
	Help       string
}

// DefaultKeyConfig returns the stock bindings.
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		ToggleEdit: "e",
		AddWidget:  "a",
		Grab:       "space",
		Activity:   "g",
		Export:     "y",
		Help:       "?",
	}
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	reload       key.Binding
	toggleHelp   key.Binding
	moveLeft     key.Binding
	moveRight    key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	toggleEdit   key.Binding
	addWidget    key.Binding
	removeWidget key.Binding
	grab         key.Binding
	drop         key.Binding
	cancel       key.Binding
	columnWidth  key.Binding
	widgetHeight key.Binding
	position     key.Binding
	settings     key.Binding
	preferences  key.Binding
	activity     key.Binding
	export       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap(cfg KeyConfig) keyMap {
	def := DefaultKeyConfig()
	configured := func(raw, fallback, desc string) key.Binding {
		keys, label := parseBindingKeys(raw, fallback)
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
	}
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:   configured(cfg.Help, def.Help, "toggle help"),
		moveLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "widget up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "widget down")),
		toggleEdit:   configured(cfg.ToggleEdit, def.ToggleEdit, "edit mode"),
		addWidget:    configured(cfg.AddWidget, def.AddWidget, "add widget"),
		removeWidget: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove widget")),
		grab:         configured(cfg.Grab, def.Grab, "grab widget"),
		drop:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		columnWidth:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "column width")),
		widgetHeight: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "widget height")),
		position:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle position")),
		settings:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "widget setting")),
		preferences:  key.NewBinding(key.WithKeys(","), key.WithHelp(",", "board preferences")),
		activity:     configured(cfg.Activity, def.Activity, "activity"),
		export:       configured(cfg.Export, def.Export, "copy config"),
	}
}

// parseBindingKeys turns one configured key into matcher keys and help text.
// Space accepts both spellings, and an uppercase rune also matches its shift
// form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	if raw != " " {
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		raw = fallback
	}
	if raw == " " || strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	runes := []rune(raw)
	if len(runes) == 1 {
		if unicode.IsUpper(runes[0]) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.toggleEdit, k.addWidget, k.grab, k.columnWidth, k.preferences, k.export, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggleEdit, k.addWidget, k.removeWidget, k.settings, k.preferences, k.activity, k.export, k.toggleHelp, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.grab, k.drop, k.cancel, k.columnWidth, k.widgetHeight, k.position},
	}
}
