package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	toggleSelect   key.Binding
	openDetail     key.Binding
	play           key.Binding
	newRecord      key.Binding
	copyAction     key.Binding
	deleteSelected key.Binding
	activityLog    key.Binding
	toggleView     key.Binding
	toggleSidebar  key.Binding
	toggleAutoSave key.Binding
	search         key.Binding
	filter         key.Binding
	prevPage       key.Binding
	nextPage       key.Binding

	nextField key.Binding
	prevField key.Binding
	submit    key.Binding
	iconLeft  key.Binding
	iconRight key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		toggleSelect:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select row")),
		openDetail:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open details")),
		play:           key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		newRecord:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new record")),
		copyAction:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy action")),
		deleteSelected: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete selected")),
		activityLog:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "activity log")),
		toggleView:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "table/grid")),
		toggleSidebar:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "sidebar")),
		toggleAutoSave: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-save")),
		search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filter:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		prevPage:       key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous page")),
		nextPage:       key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),

		nextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		submit:    key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "save")),
		iconLeft:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous icon")),
		iconRight: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next icon")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newRecord, k.toggleSelect, k.openDetail, k.deleteSelected, k.activityLog, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.toggleSelect, k.openDetail, k.play, k.copyAction},
		{k.newRecord, k.nextField, k.prevField, k.iconLeft, k.iconRight, k.submit},
		{k.deleteSelected, k.activityLog, k.toggleView, k.toggleSidebar, k.toggleAutoSave, k.reload},
		{k.search, k.filter, k.prevPage, k.nextPage, k.toggleHelp, k.quit},
	}
}

// applyConfig rebinds the configurable actions.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.newRecord, cfg.NewRecord, "n", "new record")
	configureBinding(&k.toggleSelect, cfg.ToggleSelect, "space", "select row")
	configureBinding(&k.openDetail, cfg.OpenDetail, "enter", "open details")
	configureBinding(&k.copyAction, cfg.CopyAction, "y", "copy action")
	configureBinding(&k.deleteSelected, cfg.DeleteSelected, "d", "delete selected")
	configureBinding(&k.activityLog, cfg.ActivityLog, "g", "activity log")
}

// configureBinding replaces the keys and help of b from raw config text.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys maps one configured key to matcher strings and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if value == "" && raw != " " {
		value = strings.TrimSpace(fallback)
	}
	if raw == " " || strings.EqualFold(value, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}
