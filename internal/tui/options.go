package tui

import (
	"github.com/atotto/clipboard"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/grid"
)

// GridConfig holds the grid display settings.
type GridConfig struct {
	Title         string
	DefaultIcon   domain.Icon
	ViewMode      grid.ViewMode
	SidebarOpen   bool
	AutoSave      bool
	ConfirmDelete bool
}

// KeyConfig holds configurable key overrides.
type KeyConfig struct {
	NewRecord      string
	ToggleSelect   string
	OpenDetail     string
	CopyAction     string
	DeleteSelected string
	ActivityLog    string
}

// ClipboardFunc writes text to the system clipboard.
type ClipboardFunc func(string) error

type Option func(*Model)

func DefaultGridConfig() GridConfig {
	return GridConfig{
		Title:         "Name of the File",
		DefaultIcon:   domain.DefaultIcon,
		ViewMode:      grid.ViewTable,
		SidebarOpen:   true,
		AutoSave:      true,
		ConfirmDelete: true,
	}
}

func WithGridConfig(cfg GridConfig) Option {
	return func(m *Model) {
		m.gridConfig = cfg
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write ClipboardFunc) Option {
	return func(m *Model) {
		if write != nil {
			m.clipboard = write
		}
	}
}

func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}
