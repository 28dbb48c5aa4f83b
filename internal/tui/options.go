package tui

type Option func(*Model)

// WithKeyConfig rebinds the configurable keys.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys = newKeyMap(cfg)
	}
}

// WithChangeFeed makes the model reload the board whenever ch receives, so
// writes from the HTTP or MCP surfaces show up without a keypress.
func WithChangeFeed(ch <-chan struct{}) Option {
	return func(m *Model) {
		m.changes = ch
	}
}

// WithClipboard replaces the clipboard writer used by export.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}

// WithActivityLimit caps how many ledger entries the activity panel loads.
func WithActivityLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.activityLimit = limit
		}
	}
}
