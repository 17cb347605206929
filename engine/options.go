package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute() and NewSession()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	CurrencyGlyph string // prefix for formatted amounts
	EmptyMessage  string // reply when filtering leaves no rows
	SkipDetail    bool   // don't build the row-level detail table
	Logger        *zap.Logger
}

// WithCurrencyGlyph sets the glyph used when formatting amounts.
func WithCurrencyGlyph(glyph string) Option {
	return func(c *config) {
		c.CurrencyGlyph = glyph
	}
}

// WithEmptyMessage overrides the reply used when no rows match.
func WithEmptyMessage(msg string) Option {
	return func(c *config) {
		c.EmptyMessage = msg
	}
}

// WithoutDetail skips the detail table, which grows with the row count.
func WithoutDetail() Option {
	return func(c *config) {
		c.SkipDetail = true
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		CurrencyGlyph: DefaultCurrencyGlyph,
		EmptyMessage:  "No data matches the selected filters.",
		Logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
