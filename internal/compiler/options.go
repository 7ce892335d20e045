package compiler

import (
	"log/slog"

	"github.com/aretw0/storyboard/internal/logging"
)

// Option configures the Compiler.
type Option func(*Compiler)

// WithLocales sets the two locale fields consulted for localized text, in
// priority order. Extra entries are ignored.
func WithLocales(primary, secondary string) Option {
	return func(c *Compiler) {
		c.text.locales = []string{primary, secondary}
	}
}

// WithDefaultMeterStarts sets the starting values of the default meter set
// installed when a document carries no usable meter configuration.
func WithDefaultMeterStarts(trust, rapport, tension float64) Option {
	return func(c *Compiler) {
		c.defaultStarts = [3]float64{trust, rapport, tension}
	}
}

// WithLogger routes compile diagnostics to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compiler turns untrusted scenario documents into canonical graphs.
// A Compiler is stateless between calls and safe for concurrent use.
type Compiler struct {
	text          textCoercer
	defaultStarts [3]float64
	logger        *slog.Logger
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		text:          textCoercer{locales: DefaultLocales},
		defaultStarts: [3]float64{50, 50, 0},
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
