// Package config defines the flat Options struct of spec §6.6, built via a
// small functional-options constructor in the idiom the wider example pool
// uses for library configuration (an external CLI driver — explicitly out
// of scope per spec §1 — would populate these fields from flags).
package config

import "github.com/progslice/pdg/offset"

// Options configures a pointer or reaching-definitions analysis run.
type Options struct {
	// FieldSensitivity is the upper bound on tracked concrete offsets;
	// above this, offsets saturate to Unknown.
	FieldSensitivity offset.Offset

	// PreprocessGeps enables the SCC-GEP coarsening of spec §4.2. Forbidden
	// for flow-sensitive engines — NewAnalysis panics if set together with
	// a flow-sensitive engine variant.
	PreprocessGeps bool

	// InvalidateNodes enables FS-with-invalidation semantics.
	InvalidateNodes bool

	// StrongUpdateUnknown permits strong kill for Unknown-offset writes
	// when the allocation's full size is known.
	StrongUpdateUnknown bool

	// MaxSetSize is the saturation threshold (spec §4.5 step 3). Zero means
	// unbounded.
	MaxSetSize int

	// EntryFunction names the entry subgraph.
	EntryFunction string

	// UndefinedArePure: in DefUse lifting, treat unknown external calls as
	// having no memory effects on pointer arguments.
	UndefinedArePure bool
}

// Option mutates an Options being built.
type Option func(*Options)

// New builds an Options from defaults plus the given overrides.
// Defaults: FieldSensitivity unbounded (offset.Unknown, i.e. never
// saturates), MaxSetSize 0 (unbounded).
func New(opts ...Option) Options {
	o := Options{
		FieldSensitivity: offset.Unknown,
		MaxSetSize:       0,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFieldSensitivity sets the field-sensitivity cutoff.
func WithFieldSensitivity(bound offset.Offset) Option {
	return func(o *Options) { o.FieldSensitivity = bound }
}

// WithPreprocessGeps enables SCC-GEP coarsening (flow-insensitive engine
// only).
func WithPreprocessGeps(enabled bool) Option {
	return func(o *Options) { o.PreprocessGeps = enabled }
}

// WithInvalidateNodes enables FS-with-invalidation semantics.
func WithInvalidateNodes(enabled bool) Option {
	return func(o *Options) { o.InvalidateNodes = enabled }
}

// WithStrongUpdateUnknown permits strong kill on Unknown-offset writes when
// the target allocation's size is fully known.
func WithStrongUpdateUnknown(enabled bool) Option {
	return func(o *Options) { o.StrongUpdateUnknown = enabled }
}

// WithMaxSetSize sets the saturation threshold.
func WithMaxSetSize(n int) Option {
	return func(o *Options) { o.MaxSetSize = n }
}

// WithEntryFunction names the entry subgraph.
func WithEntryFunction(name string) Option {
	return func(o *Options) { o.EntryFunction = name }
}

// WithUndefinedArePure treats unknown external calls as memory-effect-free
// on pointer arguments during DefUse lifting.
func WithUndefinedArePure(enabled bool) Option {
	return func(o *Options) { o.UndefinedArePure = enabled }
}
