package carve

import "github.com/sirupsen/logrus"

// ValidationLevel controls how aggressively inconsistent evidence (spec.md
// invariant I3, WAL page-size mismatches, …) is treated.
type ValidationLevel int

const (
	// ValidationBasic logs violations and continues (the spec.md default:
	// "evidence may be inconsistent").
	ValidationBasic ValidationLevel = iota
	// ValidationStrict turns I3/I4 violations into fatal errors. Useful for
	// test fixtures where inconsistency indicates a bug in the generator
	// rather than tampered evidence.
	ValidationStrict
)

// Options configures a Session. OpenMain/OpenWAL start from
// defaultOptions (MaxConcurrency 1, basic validation, a logrus logger at
// Info level writing to stderr) and apply the given Options on top. The
// zero value has a nil Logger, which Session.warnf cannot use.
type Options struct {
	// MaxConcurrency records how many pages the main-file sweep may decode
	// at once. RunMain does not read it: the sweep always decodes one page
	// at a time.
	MaxConcurrency int
	Validation     ValidationLevel
	Logger         *logrus.Logger
}

// Option is a functional option, following the teacher's DatabaseOption
// pattern (config.go in the teacher repo).
type Option func(*Options)

// WithMaxConcurrency sets Options.MaxConcurrency (not read by RunMain).
func WithMaxConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxConcurrency = n
		}
	}
}

// WithValidation sets the validation strictness.
func WithValidation(level ValidationLevel) Option {
	return func(o *Options) { o.Validation = level }
}

// WithLogger overrides the default logger used for per-page/per-cell
// warnings (spec.md §7).
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func defaultOptions() *Options {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	return &Options{
		MaxConcurrency: 1,
		Validation:     ValidationBasic,
		Logger:         logger,
	}
}

func resolveOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
