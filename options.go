package multivec

import (
	"log/slog"

	"github.com/hupe1980/multivec/codec"
	"github.com/hupe1980/multivec/resource"
)

type options struct {
	codec       codec.Codec
	compression Compression
	metrics     MetricsCollector
	logger      *Logger
	resources   *resource.Controller
}

// Option configures MultiVector constructor/load behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for encoding snapshot state.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression applied to snapshot payloads.
// Default is CompressionNone. Loading is unaffected: snapshots record their
// compression in the header.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &multivec.BasicMetricsCollector{}
//	mv := multivec.New[string, uint32](multivec.WithMetricsCollector(metrics))
//	// ... use mv ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := multivec.NewJSONLogger(slog.LevelInfo)
//	mv := multivec.New[string, uint32](multivec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController configures a resource controller that throttles
// snapshot IO against blob stores (concurrency slots and bytes/sec).
// Pass nil to run snapshot IO unthrottled.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:       codec.Default,
		compression: CompressionNone,
		metrics:     NoopMetricsCollector{},
		logger:      NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
