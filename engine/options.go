package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/sgeproto/config"
	"github.com/wippyai/sgeproto/frame"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	strict    bool
	limits    frame.Limits
	zeroPack  bool
	maxDepth  int
	observers observers
}

func defaultOptions() options {
	return options{
		logger:   Logger(),
		limits:   frame.DefaultLimits(),
		zeroPack: true,
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrictDecode makes Decode reject unknown field tags and repeated
// singular fields.
func WithStrictDecode(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithFrameLimits bounds the sizes Unpack accepts. Non-positive limits are
// ignored.
func WithFrameLimits(l frame.Limits) Option {
	return func(o *options) {
		if l.Validate() == nil {
			o.limits = l
		}
	}
}

// WithZeroPack enables or disables zero-byte packing in Pack. Unpack reads
// both forms regardless.
func WithZeroPack(enabled bool) Option {
	return func(o *options) { o.zeroPack = enabled }
}

// WithMaxDepth bounds message nesting accepted by Encode and Decode.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithObserver adds an observer. It may be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithConfig applies the decode and frame sections of cfg. The schema path
// is not loaded; call ParseFile with cfg.Schema.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.strict = cfg.Decode.Strict
		o.zeroPack = cfg.Frame.ZeroPack
		l := frame.Limits{MaxRawBytes: cfg.Frame.MaxRawBytes, MaxPayloadBytes: cfg.Frame.MaxPayloadBytes}
		if l.Validate() == nil {
			o.limits = l
		}
	}
}
