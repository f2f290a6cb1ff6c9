package service

import (
	"log/slog"
	"time"

	"taskbill/internal/cache"
	"taskbill/internal/notify"
)

// Option configures the ambient collaborators shared by every service.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	emitter notify.Emitter
	cache   *cache.Cache
	now     func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		emitter: notify.Discard{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEmitter sets where notification intents go.
func WithEmitter(emitter notify.Emitter) Option {
	return func(o *options) {
		if emitter != nil {
			o.emitter = emitter
		}
	}
}

// WithCache enables membership caching.
func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
