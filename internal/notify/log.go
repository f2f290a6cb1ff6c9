package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher writes intents to a structured logger. It is the default
// when no message bus is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Emit(ctx context.Context, intents ...Intent) {
	for _, in := range intents {
		d.logger.InfoContext(ctx, "notification intent",
			"target_user_id", in.TargetUserID,
			"kind", string(in.Kind),
			"message", in.Message,
		)
	}
}
