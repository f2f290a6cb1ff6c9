package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to the intent kind to form the NATS subject,
// e.g. "notifications.approval-granted".
const SubjectPrefix = "notifications."

// NATSDispatcher publishes intents as JSON for the delivery workers.
type NATSDispatcher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSDispatcher(url string, logger *slog.Logger) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url, nats.Name("taskbill-notify"))
	if err != nil {
		return nil, fmt.Errorf("nats connect failed: %w", err)
	}
	return &NATSDispatcher{conn: nc, logger: logger}, nil
}

func (d *NATSDispatcher) Close() {
	d.conn.Close()
}

func (d *NATSDispatcher) Emit(ctx context.Context, intents ...Intent) {
	for _, in := range intents {
		data, err := json.Marshal(in)
		if err != nil {
			d.logger.ErrorContext(ctx, "encode notification intent", "kind", string(in.Kind), "error", err)
			continue
		}
		if err := d.conn.Publish(Subject(in.Kind), data); err != nil {
			d.logger.ErrorContext(ctx, "publish notification intent",
				"kind", string(in.Kind),
				"target_user_id", in.TargetUserID,
				"error", err,
			)
		}
	}
}

func Subject(kind Kind) string {
	return SubjectPrefix + string(kind)
}
