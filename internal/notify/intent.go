// Package notify carries notification intents out of the core. The core
// only describes who should hear about what; delivery belongs to whichever
// Emitter the process wires in.
package notify

import "context"

type Kind string

const (
	KindNewUser            Kind = "new-user"
	KindApprovalGranted    Kind = "approval-granted"
	KindOrganizationJoined Kind = "organization-joined"
	KindMemberAdded        Kind = "member-added"
)

type Intent struct {
	TargetUserID string `json:"targetUserId"`
	Kind         Kind   `json:"kind"`
	Message      string `json:"message"`
}

// Emitter accepts intents. Implementations must not fail the calling
// operation; delivery problems are theirs to log.
type Emitter interface {
	Emit(ctx context.Context, intents ...Intent)
}

// Discard drops every intent.
type Discard struct{}

func (Discard) Emit(context.Context, ...Intent) {}

// Multi fans intents out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, intents ...Intent) {
	for _, e := range m {
		e.Emit(ctx, intents...)
	}
}
