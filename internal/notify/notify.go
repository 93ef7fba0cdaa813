// Package notify carries the fire-and-forget event sink consumed by external
// collaborators (Discord, email, websockets). Implementations must never block
// or fail the calling operation.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
)

type Notifier interface {
	MatchReady(ctx context.Context, matchID uuid.UUID)
	DisputeAssigned(ctx context.Context, disputeID, arbiterID uuid.UUID)
	DisputeResolved(ctx context.Context, disputeID uuid.UUID, decision arbitration.Decision)
}

// SlogNotifier logs events instead of delivering them; the default sink when
// no external collaborator is wired in.
type SlogNotifier struct{}

func NewSlogNotifier() *SlogNotifier {
	return &SlogNotifier{}
}

func (n *SlogNotifier) MatchReady(ctx context.Context, matchID uuid.UUID) {
	slog.Info("match ready", "match_id", matchID)
}

func (n *SlogNotifier) DisputeAssigned(ctx context.Context, disputeID, arbiterID uuid.UUID) {
	slog.Info("dispute assigned", "dispute_id", disputeID, "arbiter_id", arbiterID)
}

func (n *SlogNotifier) DisputeResolved(ctx context.Context, disputeID uuid.UUID, decision arbitration.Decision) {
	slog.Info("dispute resolved", "dispute_id", disputeID, "decision", decision)
}
