package sim

import "github.com/server-monitor/internal/domain"

// LiveState is the boundary to the host simulation's live game state. The
// host only surfaces eligible participants (no bots, no spectator
// observers); a slot whose handle has gone stale reports ok=false and the
// caller keeps its last known counters for that player.
//
// Implementations are only ever called from the simulation loop.
type LiveState interface {
	// PlayerBySlot reads the current match counters for a connected slot.
	PlayerBySlot(slot int) (domain.PlayerStats, bool)

	// TeamScores reads the two team-score entities. A missing entity
	// contributes zero.
	TeamScores() domain.TeamScores
}
