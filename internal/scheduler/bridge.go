package scheduler

import (
	"github.com/server-monitor/internal/domain"
	"github.com/server-monitor/internal/sim"
)

// Bridge adapts pushed host notifications into live state updates and
// scheduler triggers. It is the seam between the host's event model and this
// service's session lifecycle.
type Bridge struct {
	host  *sim.Host
	sched *Scheduler
}

// NewBridge creates a bridge.
func NewBridge(host *sim.Host, sched *Scheduler) *Bridge {
	return &Bridge{host: host, sched: sched}
}

// PlayerAuthorized records the player's live handle and schedules the
// delayed session initialization.
func (b *Bridge) PlayerAuthorized(slot int, steamID64 uint64, name string) {
	b.host.SetPlayer(slot, domain.PlayerStats{Name: name})
	b.sched.OnPlayerAuthorized(slot, steamID64, name)
}

// PlayerDisconnected drops the live handle and removes the session.
func (b *Bridge) PlayerDisconnected(slot int) {
	b.host.RemovePlayer(slot)
	b.sched.OnPlayerDisconnect(slot)
}

// PlayerStats refreshes a slot's live counters.
func (b *Bridge) PlayerStats(slot int, stats domain.PlayerStats) {
	b.host.SetPlayer(slot, stats)
}

// TeamScores refreshes the team scores.
func (b *Bridge) TeamScores(scores domain.TeamScores) {
	b.host.SetScores(scores)
}
