package sim

import "github.com/server-monitor/internal/domain"

// Host is an in-memory LiveState fed by host notifications pushed into the
// service. The read side (LiveState) runs on the loop like any live-state
// read; the mutators below are safe to call from any goroutine and hand the
// write off to the loop themselves.
type Host struct {
	loop    *Loop
	players map[int]domain.PlayerStats
	scores  domain.TeamScores
}

// NewHost creates an empty host state bound to the loop.
func NewHost(loop *Loop) *Host {
	return &Host{
		loop:    loop,
		players: make(map[int]domain.PlayerStats),
	}
}

// PlayerBySlot implements LiveState. Loop only.
func (h *Host) PlayerBySlot(slot int) (domain.PlayerStats, bool) {
	stats, ok := h.players[slot]
	return stats, ok
}

// TeamScores implements LiveState. Loop only.
func (h *Host) TeamScores() domain.TeamScores {
	return h.scores
}

// SetPlayer records the live stats for a slot.
func (h *Host) SetPlayer(slot int, stats domain.PlayerStats) {
	h.loop.Post(func() {
		h.players[slot] = stats
	})
}

// RemovePlayer drops a slot's live handle.
func (h *Host) RemovePlayer(slot int) {
	h.loop.Post(func() {
		delete(h.players, slot)
	})
}

// SetScores records the team scores.
func (h *Host) SetScores(scores domain.TeamScores) {
	h.loop.Post(func() {
		h.scores = scores
	})
}
