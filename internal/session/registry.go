package session

import (
	"log/slog"
	"sort"
	"time"

	"github.com/server-monitor/internal/domain"
)

// Registry maps connection slots to player sessions. It is owned by the
// simulation loop: every mutation and every read of the live map must happen
// there. Other goroutines work from the copies handed out by Snapshot.
type Registry struct {
	sessions map[int]*domain.PlayerSession
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[int]*domain.PlayerSession),
		logger:   logger,
		now:      time.Now,
	}
}

// Ensure returns the session for slot, creating it if absent. Creating sets
// the session start time; calling Ensure for an existing slot refreshes the
// identity fields but keeps the original start time.
func (r *Registry) Ensure(slot int, steamID64 uint64, name string) *domain.PlayerSession {
	if s, ok := r.sessions[slot]; ok {
		s.SteamID64 = steamID64
		s.SteamID2 = domain.LegacySteamID(steamID64)
		s.Name = name
		return s
	}

	s := &domain.PlayerSession{
		Slot:      slot,
		SteamID64: steamID64,
		SteamID2:  domain.LegacySteamID(steamID64),
		Name:      name,
		StartedAt: r.now(),
	}
	r.sessions[slot] = s
	r.logger.Debug("session created", "slot", slot, "name", name, "steamid", steamID64)
	return s
}

// Remove deletes the session for slot. Removing an absent slot is a no-op:
// disconnect events can race a slot that was already cleared.
func (r *Registry) Remove(slot int) {
	if _, ok := r.sessions[slot]; !ok {
		return
	}
	delete(r.sessions, slot)
	r.logger.Debug("session removed", "slot", slot)
}

// Get returns the session for slot, if present.
func (r *Registry) Get(slot int) (*domain.PlayerSession, bool) {
	s, ok := r.sessions[slot]
	return s, ok
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// Each calls fn for every active session. Like all registry access it may
// only run on the simulation loop.
func (r *Registry) Each(fn func(*domain.PlayerSession)) {
	for _, s := range r.sessions {
		fn(s)
	}
}

// Snapshot returns a stable, slot-ordered copy of all sessions. The copies
// are safe to hand to worker goroutines; the registry itself never is.
func (r *Registry) Snapshot() []domain.PlayerSession {
	out := make([]domain.PlayerSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}
