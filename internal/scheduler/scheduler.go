package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
	"github.com/server-monitor/internal/rank"
	"github.com/server-monitor/internal/report"
	"github.com/server-monitor/internal/session"
	"github.com/server-monitor/internal/sim"
	"github.com/server-monitor/internal/transport"
)

// authDelay is how long session initialization waits after a player
// authorization, letting identity data settle before the session is created.
const authDelay = 1 * time.Second

// ReportFeed receives every built report for live observation.
type ReportFeed interface {
	BroadcastReport(serverID string, rep domain.Report)
}

// ReportMirror receives every built report for stream ingest.
type ReportMirror interface {
	Publish(serverID string, rep domain.Report)
}

// CycleInfo summarizes the most recent update cycle.
type CycleInfo struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Players    int       `json:"players"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}

// Status is the scheduler's view of the pipeline, served by the admin API.
type Status struct {
	Players          int        `json:"players"`
	RankCacheSize    int        `json:"rank_cache_size"`
	RankSource       int        `json:"rank_source"`
	ReportingEnabled bool       `json:"reporting_enabled"`
	IntervalSeconds  float64    `json:"interval_seconds"`
	LastCycle        *CycleInfo `json:"last_cycle,omitempty"`
}

// Scheduler drives the update cycles: a periodic timer at the configured
// interval, the on-demand trigger, and the delayed session initialization
// after a player authorization. Every trigger runs the same cycle: snapshot
// on the simulation loop, then rank resolution and delivery on a worker
// goroutine.
//
// Cycles are single-flight: a trigger that fires while the previous cycle is
// still resolving or sending is skipped, so a slow rank source can never pile
// work up.
type Scheduler struct {
	loop     *sim.Loop
	registry *session.Registry
	live     sim.LiveState
	resolver *rank.Resolver
	builder  *report.Builder
	sender   *transport.Sender
	store    *config.Store
	feed     ReportFeed
	mirror   ReportMirror
	logger   *slog.Logger

	authDelay time.Duration
	logLevel  *slog.LevelVar

	inFlight  atomic.Bool
	lastCycle atomic.Pointer[CycleInfo]

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// New creates a scheduler. feed and mirror may be nil.
func New(
	loop *sim.Loop,
	registry *session.Registry,
	live sim.LiveState,
	resolver *rank.Resolver,
	builder *report.Builder,
	sender *transport.Sender,
	store *config.Store,
	feed ReportFeed,
	mirror ReportMirror,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		loop:      loop,
		registry:  registry,
		live:      live,
		resolver:  resolver,
		builder:   builder,
		sender:    sender,
		store:     store,
		feed:      feed,
		mirror:    mirror,
		logger:    logger,
		authDelay: authDelay,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the periodic timer.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("scheduler started", "interval", s.store.Current().Interval)

	go s.run()
	return nil
}

// Stop stops the periodic timer. An in-flight cycle is not cancelled; it
// finishes (or fails) on its own.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.logger.Info("scheduler stopped")
	return nil
}

// run re-reads the interval after every tick so a settings reload takes
// effect without a restart.
func (s *Scheduler) run() {
	defer close(s.doneCh)

	timer := time.NewTimer(s.store.Current().Interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.TriggerCycle("timer")
			timer.Reset(s.store.Current().Interval)
		}
	}
}

// TriggerCycle starts one update cycle unless one is already in flight.
func (s *Scheduler) TriggerCycle(trigger string) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("update cycle already in flight, skipping", "trigger", trigger)
		return
	}

	cycleID := uuid.New().String()
	go func() {
		defer s.inFlight.Store(false)
		s.cycle(cycleID, trigger)
	}()
}

// cycle runs one snapshot → resolve → send pass. Only the snapshot step
// touches loop-owned state.
func (s *Scheduler) cycle(cycleID, trigger string) {
	st := s.store.Current()

	var sessions []domain.PlayerSession
	var scores domain.TeamScores

	err := s.loop.Call(func() {
		s.registry.Each(func(sess *domain.PlayerSession) {
			stats, ok := s.live.PlayerBySlot(sess.Slot)
			if !ok {
				// Stale handle: keep the last known counters this cycle.
				return
			}
			applyStats(sess, stats)
		})
		sessions = s.registry.Snapshot()
		scores = s.live.TeamScores()
	})
	if err != nil {
		s.logger.Debug("snapshot skipped", "cycle", cycleID, "error", err)
		return
	}

	ctx := context.Background()
	reports := s.builder.Build(ctx, sessions, scores, s.resolver.Resolve)

	sent, failed := 0, 0
	for _, rep := range reports {
		if err := s.sender.Send(ctx, rep); err != nil {
			if errors.Is(err, domain.ErrReportingDisabled) {
				s.logger.Debug("report skipped, reporting disabled", "cycle", cycleID)
			} else {
				s.logger.Warn("report send failed", "cycle", cycleID, "error", err)
				failed++
			}
		} else {
			sent++
		}

		if s.feed != nil {
			s.feed.BroadcastReport(st.ServerID, rep)
		}
		if s.mirror != nil {
			s.mirror.Publish(st.ServerID, rep)
		}
	}

	info := &CycleInfo{
		ID:         cycleID,
		Trigger:    trigger,
		Players:    len(sessions),
		Sent:       sent,
		Failed:     failed,
		FinishedAt: time.Now(),
	}
	s.lastCycle.Store(info)

	s.logger.Debug("update cycle completed",
		"cycle", cycleID,
		"trigger", trigger,
		"players", len(sessions),
		"sent", sent,
		"failed", failed,
	)
}

// OnPlayerAuthorized schedules the delayed session initialization for a
// newly authorized player.
func (s *Scheduler) OnPlayerAuthorized(slot int, steamID64 uint64, name string) {
	s.logger.Debug("player authorized", "slot", slot, "steamid", steamID64)

	time.AfterFunc(s.authDelay, func() {
		err := s.loop.Post(func() {
			sess := s.registry.Ensure(slot, steamID64, name)
			if stats, ok := s.live.PlayerBySlot(slot); ok {
				applyStats(sess, stats)
			}
		})
		if err != nil {
			s.logger.Debug("session init dropped", "slot", slot, "error", err)
		}
	})
}

// OnPlayerDisconnect removes the player's session. Removal is immediate and
// authoritative; an in-flight cycle may still send the stale snapshot it
// already copied, which is acceptable.
func (s *Scheduler) OnPlayerDisconnect(slot int) {
	err := s.loop.Post(func() {
		s.registry.Remove(slot)
	})
	if err != nil {
		s.logger.Debug("session removal dropped", "slot", slot, "error", err)
	}
}

// SetLogLevelVar ties the process log level to the debug flag: every
// successful reload re-applies it, so flipping debug_mode takes effect
// without a restart.
func (s *Scheduler) SetLogLevelVar(v *slog.LevelVar) {
	s.logLevel = v
}

// ReloadSettings re-parses the settings file.
func (s *Scheduler) ReloadSettings() error {
	if err := s.store.Reload(); err != nil {
		if s.store.Current().Debug {
			s.logger.Debug("settings reload failed", "error", err)
		}
		return err
	}
	if s.logLevel != nil {
		s.logLevel.Set(s.store.Current().LogLevel())
	}
	s.logger.Info("settings reloaded", "interval", s.store.Current().Interval)
	return nil
}

// Status reports the current pipeline state.
func (s *Scheduler) Status() Status {
	players := 0
	s.loop.Call(func() {
		players = s.registry.Len()
	})

	st := s.store.Current()
	return Status{
		Players:          players,
		RankCacheSize:    s.resolver.CacheSize(),
		RankSource:       int(st.RankSource),
		ReportingEnabled: st.ReportingEnabled(),
		IntervalSeconds:  st.Interval.Seconds(),
		LastCycle:        s.lastCycle.Load(),
	}
}

func applyStats(sess *domain.PlayerSession, stats domain.PlayerStats) {
	if stats.Name != "" {
		sess.Name = stats.Name
	}
	sess.Kills = stats.Kills
	sess.Deaths = stats.Deaths
	sess.Assists = stats.Assists
	sess.Headshots = stats.Headshots
}
