package report

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/server-monitor/internal/domain"
)

// RankFunc resolves a rank for a legacy identity. It may block; the builder
// is therefore only ever run off the simulation loop, on session copies.
type RankFunc func(ctx context.Context, steamID2 string) int

// Builder assembles outbound reports from session snapshots. One report is
// produced per player; an empty roster yields a single report with an empty
// players array so the dashboard can observe an empty server.
type Builder struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{
		logger: logger,
		now:    time.Now,
	}
}

// Build produces the reports for one update cycle.
func (b *Builder) Build(ctx context.Context, sessions []domain.PlayerSession, scores domain.TeamScores, resolve RankFunc) []domain.Report {
	if len(sessions) == 0 {
		return []domain.Report{{
			ScoreCT: scores.CT,
			ScoreT:  scores.T,
			Players: make([]domain.PlayerRecord, 0),
		}}
	}

	reports := make([]domain.Report, 0, len(sessions))
	for _, sess := range sessions {
		rank := 0
		if resolve != nil {
			rank = resolve(ctx, sess.SteamID2)
		}
		reports = append(reports, domain.Report{
			ScoreCT: scores.CT,
			ScoreT:  scores.T,
			Players: []domain.PlayerRecord{b.record(sess, rank)},
		})
	}
	return reports
}

func (b *Builder) record(sess domain.PlayerSession, rank int) domain.PlayerRecord {
	name := sess.Name
	if name == "" {
		name = "Unknown"
	}
	return domain.PlayerRecord{
		Name:      name,
		SteamID:   formatSteamID64(sess.SteamID64),
		Kills:     sess.Kills,
		Assists:   sess.Assists,
		Death:     sess.Deaths,
		Headshots: sess.Headshots,
		Rank:      rank,
		Playtime:  elapsedSeconds(sess.StartedAt, b.now()),
	}
}

func formatSteamID64(id64 uint64) string {
	if id64 == 0 {
		return ""
	}
	return strconv.FormatUint(id64, 10)
}

// elapsedSeconds computes session playtime, clamped to [0, MaxInt32] so that
// clock skew never produces a negative value and a pathological start time
// never wraps.
func elapsedSeconds(start, now time.Time) int {
	if start.IsZero() || !now.After(start) {
		return 0
	}
	secs := int64(now.Sub(start) / time.Second)
	if secs > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(secs)
}
