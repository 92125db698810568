package report

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/server-monitor/internal/domain"
)

func newTestBuilder() *Builder {
	return NewBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildEmptyRoster(t *testing.T) {
	b := newTestBuilder()

	reports := b.Build(context.Background(), nil, domain.TeamScores{CT: 3, T: 5}, nil)
	if len(reports) != 1 {
		t.Fatalf("Build on empty roster produced %d reports, want 1", len(reports))
	}

	rep := reports[0]
	if rep.ScoreCT != 3 || rep.ScoreT != 5 {
		t.Errorf("scores = %d/%d, want 3/5", rep.ScoreCT, rep.ScoreT)
	}
	if rep.Players == nil {
		t.Fatal("Players must be an empty array, not nil")
	}

	// nil would serialize as "players":null, which the dashboard rejects.
	raw, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"players":[]`) {
		t.Errorf("payload = %s, want empty players array", raw)
	}
}

func TestBuildOneReportPerPlayer(t *testing.T) {
	b := newTestBuilder()
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return start.Add(95 * time.Second) }

	sessions := []domain.PlayerSession{
		{
			Slot: 3, SteamID64: 76561197960435113, SteamID2: "STEAM_1:1:84692",
			Name: "Alice", Kills: 5, Deaths: 2, Assists: 1, Headshots: 0,
			StartedAt: start,
		},
		{
			Slot: 4, SteamID64: 76561197960265730, SteamID2: "STEAM_1:0:1",
			Name: "Bob", Kills: 1, Deaths: 7, Assists: 3, Headshots: 1,
			StartedAt: start,
		},
	}

	var resolved []string
	resolve := func(_ context.Context, id string) int {
		resolved = append(resolved, id)
		return 42
	}

	reports := b.Build(context.Background(), sessions, domain.TeamScores{CT: 1, T: 2}, resolve)
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	p := reports[0].Players[0]
	if p.Name != "Alice" || p.SteamID != "76561197960435113" {
		t.Errorf("identity = %q/%q", p.Name, p.SteamID)
	}
	if p.Kills != 5 || p.Assists != 1 || p.Death != 2 || p.Headshots != 0 {
		t.Errorf("stats = kills %d assists %d death %d hs %d, want 5/1/2/0",
			p.Kills, p.Assists, p.Death, p.Headshots)
	}
	if p.Rank != 42 {
		t.Errorf("Rank = %d, want 42", p.Rank)
	}
	if p.Playtime != 95 {
		t.Errorf("Playtime = %d, want 95", p.Playtime)
	}

	if len(resolved) != 2 || resolved[0] != "STEAM_1:1:84692" || resolved[1] != "STEAM_1:0:1" {
		t.Errorf("resolver saw %v, want legacy identities in roster order", resolved)
	}
}

func TestBuildNilResolver(t *testing.T) {
	b := newTestBuilder()
	sessions := []domain.PlayerSession{{Slot: 1, Name: "Alice", StartedAt: time.Now()}}

	reports := b.Build(context.Background(), sessions, domain.TeamScores{}, nil)
	if reports[0].Players[0].Rank != 0 {
		t.Errorf("Rank = %d without resolver, want 0", reports[0].Players[0].Rank)
	}
}

func TestRecordDefaults(t *testing.T) {
	b := newTestBuilder()

	rec := b.record(domain.PlayerSession{Slot: 1}, 0)
	if rec.Name != "Unknown" {
		t.Errorf("Name = %q for a nameless session, want Unknown", rec.Name)
	}
	if rec.SteamID != "" {
		t.Errorf("SteamID = %q for an unauthenticated session, want empty", rec.SteamID)
	}
}

func TestElapsedSecondsClamps(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"zero start", time.Time{}, 0},
		{"future start", now.Add(time.Minute), 0},
		{"exactly now", now, 0},
		{"normal", now.Add(-90 * time.Second), 90},
		{"sub-second truncated", now.Add(-1500 * time.Millisecond), 1},
		{"ancient start clamps", now.Add(-80 * 365 * 24 * time.Hour), math.MaxInt32},
	}
	for _, tt := range tests {
		if got := elapsedSeconds(tt.start, now); got != tt.want {
			t.Errorf("%s: elapsedSeconds = %d, want %d", tt.name, got, tt.want)
		}
	}
}
