package rank

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

type stubSource struct {
	rank  int
	err   error
	calls int
}

func (s *stubSource) lookup(_ context.Context, _ string) (int, error) {
	s.calls++
	return s.rank, s.err
}

func newTestResolver(selector domain.RankSourceType) *Resolver {
	settings := func() config.Settings {
		s := config.DefaultSettings()
		s.RankSource = selector
		return s
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(settings, config.PathsConfig{}, config.RedisConfig{}, logger)
}

func TestResolveEmptyIdentity(t *testing.T) {
	r := newTestResolver(domain.RankSourcePrimary)
	src := &stubSource{rank: 7}
	r.sourceFor = func(domain.RankSourceType) (source, error) { return src, nil }

	if got := r.Resolve(context.Background(), ""); got != 0 {
		t.Errorf("Resolve(\"\") = %d, want 0", got)
	}
	if src.calls != 0 {
		t.Error("empty identity must not reach the source")
	}
}

func TestResolveDisabledSource(t *testing.T) {
	r := newTestResolver(domain.RankSourceDisabled)

	if got := r.Resolve(context.Background(), "STEAM_1:1:84692"); got != 0 {
		t.Errorf("Resolve = %d with source disabled, want 0", got)
	}
	if r.CacheSize() != 0 {
		t.Error("disabled-source result must not be cached")
	}
}

func TestResolveUnknownSelector(t *testing.T) {
	r := newTestResolver(domain.RankSourceType(7))

	if got := r.Resolve(context.Background(), "STEAM_1:1:84692"); got != 0 {
		t.Errorf("Resolve = %d with unknown selector, want 0", got)
	}
}

func TestResolveCachesSuccess(t *testing.T) {
	r := newTestResolver(domain.RankSourcePrimary)
	src := &stubSource{rank: 12}
	r.sourceFor = func(domain.RankSourceType) (source, error) { return src, nil }

	if got := r.Resolve(context.Background(), "STEAM_1:1:84692"); got != 12 {
		t.Fatalf("first Resolve = %d, want 12", got)
	}

	// Even with the source now unreachable, the cached value wins.
	src.err = errors.New("connection refused")
	if got := r.Resolve(context.Background(), "STEAM_1:1:84692"); got != 12 {
		t.Errorf("second Resolve = %d, want cached 12", got)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1 (cache hit)", src.calls)
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	r := newTestResolver(domain.RankSourcePrimary)
	src := &stubSource{err: errors.New("connection refused")}
	r.sourceFor = func(domain.RankSourceType) (source, error) { return src, nil }

	if got := r.Resolve(context.Background(), "STEAM_1:0:1"); got != 0 {
		t.Fatalf("Resolve = %d on failure, want 0", got)
	}
	if r.CacheSize() != 0 {
		t.Fatal("failure must not be cached")
	}

	// A later cycle retries and can now succeed.
	src.err = nil
	src.rank = 5
	if got := r.Resolve(context.Background(), "STEAM_1:0:1"); got != 5 {
		t.Errorf("Resolve after recovery = %d, want 5", got)
	}
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
}

func TestResolveNotFoundResolvesToZero(t *testing.T) {
	r := newTestResolver(domain.RankSourcePrimary)
	src := &stubSource{err: domain.ErrRankNotFound}
	r.sourceFor = func(domain.RankSourceType) (source, error) { return src, nil }

	if got := r.Resolve(context.Background(), "STEAM_1:0:2"); got != 0 {
		t.Errorf("Resolve = %d for unknown identity, want 0", got)
	}
	if r.CacheSize() != 0 {
		t.Error("not-found must not be cached")
	}
}

func TestOpenSourceNormalizesDescriptors(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "dbconfig.json")
	alternative := filepath.Join(dir, "settings_ranks.json")

	if err := os.WriteFile(primary, []byte(
		`{"DbHost":"h1","DbUser":"u","DbPassword":"p","DbName":"d","DbPort":"5433","Name":"lvl_base"}`,
	), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(alternative, []byte(
		`{"TableName":"ranks","Connection":{"Host":"h2","Database":"d","User":"u","Password":"p"}}`,
	), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestResolver(domain.RankSourcePrimary)
	r.paths = config.PathsConfig{PrimaryDescriptor: primary, AlternativeDescriptor: alternative}

	src, err := r.openSource(domain.RankSourcePrimary)
	if err != nil {
		t.Fatalf("openSource(primary): %v", err)
	}
	sql := src.(*sqlSource)
	if sql.desc.Host != "h1" || sql.desc.Port != 5433 || sql.desc.Table != "lvl_base" {
		t.Errorf("primary descriptor = %+v", sql.desc)
	}

	src, err = r.openSource(domain.RankSourceAlternative)
	if err != nil {
		t.Fatalf("openSource(alternative): %v", err)
	}
	sql = src.(*sqlSource)
	if sql.desc.Host != "h2" || sql.desc.Port != domain.DefaultSQLPort || sql.desc.Table != "ranks" {
		t.Errorf("alternative descriptor = %+v", sql.desc)
	}
}

func TestOpenSourceMissingDescriptorFile(t *testing.T) {
	r := newTestResolver(domain.RankSourcePrimary)
	r.paths = config.PathsConfig{PrimaryDescriptor: filepath.Join(t.TempDir(), "absent.json")}

	if _, err := r.openSource(domain.RankSourcePrimary); err == nil {
		t.Error("expected error for missing descriptor file")
	}

	// And Resolve degrades to 0 rather than failing.
	if got := r.Resolve(context.Background(), "STEAM_1:0:3"); got != 0 {
		t.Errorf("Resolve = %d, want 0", got)
	}
}

func TestSQLSourceConnString(t *testing.T) {
	s := &sqlSource{desc: domain.SourceDescriptor{
		Host: "db", User: "u", Password: "p", Database: "stats", Port: 5433, Table: "lvl_base",
	}}
	want := "postgres://u:p@db:5433/stats?sslmode=disable"
	if got := s.connString(); got != want {
		t.Errorf("connString = %q, want %q", got, want)
	}
}
