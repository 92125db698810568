package rank

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

// source is a single-lookup rank store. lookup returns ErrRankNotFound when
// the identity has no stored rank; any other error means the store could not
// be reached or understood.
type source interface {
	lookup(ctx context.Context, steamID2 string) (int, error)
}

// Resolver resolves a player's externally stored rank by legacy identity,
// memoizing every successful lookup for the lifetime of the process. Resolve
// never fails: unreachable stores, malformed descriptors and unknown
// identities all degrade to rank 0, and a 0 from a failure is never cached so
// a later cycle can retry.
//
// Resolve performs blocking I/O on a cache miss and must not be called from
// the simulation loop.
type Resolver struct {
	settings  func() config.Settings
	paths     config.PathsConfig
	logger    *slog.Logger
	cache     sync.Map // steamID2 -> int
	sourceFor func(domain.RankSourceType) (source, error)

	redisOnce sync.Once
	redis     *redisSource
	redisCfg  config.RedisConfig
}

// NewResolver creates a resolver. settings supplies the current rank source
// selector on every miss, so a config reload takes effect without a restart.
func NewResolver(settings func() config.Settings, paths config.PathsConfig, redisCfg config.RedisConfig, logger *slog.Logger) *Resolver {
	r := &Resolver{
		settings: settings,
		paths:    paths,
		redisCfg: redisCfg,
		logger:   logger,
	}
	r.sourceFor = r.openSource
	return r
}

// Resolve returns the rank for a legacy identity, or 0 if it cannot be
// determined right now.
func (r *Resolver) Resolve(ctx context.Context, steamID2 string) int {
	if steamID2 == "" {
		return 0
	}

	if v, ok := r.cache.Load(steamID2); ok {
		return v.(int)
	}

	src, err := r.sourceFor(r.settings().RankSource)
	if err != nil {
		if !errors.Is(err, domain.ErrRankSourceDisabled) {
			r.logger.Debug("rank source unavailable", "error", err)
		}
		return 0
	}

	rank, err := src.lookup(ctx, steamID2)
	if err != nil {
		// "not found" and "unreachable" are deliberately indistinguishable
		// to the caller; neither is cached.
		r.logger.Debug("rank lookup failed", "steamid", steamID2, "error", err)
		return 0
	}

	actual, _ := r.cache.LoadOrStore(steamID2, rank)
	return actual.(int)
}

// CacheSize returns the number of memoized ranks.
func (r *Resolver) CacheSize() int {
	n := 0
	r.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// openSource maps the selector to a concrete store. The descriptor files are
// re-read on every miss so edits are picked up without a restart.
func (r *Resolver) openSource(selector domain.RankSourceType) (source, error) {
	switch selector {
	case domain.RankSourcePrimary:
		data, err := os.ReadFile(r.paths.PrimaryDescriptor)
		if err != nil {
			return nil, err
		}
		desc, err := domain.ParsePrimaryDescriptor(data)
		if err != nil {
			return nil, err
		}
		return &sqlSource{desc: desc}, nil

	case domain.RankSourceAlternative:
		data, err := os.ReadFile(r.paths.AlternativeDescriptor)
		if err != nil {
			return nil, err
		}
		desc, err := domain.ParseAlternativeDescriptor(data)
		if err != nil {
			return nil, err
		}
		return &sqlSource{desc: desc}, nil

	case domain.RankSourceRedis:
		r.redisOnce.Do(func() {
			r.redis = newRedisSource(&r.redisCfg)
		})
		return r.redis, nil

	default:
		return nil, domain.ErrRankSourceDisabled
	}
}
