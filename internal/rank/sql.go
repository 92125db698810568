package rank

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/server-monitor/internal/domain"
)

// sqlSource queries a rank table over a short-lived connection. Lookups are
// rare once the cache warms up, so a pool is not worth holding open against a
// database this service does not own.
type sqlSource struct {
	desc domain.SourceDescriptor
}

func (s *sqlSource) connString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		s.desc.User, s.desc.Password, s.desc.Host, s.desc.Port, s.desc.Database,
	)
}

func (s *sqlSource) lookup(ctx context.Context, steamID2 string) (int, error) {
	conn, err := pgx.Connect(ctx, s.connString())
	if err != nil {
		return 0, fmt.Errorf("connecting to rank database: %w", err)
	}
	defer conn.Close(ctx)

	// The table name comes from the descriptor file, not from user input,
	// but it still goes through identifier quoting.
	query := fmt.Sprintf(
		`SELECT rank FROM %s WHERE steam = $1`,
		pgx.Identifier{s.desc.Table}.Sanitize(),
	)

	var rank int
	err = conn.QueryRow(ctx, query, steamID2).Scan(&rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrRankNotFound
		}
		return 0, fmt.Errorf("querying rank: %w", err)
	}
	return rank, nil
}
