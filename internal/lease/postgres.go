package lease

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresLocker stores leases as rows keyed by the locked identity.
// Acquisition is a single atomic upsert that only succeeds when the row
// is absent or its lease has expired, so at most one worker holds a key
// at any instant no matter how many processes race on it.
type PostgresLocker struct {
	db *sql.DB
}

func NewPostgresLocker(db *sql.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

func (l *PostgresLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO sign_leases (key, expires_at)
		VALUES ($1, NOW() + make_interval(secs => $2))
		ON CONFLICT (key) DO UPDATE
		SET expires_at = EXCLUDED.expires_at
		WHERE sign_leases.expires_at < NOW()
	`

	result, err := l.db.ExecContext(ctx, query, key, ttl.Seconds())
	if err != nil {
		return false, fmt.Errorf("lease acquire error: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	// Zero rows means the conflict row is still live: the lease is held.
	return rows > 0, nil
}
