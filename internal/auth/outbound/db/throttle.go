package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Allow takes the slot when no issuance happened within cooldown. The
// conditional upsert makes check-and-record a single statement.
func (s *DB) Allow(ctx context.Context, identity string, cooldown time.Duration) (_ bool, _ time.Duration, err error) {
	ctx, span := s.startSpan(ctx, "Allow")
	defer func() { s.endSpan(span, err) }()

	now := s.clock.Now()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO otp_throttles (identity, last_issued_at) VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET last_issued_at = EXCLUDED.last_issued_at
		WHERE otp_throttles.last_issued_at <= $3`,
		identity, now, now.Add(-cooldown))
	if err != nil {
		return false, 0, s.mapError(err)
	}

	if tag.RowsAffected() == 1 {
		return true, 0, nil
	}

	left, err := s.remaining(ctx, identity, cooldown, now)
	if err != nil {
		return false, 0, err
	}

	return false, max(left, time.Millisecond), nil
}

func (s *DB) Remaining(ctx context.Context, identity string, cooldown time.Duration) (_ time.Duration, err error) {
	ctx, span := s.startSpan(ctx, "Remaining")
	defer func() { s.endSpan(span, err) }()

	return s.remaining(ctx, identity, cooldown, s.clock.Now())
}

func (s *DB) remaining(ctx context.Context, identity string, cooldown time.Duration, now time.Time) (time.Duration, error) {
	var last time.Time
	err := s.conn.QueryRow(ctx, `SELECT last_issued_at FROM otp_throttles WHERE identity = $1`, identity).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, s.mapError(err)
	}

	return max(cooldown-now.Sub(last), 0), nil
}

func (s *DB) Release(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "Release")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM otp_throttles WHERE identity = $1`, identity)
	return s.mapError(err)
}
