package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpauth/internal/auth/entity"
)

// throttle rows older than this are swept with expired records.
const throttleRetention = 24 * time.Hour

func (s *DB) Put(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := s.startSpan(ctx, "Put")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO otp_records (identity, id, code_hash, issued_at, expires_at, attempts, consumed)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE)
		ON CONFLICT (identity) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			attempts = 0,
			consumed = FALSE`,
		rec.Identity, rec.ID, rec.CodeHash, rec.IssuedAt, rec.ExpiresAt)
	return s.mapError(err)
}

func (s *DB) Get(ctx context.Context, identity string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	rec := entity.OTPRecord{Identity: identity}
	err = s.conn.QueryRow(ctx, `
		SELECT id, code_hash, issued_at, expires_at, attempts, consumed
		FROM otp_records
		WHERE identity = $1 AND expires_at >= $2`,
		identity, s.clock.Now(),
	).Scan(&rec.ID, &rec.CodeHash, &rec.IssuedAt, &rec.ExpiresAt, &rec.Attempts, &rec.Consumed)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &rec, nil
}

func (s *DB) IncrementAttempts(ctx context.Context, identity string, id int64, maxAttempts int) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	now := s.clock.Now()

	var attempts int
	err = s.conn.QueryRow(ctx, `
		UPDATE otp_records SET attempts = attempts + 1
		WHERE identity = $1 AND id = $2 AND expires_at >= $3 AND NOT consumed AND attempts < $4
		RETURNING attempts`,
		identity, id, now, maxAttempts,
	).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, s.classify(ctx, identity, id, now, maxAttempts)
	}
	if err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) Consume(ctx context.Context, identity string, id int64, maxAttempts int) (err error) {
	ctx, span := s.startSpan(ctx, "Consume")
	defer func() { s.endSpan(span, err) }()

	now := s.clock.Now()

	tag, err := s.conn.Exec(ctx, `
		UPDATE otp_records SET consumed = TRUE
		WHERE identity = $1 AND id = $2 AND expires_at >= $3 AND NOT consumed AND attempts < $4`,
		identity, id, now, maxAttempts)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return s.classify(ctx, identity, id, now, maxAttempts)
	}

	return nil
}

// classify explains why a guarded update matched no row.
func (s *DB) classify(ctx context.Context, identity string, id int64, now time.Time, maxAttempts int) error {
	var (
		consumed bool
		attempts int
	)

	err := s.conn.QueryRow(ctx, `
		SELECT consumed, attempts FROM otp_records
		WHERE identity = $1 AND id = $2 AND expires_at >= $3`,
		identity, id, now,
	).Scan(&consumed, &attempts)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return entity.ErrNotFoundOrExpired
	case err != nil:
		return s.mapError(err)
	case consumed:
		return entity.ErrAlreadyConsumed
	case attempts >= maxAttempts:
		return entity.ErrAttemptsExceeded
	default:
		return entity.ErrNotFoundOrExpired
	}
}

func (s *DB) DeleteExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM otp_records WHERE expires_at < $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	if _, err := s.conn.Exec(ctx, `DELETE FROM otp_throttles WHERE last_issued_at < $1`, now.Add(-throttleRetention)); err != nil {
		return tag.RowsAffected(), s.mapError(err)
	}

	if _, err := s.conn.Exec(ctx, `DELETE FROM otp_locks WHERE expires_at <= clock_timestamp()`); err != nil {
		return tag.RowsAffected(), s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
