package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// PGStore persists the points ledger and user balances in Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a ledger store over the provided pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

// FindByUniqueKey loads a ledger entry by its idempotency key.
func (s *PGStore) FindByUniqueKey(ctx context.Context, uniqueKey string) (Entry, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, action, points, COALESCE(source_id, ''), unique_key, status, created_at
		 FROM points_ledger WHERE unique_key = $1`, uniqueKey)
	return scanEntry(row)
}

// CountPosted counts posted entries for a user and action.
func (s *PGStore) CountPosted(ctx context.Context, userID, action string) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM points_ledger WHERE user_id = $1 AND action = $2 AND status = 'posted'`,
		userID, action).Scan(&count)
	return count, err
}

// CountSince counts entries for a user and action created at or after since.
func (s *PGStore) CountSince(ctx context.Context, userID, action string, since time.Time) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM points_ledger WHERE user_id = $1 AND action = $2 AND created_at >= $3`,
		userID, action, since).Scan(&count)
	return count, err
}

// Insert appends the entry and, when posted, credits the balance in the
// same transaction. The ledger's unique index on unique_key is the
// idempotency guarantee.
func (s *PGStore) Insert(ctx context.Context, entry Entry) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	balance, err := s.ApplyTx(ctx, tx, entry)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplyTx appends the entry inside the caller's transaction, adjusting
// the balance with it when the entry is posted. Commit stays with the
// caller, so the entry lands or vanishes together with the caller's
// other writes.
func (s *PGStore) ApplyTx(ctx context.Context, tx pgx.Tx, entry Entry) (int64, error) {
	_, err := tx.Exec(ctx,
		`INSERT INTO points_ledger (id, user_id, action, points, source_id, unique_key, status, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		entry.ID, entry.UserID, entry.Action, entry.Points, entry.SourceID, entry.UniqueKey, string(entry.Status), entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("insert ledger entry: %w", ErrDuplicateKey)
		}
		return 0, err
	}

	var balance int64
	if entry.Status == StatusPosted {
		err = tx.QueryRow(ctx,
			`UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1 RETURNING points`,
			entry.UserID, entry.Points).Scan(&balance)
	} else {
		err = tx.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, entry.UserID).Scan(&balance)
	}
	return balance, err
}

// MarkPosted flips a pending entry to posted and credits the balance.
func (s *PGStore) MarkPosted(ctx context.Context, uniqueKey string) (Entry, int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`UPDATE points_ledger SET status = 'posted'
		 WHERE unique_key = $1 AND status = 'pending'
		 RETURNING id, user_id, action, points, COALESCE(source_id, ''), unique_key, status, created_at`,
		uniqueKey)
	entry, err := scanEntry(row)
	if err != nil {
		return Entry{}, 0, err
	}

	var balance int64
	if err := tx.QueryRow(ctx,
		`UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1 RETURNING points`,
		entry.UserID, entry.Points).Scan(&balance); err != nil {
		return Entry{}, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, 0, err
	}
	return entry, balance, nil
}

// Balance reads the user's running point total.
func (s *PGStore) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.Pool.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID, ErrEntryNotFound)
	}
	return balance, err
}

// CompletedActions lists distinct posted actions for the user.
func (s *PGStore) CompletedActions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT DISTINCT action FROM points_ledger WHERE user_id = $1 AND status = 'posted'`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var actions []string
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry  Entry
		status string
	)
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Points, &entry.SourceID, &entry.UniqueKey, &status, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	entry.Status = Status(status)
	return entry, nil
}
