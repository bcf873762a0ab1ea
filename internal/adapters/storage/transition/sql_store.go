package transition

import (
	"context"
	"fmt"
	"time"

	"roster/internal/adapters/storage"
	memberdomain "roster/internal/domain/member"
	domain "roster/internal/domain/transition"
)

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new transition store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db, dialect: storage.DialectOf(db)}
}

func (s *SQLStore) q(query string) string {
	return storage.Rebind(s.dialect, query)
}

// Apply re-pins the member and records the transition in one transaction.
// PRE: t has been validated and carries an ID
// POST: member.cohort_id == t.ToCohortID and the log holds t, or neither changed
func (s *SQLStore) Apply(ctx context.Context, t domain.Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q("UPDATE member SET cohort_id = ? WHERE id = ?"), t.ToCohortID, t.MemberID)
	if err != nil {
		return fmt.Errorf("failed to pin member %s: %w", t.MemberID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", memberdomain.ErrNotFound, t.MemberID)
	}
	_, err = tx.ExecContext(ctx, s.q(`INSERT INTO cohort_transition (id, member_id, from_cohort_id, to_cohort_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		t.ID, t.MemberID, t.FromCohortID, t.ToCohortID, t.Reason, t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record transition for %s: %w", t.MemberID, err)
	}
	return tx.Commit()
}

// ListByMemberID returns a member's transitions, oldest first.
func (s *SQLStore) ListByMemberID(ctx context.Context, memberID string) ([]domain.Transition, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, member_id, from_cohort_id, to_cohort_id, reason, created_at
		FROM cohort_transition WHERE member_id = ? ORDER BY created_at ASC, id ASC`), memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transition
	for rows.Next() {
		var t domain.Transition
		var created string
		if err := rows.Scan(&t.ID, &t.MemberID, &t.FromCohortID, &t.ToCohortID, &t.Reason, &created); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
