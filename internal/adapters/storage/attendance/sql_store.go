package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"roster/internal/adapters/storage"
	domain "roster/internal/domain/attendance"
	"roster/internal/domain/dates"
)

const selectColumns = "SELECT id, member_id, class_date, present, created_at, updated_at FROM attendance"

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
	now     func() time.Time
}

// NewSQLStore creates a new attendance store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db, dialect: storage.DialectOf(db), now: time.Now}
}

func (s *SQLStore) q(query string) string {
	return storage.Rebind(s.dialect, query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc rowScanner) (domain.Record, error) {
	var r domain.Record
	var day, created, updated string
	var present int
	if err := sc.Scan(&r.ID, &r.MemberID, &day, &present, &created, &updated); err != nil {
		return domain.Record{}, err
	}
	var err error
	if r.Date, err = dates.Parse(day); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse class_date: %w", err)
	}
	r.Present = present != 0
	if r.CreatedAt, err = parseStoredTime(created); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return r, nil
}

func parseStoredTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Upsert finds the record for (memberID, date) and updates it, or creates it.
// The UNIQUE(member_id, class_date) constraint turns a racing insert into an
// update, so a slot never holds two rows.
// PRE: memberID is non-empty, date is set
// POST: exactly one record exists for the slot, with Present == present
func (s *SQLStore) Upsert(ctx context.Context, memberID string, date time.Time, present bool) (domain.Record, error) {
	day := dates.Format(dates.Civil(date))
	stamp := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Record{}, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, s.q("SELECT id FROM attendance WHERE member_id = ? AND class_date = ?"), memberID, day).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, s.q("UPDATE attendance SET present = ?, updated_at = ? WHERE id = ?"),
			boolToInt(present), stamp, id)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, s.q(`INSERT INTO attendance (id, member_id, class_date, present, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(member_id, class_date) DO UPDATE SET present=excluded.present, updated_at=excluded.updated_at`),
			uuid.NewString(), memberID, day, boolToInt(present), stamp, stamp)
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to upsert attendance for %s on %s: %w", memberID, day, err)
	}

	row := tx.QueryRowContext(ctx, s.q(selectColumns+" WHERE member_id = ? AND class_date = ?"), memberID, day)
	rec, err := scanRecord(row)
	if err != nil {
		return domain.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// Get retrieves the record for (memberID, date).
// POST: Returns domain.ErrRecordNotFound when the slot has no record
func (s *SQLStore) Get(ctx context.Context, memberID string, date time.Time) (domain.Record, error) {
	day := dates.Format(dates.Civil(date))
	row := s.db.QueryRowContext(ctx, s.q(selectColumns+" WHERE member_id = ? AND class_date = ?"), memberID, day)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	return rec, err
}

// ListByMemberIDsAndDateRange returns all records of the given members with
// from <= date <= to. Zero bounds are open.
// PRE: none
// POST: Returns records ordered by date then member id
func (s *SQLStore) ListByMemberIDsAndDateRange(ctx context.Context, memberIDs []string, from, to time.Time) ([]domain.Record, error) {
	var results []domain.Record
	for _, chunk := range storage.Chunk(memberIDs) {
		query := selectColumns + " WHERE member_id IN (" + storage.Placeholders(len(chunk)) + ")"
		args := make([]any, 0, len(chunk)+2)
		for _, id := range chunk {
			args = append(args, id)
		}
		if !from.IsZero() {
			query += " AND class_date >= ?"
			args = append(args, dates.Format(dates.Civil(from)))
		}
		if !to.IsZero() {
			query += " AND class_date <= ?"
			args = append(args, dates.Format(dates.Civil(to)))
		}
		recs, err := s.list(ctx, query, args)
		if err != nil {
			return nil, err
		}
		results = append(results, recs...)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].Date.Equal(results[j].Date) {
			return results[i].Date.Before(results[j].Date)
		}
		return results[i].MemberID < results[j].MemberID
	})
	return results, nil
}

// ListByMemberIDs returns the full history of the given members.
func (s *SQLStore) ListByMemberIDs(ctx context.Context, memberIDs []string) ([]domain.Record, error) {
	return s.ListByMemberIDsAndDateRange(ctx, memberIDs, time.Time{}, time.Time{})
}

func (s *SQLStore) list(ctx context.Context, query string, args []any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
