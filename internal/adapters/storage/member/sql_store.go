package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roster/internal/adapters/storage"
	"roster/internal/domain/dates"
	domain "roster/internal/domain/member"
)

const selectColumns = "SELECT id, name, preferred_name, birth_date, path_level, cohort_id, created_at FROM member"

// SQLStore implements Store over SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new member store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db, dialect: storage.DialectOf(db)}
}

func (s *SQLStore) q(query string) string {
	return storage.Rebind(s.dialect, query)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(sc rowScanner) (domain.Member, error) {
	var m domain.Member
	var birth, created string
	if err := sc.Scan(&m.ID, &m.Name, &m.PreferredName, &birth, &m.PathLevel, &m.CohortID, &created); err != nil {
		return domain.Member{}, err
	}
	var err error
	if m.BirthDate, err = dates.Parse(birth); err != nil {
		return domain.Member{}, fmt.Errorf("failed to parse birth_date of member %s: %w", m.ID, err)
	}
	if created != "" {
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return domain.Member{}, fmt.Errorf("failed to parse created_at of member %s: %w", m.ID, err)
		}
	}
	return m, nil
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, s.q(selectColumns+" WHERE id = ?"), id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return m, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Member) error {
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO member (id, name, preferred_name, birth_date, path_level, cohort_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, preferred_name=excluded.preferred_name,
			birth_date=excluded.birth_date, path_level=excluded.path_level, cohort_id=excluded.cohort_id`
	_, err := s.db.ExecContext(ctx, s.q(query),
		entity.ID,
		entity.Name,
		entity.PreferredName,
		dates.Format(entity.BirthDate),
		entity.PathLevel,
		entity.CohortID,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save member %s: %w", entity.ID, err)
	}
	return nil
}

// SetCohort pins a member to cohortID. An empty cohortID unpins.
// PRE: id is non-empty
// POST: Returns domain.ErrNotFound when no member has that id
func (s *SQLStore) SetCohort(ctx context.Context, id string, cohortID string) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE member SET cohort_id = ? WHERE id = ?"), cohortID, id)
	if err != nil {
		return fmt.Errorf("failed to pin member %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// listWhereClause builds the WHERE clause and args for List queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if !filter.BornFrom.IsZero() {
		where += " AND birth_date >= ?"
		args = append(args, dates.Format(filter.BornFrom))
	}
	if !filter.BornTo.IsZero() {
		where += " AND birth_date <= ?"
		args = append(args, dates.Format(filter.BornTo))
	}
	if filter.CohortID != "" {
		where += " AND cohort_id = ?"
		args = append(args, filter.CohortID)
	}
	if filter.Unpinned {
		where += " AND cohort_id = ''"
	}
	return where, args
}

// List retrieves members matching the filter, ordered by name then id.
// Birth dates are stored as YYYY-MM-DD so the range compares lexically.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := selectColumns + where + " ORDER BY name ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
