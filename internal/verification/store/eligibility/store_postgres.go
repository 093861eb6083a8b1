package eligibility

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"neokyc/internal/eligibility"
	"neokyc/internal/platform/postgres"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/platform/tx"
)

// PostgresStore persists loan eligibility history.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const columns = `id, customer_id, risk_score, income_bracket, status,
	suggested_limit, currency, calculated_at, decided_by, decision_reason, decided_at`

func (s *PostgresStore) Append(ctx context.Context, r *eligibility.Record) error {
	query := `INSERT INTO loan_eligibility (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.CustomerID),
		r.RiskScore,
		string(r.IncomeBracket),
		string(r.Status),
		r.SuggestedLimit,
		r.Currency,
		r.CalculatedAt,
		r.DecidedBy,
		r.Reason,
		r.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan eligibility: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, customerID domain.CustomerID) (*eligibility.Record, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM loan_eligibility WHERE customer_id = $1
		 ORDER BY calculated_at DESC LIMIT 1`, uuid.UUID(customerID))
	r, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find loan eligibility: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EligibilityID) (*eligibility.Record, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM loan_eligibility WHERE id = $1`, uuid.UUID(id))
	r, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find loan eligibility: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID domain.CustomerID) ([]eligibility.Record, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+columns+` FROM loan_eligibility WHERE customer_id = $1 ORDER BY calculated_at`,
		uuid.UUID(customerID))
	if err != nil {
		return nil, fmt.Errorf("list loan eligibility: %w", err)
	}
	return collect(rows)
}

// List returns every row, newest calculation first.
func (s *PostgresStore) List(ctx context.Context) ([]eligibility.Record, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+columns+` FROM loan_eligibility ORDER BY calculated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list loan eligibility: %w", err)
	}
	return collect(rows)
}

// SetStatus stores the decision fields of r. The update only matches a
// Pending row, so concurrent decisions cannot both succeed.
func (s *PostgresStore) SetStatus(ctx context.Context, r *eligibility.Record) error {
	exec := tx.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE loan_eligibility
		 SET status = $2, decided_by = $3, decision_reason = $4, decided_at = $5
		 WHERE id = $1 AND status = $6`,
		uuid.UUID(r.ID),
		string(r.Status),
		r.DecidedBy,
		r.Reason,
		r.DecidedAt,
		string(eligibility.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("update loan eligibility: %w", postgres.TranslateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update loan eligibility: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM loan_eligibility WHERE id = $1)`, uuid.UUID(r.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check loan eligibility: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func collect(rows *sql.Rows) ([]eligibility.Record, error) {
	defer rows.Close()
	var out []eligibility.Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan eligibility: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan eligibility: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteByCustomer(ctx context.Context, customerID domain.CustomerID) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM loan_eligibility WHERE customer_id = $1`, uuid.UUID(customerID))
	if err != nil {
		return fmt.Errorf("delete loan eligibility: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*eligibility.Record, error) {
	var (
		r               eligibility.Record
		id, cid         uuid.UUID
		bracket, status string
		decidedAt       sql.NullTime
	)
	if err := row.Scan(&id, &cid, &r.RiskScore, &bracket, &status,
		&r.SuggestedLimit, &r.Currency, &r.CalculatedAt,
		&r.DecidedBy, &r.Reason, &decidedAt); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		r.DecidedAt = &decidedAt.Time
	}
	r.ID = domain.EligibilityID(id)
	r.CustomerID = domain.CustomerID(cid)
	r.IncomeBracket = domain.IncomeBracket(bracket)
	r.Status = eligibility.Status(status)
	return &r, nil
}
