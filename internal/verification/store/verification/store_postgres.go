package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"neokyc/internal/platform/postgres"
	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/platform/tx"
)

// PostgresStore persists verifications. customer_id is UNIQUE and cascades
// on customer deletion.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const columns = `id, customer_id, status, risk_score, trust_score, risk_level,
	reasons, remarks, verified_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, v *models.Verification) error {
	query := `INSERT INTO verifications (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		uuid.UUID(v.CustomerID),
		string(v.Status),
		v.RiskScore,
		v.TrustScore,
		string(v.RiskLevel),
		pq.Array(nonNil(v.Reasons)),
		v.Remarks,
		v.VerifiedBy,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindByCustomer(ctx context.Context, customerID domain.CustomerID) (*models.Verification, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM verifications WHERE customer_id = $1`, uuid.UUID(customerID))
	v, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) Update(ctx context.Context, v *models.Verification) error {
	query := `
		UPDATE verifications SET
			status = $2, risk_score = $3, trust_score = $4, risk_level = $5,
			reasons = $6, remarks = $7, verified_by = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		string(v.Status),
		v.RiskScore,
		v.TrustScore,
		string(v.RiskLevel),
		pq.Array(nonNil(v.Reasons)),
		v.Remarks,
		v.VerifiedBy,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.Verification, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+columns+` FROM verifications WHERE status = $1 ORDER BY created_at, id`,
		string(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Verification
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteByCustomer(ctx context.Context, customerID domain.CustomerID) error {
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM verifications WHERE customer_id = $1`, uuid.UUID(customerID))
	if err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(r rowScanner) (*models.Verification, error) {
	var (
		v             models.Verification
		id, cid       uuid.UUID
		status, level string
		reasons       pq.StringArray
	)
	err := r.Scan(&id, &cid, &status, &v.RiskScore, &v.TrustScore, &level,
		&reasons, &v.Remarks, &v.VerifiedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.ID = domain.VerificationID(id)
	v.CustomerID = domain.CustomerID(cid)
	v.Status = models.Status(status)
	v.RiskLevel = risk.Level(level)
	if len(reasons) > 0 {
		v.Reasons = []string(reasons)
	}
	return &v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
