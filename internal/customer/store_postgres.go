package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"neokyc/internal/pii"
	"neokyc/internal/platform/postgres"
	"neokyc/internal/risk"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/platform/tx"
	"neokyc/pkg/requestcontext"
)

// PostgresStore persists customers in PostgreSQL. Sensitive columns hold
// pii tokens; customer_code carries a UNIQUE constraint. ListPlaintext
// returns registration order.
type PostgresStore struct {
	db     *sql.DB
	cipher *pii.Cipher
}

func NewPostgresStore(db *sql.DB, cipher *pii.Cipher) *PostgresStore {
	return &PostgresStore{db: db, cipher: cipher}
}

const customerColumns = `id, customer_code, full_name, cnic, email, phone, address,
	income_bracket, password_hash, trust_score, segment, returning_customer,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *Customer) error {
	sl, err := seal(s.cipher, c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		c.Code,
		c.FullName,
		string(sl.cnic),
		string(sl.email),
		string(sl.phone),
		string(sl.address),
		string(c.IncomeBracket),
		c.PasswordHash,
		c.TrustScore,
		string(c.Segment),
		c.Returning,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CustomerID) (*Customer, error) {
	row := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, uuid.UUID(id))
	c, sl, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	sl.open(s.cipher, c, true)
	return c, nil
}

func (s *PostgresStore) ListPlaintext(ctx context.Context) ([]*Customer, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		c, sl, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		sl.open(s.cipher, c, false)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateRisk(ctx context.Context, id domain.CustomerID, trustScore int, segment risk.Segment) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`UPDATE customers SET trust_score = $2, segment = $3, updated_at = $4 WHERE id = $1`,
		uuid.UUID(id), trustScore, string(segment), requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("update customer risk: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the customer; verification and eligibility rows cascade.
func (s *PostgresStore) Delete(ctx context.Context, id domain.CustomerID) error {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM customers WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(r rowScanner) (*Customer, sealed, error) {
	var (
		c                           Customer
		id                          uuid.UUID
		cnic, email, phone, address string
		bracket, segment            string
	)
	err := r.Scan(&id, &c.Code, &c.FullName, &cnic, &email, &phone, &address,
		&bracket, &c.PasswordHash, &c.TrustScore, &segment, &c.Returning,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, sealed{}, err
	}
	c.ID = domain.CustomerID(id)
	c.IncomeBracket = domain.IncomeBracket(bracket)
	c.Segment = risk.Segment(segment)
	return &c, sealed{
		cnic:    pii.Token(cnic),
		email:   pii.Token(email),
		phone:   pii.Token(phone),
		address: pii.Token(address),
	}, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
