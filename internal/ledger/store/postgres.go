package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"altanbank/internal/ledger/models"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
	txcontext "altanbank/pkg/platform/tx"
)

// PostgresStore persists correspondent accounts. Credit and Debit are single
// guarded UPDATEs that ride the transaction in context, so a balance change
// can only commit together with the record that justifies it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = `id, license_id, account_ref, balance, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.CorrAccount, error) {
	var a models.CorrAccount
	var ref string
	err := row.Scan(&a.ID, &a.LicenseID, &ref, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AccountRef = domain.AccountRef(ref)
	return &a, nil
}

func (s *PostgresStore) Create(ctx context.Context, account *models.CorrAccount) error {
	query := `
		INSERT INTO corr_accounts (id, license_id, account_ref, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		account.ID, account.LicenseID, account.AccountRef.String(), account.Balance, account.CreatedAt,
	); err != nil {
		if storage.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert corr account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CorrAccountID) (*models.CorrAccount, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM corr_accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load corr account: %w", err)
	}
	return account, nil
}

// Resolve maps the opaque account reference back to its account.
func (s *PostgresStore) Resolve(ctx context.Context, ref domain.AccountRef) (*models.CorrAccount, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM corr_accounts WHERE account_ref = $1`, ref.String())
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("resolve corr account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.CorrAccount, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM corr_accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list corr accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.CorrAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan corr account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) Credit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*models.CorrAccount, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE corr_accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, amount)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("credit corr account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) Debit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*models.CorrAccount, error) {
	// The balance >= amount guard in the UPDATE makes overdrafts impossible
	// even without serializable isolation.
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE corr_accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING `+accountColumns,
		id, amount)
	account, err := scanAccount(row)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debit corr account: %w", err)
	}

	// Distinguish a missing account from an uncovered debit.
	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInsufficientFunds
}

func (s *PostgresStore) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM corr_accounts`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum corr balances: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM corr_accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count corr accounts: %w", err)
	}
	return count, nil
}
