package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"altanbank/internal/emission/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
	txcontext "altanbank/pkg/platform/tx"
)

// PostgresStore persists emission records and ledger transactions.
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

// LockDay takes a row lock on the UTC day's emission_days row, creating it on
// first use. Every mint for the day serializes on this lock inside its
// transaction, so the usedToday read and the record insert are linearized.
func (s *PostgresStore) LockDay(ctx context.Context, now time.Time) error {
	day, _ := models.DayWindow(now)
	q := s.execer(ctx)

	if _, err := q.ExecContext(ctx,
		`INSERT INTO emission_days (day) VALUES ($1) ON CONFLICT (day) DO NOTHING`, day); err != nil {
		return fmt.Errorf("ensure emission day row: %w", err)
	}
	var locked time.Time
	if err := q.QueryRowContext(ctx,
		`SELECT day FROM emission_days WHERE day = $1 FOR UPDATE`, day).Scan(&locked); err != nil {
		return fmt.Errorf("lock emission day: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendEmission(ctx context.Context, record *models.EmissionRecord) error {
	query := `
		INSERT INTO emission_records (id, type, amount, reason, memo, corr_account_id, authorized_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		record.ID, string(record.Type), record.Amount, record.Reason, record.Memo,
		record.CorrAccountID, record.AuthorizedBy, string(record.Status), record.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert emission record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
	query := `
		INSERT INTO ledger_transactions (id, amount, type, status, memo, from_bank_ref, to_bank_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		tx.ID, tx.Amount, string(tx.Type), tx.Status, tx.Memo,
		nullableRef(tx.FromBankRef), nullableRef(tx.ToBankRef), tx.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEmission(ctx context.Context, id domain.EmissionID) (*models.EmissionRecord, error) {
	query := `
		SELECT id, type, amount, reason, memo, corr_account_id, authorized_by, status, created_at
		FROM emission_records
		WHERE id = $1
	`
	var r models.EmissionRecord
	var recordType, status string
	err := s.execer(ctx).QueryRowContext(ctx, query, id).Scan(&r.ID, &recordType, &r.Amount,
		&r.Reason, &r.Memo, &r.CorrAccountID, &r.AuthorizedBy, &status, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load emission record: %w", err)
	}
	r.Type = models.EmissionType(recordType)
	r.Status = models.EmissionStatus(status)
	return &r, nil
}

func (s *PostgresStore) FindTransaction(ctx context.Context, id domain.TransactionID) (*models.LedgerTransaction, error) {
	query := `
		SELECT id, amount, type, status, memo, from_bank_ref, to_bank_ref, created_at
		FROM ledger_transactions
		WHERE id = $1
	`
	var t models.LedgerTransaction
	var txType string
	var fromRef, toRef sql.NullString
	err := s.execer(ctx).QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Amount, &txType,
		&t.Status, &t.Memo, &fromRef, &toRef, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load ledger transaction: %w", err)
	}
	t.Type = models.TransactionType(txType)
	t.FromBankRef = domainRef(fromRef)
	t.ToBankRef = domainRef(toRef)
	return &t, nil
}

func (s *PostgresStore) NetMintedBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'MINT' THEN amount ELSE -amount END), 0)
		FROM emission_records
		WHERE status = 'COMPLETED' AND created_at >= $1 AND created_at < $2
	`
	var net decimal.Decimal
	if err := s.execer(ctx).QueryRowContext(ctx, query, start, end).Scan(&net); err != nil {
		return decimal.Zero, fmt.Errorf("sum net emission: %w", err)
	}
	return net, nil
}

func (s *PostgresStore) Totals(ctx context.Context) (minted, burned decimal.Decimal, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'MINT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'BURN'), 0)
		FROM emission_records
		WHERE status = 'COMPLETED'
	`
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&minted, &burned); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum emission totals: %w", err)
	}
	return minted, burned, nil
}

func (s *PostgresStore) ListEmissions(ctx context.Context, limit int) ([]*models.EmissionRecord, error) {
	query := `
		SELECT id, type, amount, reason, memo, corr_account_id, authorized_by, status, created_at
		FROM emission_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list emission records: %w", err)
	}
	defer rows.Close()

	var records []*models.EmissionRecord
	for rows.Next() {
		var r models.EmissionRecord
		var recordType, status string
		if err := rows.Scan(&r.ID, &recordType, &r.Amount, &r.Reason, &r.Memo,
			&r.CorrAccountID, &r.AuthorizedBy, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan emission record: %w", err)
		}
		r.Type = models.EmissionType(recordType)
		r.Status = models.EmissionStatus(status)
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) ListTransactions(ctx context.Context, limit int) ([]*models.LedgerTransaction, error) {
	query := `
		SELECT id, amount, type, status, memo, from_bank_ref, to_bank_ref, created_at
		FROM ledger_transactions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.LedgerTransaction
	for rows.Next() {
		var t models.LedgerTransaction
		var txType string
		var fromRef, toRef sql.NullString
		if err := rows.Scan(&t.ID, &t.Amount, &txType, &t.Status, &t.Memo,
			&fromRef, &toRef, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		t.Type = models.TransactionType(txType)
		t.FromBankRef = domainRef(fromRef)
		t.ToBankRef = domainRef(toRef)
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

func (s *PostgresStore) LastEmissionAt(ctx context.Context) (*time.Time, error) {
	var last time.Time
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT created_at FROM emission_records ORDER BY created_at DESC LIMIT 1`).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load last emission time: %w", err)
	}
	return &last, nil
}

func nullableRef(ref domain.AccountRef) any {
	if ref == "" {
		return nil
	}
	return string(ref)
}

func domainRef(ns sql.NullString) domain.AccountRef {
	if !ns.Valid {
		return ""
	}
	return domain.AccountRef(ns.String)
}
