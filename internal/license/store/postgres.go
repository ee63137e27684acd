package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"altanbank/internal/license/models"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
	txcontext "altanbank/pkg/platform/tx"
)

// PostgresStore persists bank licenses. The bank-code uniqueness rule is
// enforced by a partial unique index over non-revoked rows, so concurrent
// issuance of the same code resolves to exactly one winner.
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

const licenseColumns = `id, bank_address, bank_code, bank_name, status, issued_at, issued_by, revoked_at, revoke_reason`

func scanLicense(row interface{ Scan(...any) error }) (*models.BankLicense, error) {
	var l models.BankLicense
	var status string
	var revokeReason sql.NullString
	err := row.Scan(&l.ID, &l.BankAddress, &l.BankCode, &l.BankName, &status,
		&l.IssuedAt, &l.IssuedBy, &l.RevokedAt, &revokeReason)
	if err != nil {
		return nil, err
	}
	l.Status = models.LicenseStatus(status)
	l.RevokeReason = revokeReason.String
	return &l, nil
}

func (s *PostgresStore) CreateIfCodeAvailable(ctx context.Context, license *models.BankLicense) error {
	query := `
		INSERT INTO bank_licenses (id, bank_address, bank_code, bank_name, status, issued_at, issued_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		license.ID, license.BankAddress, license.BankCode, license.BankName,
		string(license.Status), license.IssuedAt, license.IssuedBy,
	); err != nil {
		if storage.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert bank license: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.LicenseID) (*models.BankLicense, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM bank_licenses WHERE id = $1`, id)
	license, err := scanLicense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load bank license: %w", err)
	}
	return license, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.BankLicense, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+licenseColumns+` FROM bank_licenses ORDER BY issued_at`)
	if err != nil {
		return nil, fmt.Errorf("list bank licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*models.BankLicense
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bank license: %w", err)
		}
		licenses = append(licenses, license)
	}
	return licenses, rows.Err()
}

// Execute atomically validates and mutates one license under FOR UPDATE.
// Called inside the service's unit of work, so the row lock holds until the
// surrounding transaction commits.
func (s *PostgresStore) Execute(
	ctx context.Context,
	id domain.LicenseID,
	validate func(*models.BankLicense) error,
	mutate func(*models.BankLicense),
) (*models.BankLicense, error) {
	q := s.execer(ctx)

	row := q.QueryRowContext(ctx,
		`SELECT `+licenseColumns+` FROM bank_licenses WHERE id = $1 FOR UPDATE`, id)
	license, err := scanLicense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock bank license: %w", err)
	}

	if err := validate(license); err != nil {
		return nil, err
	}
	mutate(license)

	update := `
		UPDATE bank_licenses
		SET status = $2, revoked_at = $3, revoke_reason = $4
		WHERE id = $1
	`
	var revokeReason sql.NullString
	if license.RevokeReason != "" {
		revokeReason = sql.NullString{String: license.RevokeReason, Valid: true}
	}
	if _, err := q.ExecContext(ctx, update, license.ID, string(license.Status), license.RevokedAt, revokeReason); err != nil {
		return nil, fmt.Errorf("update bank license: %w", err)
	}
	return license, nil
}

func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bank_licenses WHERE status <> 'REVOKED'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count licenses: %w", err)
	}
	return count, nil
}
