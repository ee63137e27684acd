package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"altanbank/internal/officer/models"
	"altanbank/pkg/domain"
	"altanbank/pkg/platform/sentinel"
	txcontext "altanbank/pkg/platform/tx"
)

// PostgresStore reads the officer directory. The table is written by the
// provisioning pipeline, never by the engine.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.OfficerID) (*models.CentralBankOfficer, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, wallet_address, role, is_active, created_at FROM officers WHERE id = $1`, id)
	officer, err := scanOfficer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load officer: %w", err)
	}
	return officer, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.CentralBankOfficer, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, wallet_address, role, is_active, created_at FROM officers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	defer rows.Close()

	var officers []*models.CentralBankOfficer
	for rows.Next() {
		officer, err := scanOfficer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		officers = append(officers, officer)
	}
	return officers, rows.Err()
}

func scanOfficer(row interface{ Scan(...any) error }) (*models.CentralBankOfficer, error) {
	var o models.CentralBankOfficer
	var role string
	if err := row.Scan(&o.ID, &o.WalletAddress, &role, &o.IsActive, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Role = domain.OfficerRole(role)
	return &o, nil
}
