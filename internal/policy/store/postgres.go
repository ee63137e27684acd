package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"altanbank/internal/policy/models"
	"altanbank/pkg/platform/sentinel"
	txcontext "altanbank/pkg/platform/tx"
)

// PostgresStore persists policy versions in PostgreSQL. Writes go through the
// transaction in context so Supersede commits with the caller's unit of work.
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

func (s *PostgresStore) Active(ctx context.Context) (*models.MonetaryPolicy, error) {
	query := `
		SELECT id, official_rate, reserve_requirement, daily_emission_limit, is_active, effective_from, created_by
		FROM monetary_policies
		WHERE is_active
	`
	var p models.MonetaryPolicy
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(
		&p.ID, &p.OfficialRate, &p.ReserveRequirement, &p.DailyEmissionLimit,
		&p.IsActive, &p.EffectiveFrom, &p.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load active policy: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Supersede(ctx context.Context, next *models.MonetaryPolicy, changes []models.PolicyChange) error {
	q := s.execer(ctx)

	if _, err := q.ExecContext(ctx, `UPDATE monetary_policies SET is_active = FALSE WHERE is_active`); err != nil {
		return fmt.Errorf("deactivate policy: %w", err)
	}

	insert := `
		INSERT INTO monetary_policies (id, official_rate, reserve_requirement, daily_emission_limit, is_active, effective_from, created_by)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	`
	if _, err := q.ExecContext(ctx, insert,
		next.ID, next.OfficialRate, next.ReserveRequirement, next.DailyEmissionLimit,
		next.EffectiveFrom, next.CreatedBy,
	); err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}

	changeInsert := `
		INSERT INTO policy_changes (id, parameter, previous_value, new_value, reason, authorized_by, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, c := range changes {
		if _, err := q.ExecContext(ctx, changeInsert,
			c.ID, c.Parameter, c.PreviousValue, c.NewValue, c.Reason, c.AuthorizedBy, c.EffectiveAt,
		); err != nil {
			return fmt.Errorf("insert policy change: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]models.PolicyChange, error) {
	query := `
		SELECT id, parameter, previous_value, new_value, reason, authorized_by, effective_at
		FROM policy_changes
		ORDER BY effective_at DESC, id DESC
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list policy changes: %w", err)
	}
	defer rows.Close()

	var history []models.PolicyChange
	for rows.Next() {
		var c models.PolicyChange
		if err := rows.Scan(&c.ID, &c.Parameter, &c.PreviousValue, &c.NewValue, &c.Reason, &c.AuthorizedBy, &c.EffectiveAt); err != nil {
			return nil, fmt.Errorf("scan policy change: %w", err)
		}
		history = append(history, c)
	}
	return history, rows.Err()
}
