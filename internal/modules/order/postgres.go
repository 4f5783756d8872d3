package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, user_id, items, total, status, school_name, grade, stripe_session_id, version, created_at, updated_at`

// CreateIfAbsent relies on the uq_orders_stripe_session constraint, so concurrent webhook and
// success-page confirmations of one session insert at most one row.
func (r *postgresRepo) CreateIfAbsent(ctx context.Context, o *Order) (*Order, bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, false, fmt.Errorf("marshal items: %w", err)
	}
	created, err := scanOrder(r.db.QueryRowContext(ctx, `
		INSERT INTO orders
		  (id, user_id, items, total, status, school_name, grade, stripe_session_id, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1,$9,$9)
		ON CONFLICT (stripe_session_id) DO NOTHING
		RETURNING `+orderColumns,
		o.ID, o.UserID, items, o.Total, o.Status, o.SchoolName, o.Grade, o.StripeSessionID, o.CreatedAt))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("insert order: %w", err)
	}
	existing, err := r.GetBySession(ctx, o.StripeSessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load existing order for session %s: %w", o.StripeSessionID, err)
	}
	return existing, false, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *postgresRepo) GetBySession(ctx context.Context, sessionID string) (*Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id=$1`, sessionID))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []interface{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if f.School != "" {
		args = append(args, f.School)
		query += fmt.Sprintf(` AND school_name=$%d`, len(args))
	}
	if f.Grade != "" {
		args = append(args, f.Grade)
		query += fmt.Sprintf(` AND grade=$%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, expectedVersion *int) (*Order, error) {
	var expected sql.NullInt64
	if expectedVersion != nil {
		expected = sql.NullInt64{Int64: int64(*expectedVersion), Valid: true}
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders SET status=$2, version=version+1, updated_at=clock_timestamp()
		WHERE id=$1 AND ($3::int IS NULL OR version=$3)
		RETURNING `+orderColumns,
		id, status, expected))
	if !errors.Is(err, ErrNotFound) {
		return o, err
	}
	// No row updated: either the order is gone or the version moved on.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, ErrNotFound
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanOrder(row interface{ Scan(...interface{}) error }) (*Order, error) {
	o := &Order{}
	var userID uuid.NullUUID
	var items []byte
	err := row.Scan(&o.ID, &userID, &items, &o.Total, &o.Status, &o.SchoolName, &o.Grade,
		&o.StripeSessionID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		o.UserID = &userID.UUID
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
