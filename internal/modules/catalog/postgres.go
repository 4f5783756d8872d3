package catalog

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

func scanSchool(scan func(...interface{}) error) (*School, error) {
	s := &School{}
	err := scan(&s.ID, &s.Name, &s.Slug, &s.City, &s.ImageURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func scanPack(scan func(...interface{}) error) (*Pack, error) {
	p := &Pack{}
	var supplies []byte
	err := scan(&p.ID, &p.SchoolID, &p.SchoolName, &p.Grade, &p.Name, &p.Price,
		&supplies, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(supplies) > 0 {
		if err := json.Unmarshal(supplies, &p.Supplies); err != nil {
			return nil, fmt.Errorf("decode supplies of pack %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func scanElectronic(scan func(...interface{}) error) (*Electronic, error) {
	e := &Electronic{}
	err := scan(&e.ID, &e.Name, &e.Brand, &e.Category, &e.Price, &e.Stock, &e.ImageURL,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

const (
	schoolCols     = `id,name,slug,city,image_url,is_active,created_at,updated_at`
	packSelect     = `SELECT p.id,p.school_id,s.name,p.grade,p.name,p.price,p.supplies,p.is_active,p.created_at,p.updated_at
	                  FROM packs p JOIN schools s ON s.id = p.school_id`
	electronicCols = `id,name,brand,category,price,stock,image_url,is_active,created_at,updated_at`
)

func (r *postgresRepo) ListSchools(ctx context.Context, activeOnly bool) ([]*School, error) {
	query := `SELECT ` + schoolCols + ` FROM schools`
	if activeOnly {
		query += ` WHERE is_active=true`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []*School{}
	for rows.Next() {
		s, err := scanSchool(rows.Scan)
		if err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *postgresRepo) GetSchool(ctx context.Context, id string) (*School, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+schoolCols+` FROM schools WHERE id=$1 AND is_active=true`, uid)
	return scanSchool(row.Scan)
}

func (r *postgresRepo) ListPacks(ctx context.Context, schoolID, grade string) ([]*Pack, error) {
	query := packSelect + ` WHERE p.is_active=true AND s.is_active=true`
	args := []interface{}{}
	n := 1
	if schoolID != "" {
		uid, err := uuid.Parse(schoolID)
		if err != nil {
			return nil, ErrNotFound
		}
		query += fmt.Sprintf(` AND p.school_id=$%d`, n)
		args = append(args, uid)
		n++
	}
	if grade != "" {
		query += fmt.Sprintf(` AND lower(p.grade)=lower($%d)`, n)
		args = append(args, grade)
	}
	query += ` ORDER BY s.name, p.grade`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := []*Pack{}
	for rows.Next() {
		p, err := scanPack(rows.Scan)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

func (r *postgresRepo) GetPack(ctx context.Context, id string) (*Pack, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, packSelect+` WHERE p.id=$1 AND p.is_active=true`, uid)
	return scanPack(row.Scan)
}

func (r *postgresRepo) ListElectronics(ctx context.Context, category string) ([]*Electronic, error) {
	query := `SELECT ` + electronicCols + ` FROM electronics WHERE is_active=true`
	args := []interface{}{}
	if category != "" {
		query += ` AND category=$1`
		args = append(args, category)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Electronic{}
	for rows.Next() {
		e, err := scanElectronic(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *postgresRepo) GetElectronic(ctx context.Context, id string) (*Electronic, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+electronicCols+` FROM electronics WHERE id=$1 AND is_active=true`, uid)
	return scanElectronic(row.Scan)
}
