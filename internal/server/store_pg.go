package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

// PGStore implements Store on Postgres. The database assigns created_at.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore expects the schema from migrations.RunPostgres.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) SaveDiagnosis(ctx context.Context, rec clinicdiag.Record) (clinicdiag.Record, error) {
	if err := rec.Results.Check(); err != nil {
		return clinicdiag.Record{}, err
	}
	rec.ID = uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return clinicdiag.Record{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO diagnoses (id, clinic_name, status, total_yes, data)
		 VALUES ($1, $2, $3, $4, '{}') RETURNING created_at`,
		rec.ID, rec.ClinicInfo.ClinicName, string(rec.Results.Status), rec.Results.TotalYes,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return clinicdiag.Record{}, fmt.Errorf("inserting diagnosis: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return clinicdiag.Record{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE diagnoses SET data = $2 WHERE id = $1`, rec.ID, data); err != nil {
		return clinicdiag.Record{}, fmt.Errorf("storing diagnosis document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return clinicdiag.Record{}, err
	}
	return rec, nil
}

func (s *PGStore) GetDiagnosis(ctx context.Context, id string) (clinicdiag.Record, error) {
	var rec clinicdiag.Record
	err := s.pool.QueryRow(ctx, `SELECT data FROM diagnoses WHERE id = $1`, id).Scan(&rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return clinicdiag.Record{}, ErrNotFound
	}
	if err != nil {
		return clinicdiag.Record{}, err
	}
	return rec, nil
}

func (s *PGStore) ListDiagnoses(ctx context.Context, limit int) ([]clinicdiag.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM diagnoses ORDER BY created_at DESC, id LIMIT $1`, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	recs, err := pgx.CollectRows(rows, pgx.RowTo[clinicdiag.Record])
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []clinicdiag.Record{}
	}
	return recs, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
