package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// DocStore implements Store on the migrated diagnoses table, keeping the
// whole record as a JSONB document next to a few indexed columns.
type DocStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db, now: time.Now}
}

func (s *DocStore) SaveDiagnosis(ctx context.Context, rec clinicdiag.Record) (clinicdiag.Record, error) {
	if err := rec.Results.Check(); err != nil {
		return clinicdiag.Record{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	data, err := json.Marshal(rec)
	if err != nil {
		return clinicdiag.Record{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diagnoses (id, clinic_name, status, total_yes, created_at, data)
		 VALUES (?, ?, ?, ?, ?, jsonb(?))`,
		rec.ID, rec.ClinicInfo.ClinicName, string(rec.Results.Status), rec.Results.TotalYes,
		rec.CreatedAt.Format(timeLayout), string(data),
	)
	if err != nil {
		return clinicdiag.Record{}, fmt.Errorf("inserting diagnosis: %w", err)
	}
	return rec, nil
}

func (s *DocStore) GetDiagnosis(ctx context.Context, id string) (clinicdiag.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM diagnoses WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return clinicdiag.Record{}, ErrNotFound
	}
	if err != nil {
		return clinicdiag.Record{}, err
	}
	var rec clinicdiag.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return clinicdiag.Record{}, fmt.Errorf("decoding diagnosis %s: %w", id, err)
	}
	return rec, nil
}

func (s *DocStore) ListDiagnoses(ctx context.Context, limit int) ([]clinicdiag.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM diagnoses ORDER BY created_at DESC, id LIMIT ?`, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []clinicdiag.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec clinicdiag.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding diagnosis: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Ping reports whether the database is reachable.
func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
