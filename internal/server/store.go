package server

import (
	"context"
	"errors"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

var ErrNotFound = errors.New("not found")

// Store persists scored diagnoses. Records are insert-only.
type Store interface {
	// SaveDiagnosis assigns the record's id and creation time and returns
	// the stored record.
	SaveDiagnosis(ctx context.Context, rec clinicdiag.Record) (clinicdiag.Record, error)
	GetDiagnosis(ctx context.Context, id string) (clinicdiag.Record, error)
	// ListDiagnoses returns the most recent records first.
	ListDiagnoses(ctx context.Context, limit int) ([]clinicdiag.Record, error)
}

const defaultListLimit = 100

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > reportLimit:
		return reportLimit
	}
	return limit
}
