package repositories

import (
	"context"
	"errors"
	"fmt"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/db"
	"trip-route-service/internal/platform/obs"

	"github.com/google/uuid"
)

// Postgres-backed implementation of the TripRepository port.
type PgTripRepository struct{ DB db.Querier }

func NewPgTripRepository(q db.Querier) *PgTripRepository {
	return &PgTripRepository{DB: q}
}

// Save inserts rec and returns it with its id and the database-assigned created_at.
func (r *PgTripRepository) Save(ctx context.Context, rec domain.TripRecord) (_ domain.TripRecord, err error) {
	defer obs.Time(ctx, "trips.Save")(&err)

	if r.DB == nil {
		return domain.TripRecord{}, errors.New("pg trip repository: DB is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `
	INSERT INTO trip_log (
		id,
		origin,
		destination,
		distance,
		fuel_used,
		departure_time,
		arrival_time,
		transport_mode
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at;
	`
	err = r.DB.QueryRow(ctx, query,
		rec.ID,
		rec.Origin,
		rec.Destination,
		rec.Distance,
		rec.FuelUsed,
		rec.DepartureTime,
		rec.ArrivalTime,
		rec.TransportMode,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("save trip: insert trip_log: %w", err)
	}

	return rec, nil
}

// List returns every logged trip, newest first.
func (r *PgTripRepository) List(ctx context.Context) (_ domain.Report, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	if r.DB == nil {
		return nil, errors.New("pg trip repository: DB is nil")
	}

	query := `
	SELECT
		id,
		origin,
		destination,
		distance,
		fuel_used,
		departure_time,
		arrival_time,
		transport_mode,
		created_at
	FROM trip_log
	ORDER BY created_at DESC;
	`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trip_log table: %w", err)
	}
	defer rows.Close()

	report := make(domain.Report, 0, 64)
	for rows.Next() {
		var rec domain.TripRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Origin,
			&rec.Destination,
			&rec.Distance,
			&rec.FuelUsed,
			&rec.DepartureTime,
			&rec.ArrivalTime,
			&rec.TransportMode,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		report = append(report, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return report, nil
}
