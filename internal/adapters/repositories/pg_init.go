package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/db"

	"github.com/google/uuid"
)

// Initialize the Postgres trip_log schema.
func InitSchema(ctx context.Context, q db.Querier) error {
	if q == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	createTripLogQuery := `
	CREATE TABLE IF NOT EXISTS trip_log (
		id UUID PRIMARY KEY,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance DOUBLE PRECISION NOT NULL,
		fuel_used DOUBLE PRECISION NOT NULL,
		departure_time TIMESTAMPTZ NOT NULL,
		arrival_time TIMESTAMPTZ NOT NULL,
		transport_mode TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_trip_log_created_at
	ON trip_log(created_at DESC);
	`

	statements := []string{
		createTripLogQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

type TripSeed struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Distance      float64   `json:"distance"`
	FuelUsed      float64   `json:"fuel_used"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	TransportMode string    `json:"transportMode"`
	CreatedAt     time.Time `json:"created_at"`
}

// Populate trip_log with demo records from a JSON file. Existing ids are kept.
// The rows go in one transaction, so a failed insert leaves the table untouched.
func SeedFromJSON(ctx context.Context, q db.Querier, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed trips: read %q: %w", jsonPath, err)
	}

	var data []TripSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed trips: parse json: %w", err)
	}

	rows := make([]TripSeed, 0, len(data))
	for i, item := range data {
		if strings.TrimSpace(item.Origin) == "" || strings.TrimSpace(item.Destination) == "" {
			return 0, fmt.Errorf("seed trips: item at index %d: origin and destination cannot be empty", i+1)
		}
		if !domain.TransportMode(item.TransportMode).Valid() {
			return 0, fmt.Errorf("seed trips: item at index %d: invalid transport mode %q", i+1, item.TransportMode)
		}
		if item.ID == "" {
			item.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s|%d", jsonPath, i))).String()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = item.DepartureTime
		}
		rows = append(rows, item)
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
		transport_mode,
		created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING;
	`

	tx, err := q.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed trips: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, t := range rows {
		tag, err := tx.Exec(ctx, query,
			t.ID, t.Origin, t.Destination, t.Distance, t.FuelUsed,
			t.DepartureTime, t.ArrivalTime, t.TransportMode, t.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("seed trips: insert id=%s: %w", t.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("seed trips: commit: %w", err)
	}
	return inserted, nil
}
