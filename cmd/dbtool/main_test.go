package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

func TestInitAndSeedLoadsBundledTrips(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS trip_log`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO trip_log`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := initAndSeed(context.Background(), mock, true, "../../data/seeds/trips.json", logger); err != nil {
		t.Fatalf("initAndSeed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInitWithoutSeed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS trip_log`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := initAndSeed(context.Background(), mock, false, "", logger); err != nil {
		t.Fatalf("initAndSeed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
