// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package store opens the backing database and provides the dialect
// helpers shared by the packages that own their individual schemas.
// Postgres is the production target; embedded SQLite covers single-node
// deployments and tests.
package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// TimeFormat is fixed-width RFC3339 with nanoseconds so stored timestamps
// sort lexicographically. Timestamps are stored as TEXT to keep scanning
// behavior identical across both drivers.
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// Open connects and verifies the database. SQLite is capped to a single
// connection: the driver serializes writers anyway and a single connection
// keeps in-memory databases coherent.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// Builder returns a squirrel statement builder with the placeholder format
// the connected driver expects.
func Builder(db *sqlx.DB) sq.StatementBuilderType {
	if db.DriverName() == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
