package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB 建立连接池并探活
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

const createVehiclesTable = `
CREATE TABLE IF NOT EXISTS vehicles (
	plate      TEXT PRIMARY KEY,
	class      TEXT NOT NULL,
	balance    DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createSpotsTable = `
CREATE TABLE IF NOT EXISTS spots (
	id             TEXT PRIMARY KEY,
	floor          INT NOT NULL,
	row_num        INT NOT NULL,
	idx            INT NOT NULL,
	category       TEXT NOT NULL,
	hourly_rate    DOUBLE PRECISION NOT NULL,
	status         TEXT NOT NULL DEFAULT 'AVAILABLE',
	occupant_plate TEXT
)`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
	id         TEXT PRIMARY KEY,
	spot_id    TEXT NOT NULL REFERENCES spots(id),
	plate      TEXT,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
	id         TEXT PRIMARY KEY,
	plate      TEXT NOT NULL REFERENCES vehicles(plate),
	spot_id    TEXT NOT NULL REFERENCES spots(id),
	entry_time TIMESTAMPTZ NOT NULL,
	exit_time   TIMESTAMPTZ,
	fine_scheme TEXT NOT NULL
)`

const createTicketsIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_open_plate
	ON tickets (plate) WHERE exit_time IS NULL`

const createFinesTable = `
CREATE TABLE IF NOT EXISTS fines (
	id         TEXT PRIMARY KEY,
	plate      TEXT NOT NULL,
	ticket_id  TEXT NOT NULL REFERENCES tickets(id),
	kind       TEXT NOT NULL,
	amount     DOUBLE PRECISION NOT NULL,
	scheme     TEXT NOT NULL,
	paid       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (ticket_id, kind)
)`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
	id          TEXT PRIMARY KEY,
	ticket_id   TEXT NOT NULL REFERENCES tickets(id),
	parking_fee DOUBLE PRECISION NOT NULL,
	fine_amount DOUBLE PRECISION NOT NULL,
	total       DOUBLE PRECISION NOT NULL,
	method      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createFacilityConfigTable = `
CREATE TABLE IF NOT EXISTS facility_config (
	id          INT PRIMARY KEY DEFAULT 1,
	fine_scheme TEXT NOT NULL DEFAULT 'FIXED',
	CHECK (id = 1)
)`

// Migrate 按顺序执行建表语句
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		createVehiclesTable,
		createSpotsTable,
		createReservationsTable,
		createTicketsTable,
		createTicketsIndex,
		createFinesTable,
		createPaymentsTable,
		createFacilityConfigTable,
	}
	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}
