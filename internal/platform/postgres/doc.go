// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver, and owns the schema as embedded goose
// migrations.
//
// Card sides are stored as JSONB in the same record shape the API exchanges,
// so a side read back is structurally equal to the side written.
package postgres
