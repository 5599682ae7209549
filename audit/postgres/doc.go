// Package postgres persists playgate audit events to PostgreSQL through pgx.
//
// The sink is meant to sit behind the engine's async dispatcher: Emit blocks for one
// INSERT and reports failures to an error callback instead of the caller.
package postgres
