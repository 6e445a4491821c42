// Package storage implements the persistence interfaces of the billing,
// usage and chat packages on PostgreSQL via pgx.
//
// Counter increments are single-statement upserts so concurrent requests
// for the same user and day never lose a count.
package storage
