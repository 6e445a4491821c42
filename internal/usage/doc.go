// Package usage tracks per-user daily counters and gates access to the
// assistant based on plan quotas.
//
// Days are bucketed in the product timezone (America/Sao_Paulo by default)
// so the daily reset matches the users' midnight, not UTC. Counters only
// grow; a new day is a new row, never a reset of the old one.
//
// The gate separates the quota decision (Allow) from the counter write
// (Commit): a reply that was already generated is never withheld because
// the counter write failed.
package usage
