// Package store declares the card persistence contract used by the services,
// the shared store errors, and a transaction helper that works with any
// database/sql driver.
package store
