// Package rediscache stores rendered print exports in Redis.
//
// Entries are namespaced per deck so that a save to any card of a deck can
// drop every export derived from it with a single SCAN/DEL sweep.
package rediscache
