// Package router maps keys to shard indices.
//
// The mapping is a stable 64-bit hash (xxhash64, seed 0) of the key bytes
// modulo the shard count. It is a pure function of the key and the shard
// count, so independent client instances configured with the same shard
// count agree on placement without coordination. There is no resharding:
// changing the shard count invalidates the placement of every stored key.
package router

import (
	"github.com/cespare/xxhash/v2"
)

// Route returns the shard index responsible for key. shards must be >= 1.
func Route(key []byte, shards int) int {
	return int(xxhash.Sum64(key) % uint64(shards))
}

// Table is a fixed routing table for a client's lifetime. It exists so the
// shard count is captured once at construction and cannot drift from the
// connection layout.
type Table struct {
	shards int
}

// NewTable creates a routing table over the given shard count.
func NewTable(shards int) Table {
	return Table{shards: shards}
}

// Route returns the shard index responsible for key.
func (t Table) Route(key []byte) int {
	return Route(key, t.shards)
}

// Shards returns the shard count of the table.
func (t Table) Shards() int {
	return t.shards
}
