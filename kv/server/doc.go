// Package server implements a protocol-compliant in-memory portkv server.
//
// One TCP listener per shard, at (Host, BasePort+shardIndex), each backed by
// its own store; the layout is the same contiguous-port scheme the client
// routes against. Stores are independent: the server performs no routing of
// its own and trusts clients to hash keys to the right port.
//
// PUT and DEL are processed without a reply. GET answers with the raw value
// bytes in one write; a missing key (or a present key with an empty value)
// produces no bytes on the wire, which clients observe as a timeout. TTLs
// are enforced lazily on read plus a periodic janitor sweep.
//
// The server exists for local development, the CLI serve command and the
// end-to-end tests. It is not a durable store.
package server
