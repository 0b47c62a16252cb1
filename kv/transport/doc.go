// Package transport owns the shard connections and the matching of inbound
// responses to outstanding requests.
//
// A Manager holds one persistent TCP connection per shard, established
// fail-fast at construction. Writes are serialized per connection; a reader
// goroutine per connection delivers each inbound message to a strict FIFO of
// pending handlers. The protocol has no request identifiers, so within one
// connection responses must arrive in the order the requests were written;
// the FIFO is what encodes that assumption.
//
// There is no reconnect or retry. When a connection's read side fails, every
// handler pending on it is resolved with the error and the connection stays
// dead until the manager is closed.
package transport
